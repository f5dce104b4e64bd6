package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrClosed    = errors.New("store closed")
	ErrInvalid   = errors.New("invalid record")
	ErrDuplicate = errors.New("duplicate interaction")
)
