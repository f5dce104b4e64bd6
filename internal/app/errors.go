package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrInvalidInteraction = errors.New("invalid interaction")
	ErrInvalidBooth       = errors.New("invalid booth")
)
