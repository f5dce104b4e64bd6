package recommend

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrPersist = errors.New("persist recommendation failed")
)
