package simulate

import "errors"

var (
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrUnexpectedStatus is returned for HTTP responses outside the contract.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNotSettled is returned when submissions are not processed in time.
	ErrNotSettled = errors.New("submissions not processed in time")
	// ErrViolations is returned when recommendations break a ranking rule.
	ErrViolations = errors.New("recommendation rule violations")
)
