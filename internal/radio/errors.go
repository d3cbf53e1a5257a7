package radio

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a driver failure
type ErrorType int

const (
	// ErrTypeNotInitialized indicates a call before Init or after Deinit
	ErrTypeNotInitialized ErrorType = iota
	// ErrTypeBus indicates the transport to the radio stack failed
	ErrTypeBus
	// ErrTypeInvalidArgument indicates the stack rejected the arguments
	ErrTypeInvalidArgument
	// ErrTypeState indicates the call is not valid in the radio's current state
	ErrTypeState
	// ErrTypeTimeout indicates the stack did not answer in time
	ErrTypeTimeout
	// ErrTypeUnknown indicates an unexpected failure
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNotInitialized:
		return "Not Initialized"
	case ErrTypeBus:
		return "Bus Error"
	case ErrTypeInvalidArgument:
		return "Invalid Argument"
	case ErrTypeState:
		return "Invalid State"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DriverError is returned by Driver implementations.
type DriverError struct {
	Type      ErrorType // Category of error
	Op        string    // Driver call that failed ("connect", "scan_start", ...)
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether repeating the call may succeed
}

// Error implements the error interface
func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Op, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DriverError) Unwrap() error {
	return e.Err
}

// NewNotInitializedError creates an error for calls outside Init/Deinit
func NewNotInitializedError(op string) *DriverError {
	return &DriverError{
		Type:    ErrTypeNotInitialized,
		Op:      op,
		Message: "driver not initialized",
	}
}

// NewStateError creates an error for a call the radio cannot take right now
func NewStateError(op, message string) *DriverError {
	return &DriverError{
		Type:    ErrTypeState,
		Op:      op,
		Message: message,
	}
}

// NewInvalidArgumentError creates an error for rejected arguments
func NewInvalidArgumentError(op, message string) *DriverError {
	return &DriverError{
		Type:    ErrTypeInvalidArgument,
		Op:      op,
		Message: message,
	}
}

// NewBusError wraps a transport failure. Bus errors are retryable.
func NewBusError(op string, err error) *DriverError {
	return &DriverError{
		Type:      ErrTypeBus,
		Op:        op,
		Message:   "bus call failed",
		Err:       err,
		Retryable: true,
	}
}

// IsDriverError checks if err carries a DriverError of the given type
func IsDriverError(err error, t ErrorType) bool {
	var drvErr *DriverError
	if errors.As(err, &drvErr) {
		return drvErr.Type == t
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var drvErr *DriverError
	if errors.As(err, &drvErr) {
		return drvErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}
