package errors

import "fmt"

const (
	ErrNotFound            = "NOT_FOUND"
	ErrInvalidTransition   = "INVALID_TRANSITION"
	ErrAlreadyClaimed      = "ALREADY_CLAIMED"
	ErrUnauthorized        = "UNAUTHORIZED"
	ErrForbidden           = "FORBIDDEN"
	ErrConflict            = "CONFLICT"
	ErrValidation          = "VALIDATION"
	ErrOutOfArea           = "OUT_OF_AREA"
	ErrPermissionDenied    = "PERMISSION_DENIED"
	ErrPositionUnavailable = "POSITION_UNAVAILABLE"
	ErrTimeout             = "TIMEOUT"
	ErrNetwork             = "NETWORK"
	ErrInternal            = "INTERNAL"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func Wrap(code, msg string, err error) *DomainError {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// --- Generic ---

func NewNotFound(entity, id string) *DomainError {
	return &DomainError{Code: ErrNotFound, Message: fmt.Sprintf("%s with id %s not found", entity, id)}
}

func NewInvalidTransition(from, to string) *DomainError {
	return &DomainError{Code: ErrInvalidTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

func NewUnauthorized(msg string) *DomainError {
	return &DomainError{Code: ErrUnauthorized, Message: msg}
}

func NewForbidden(msg string) *DomainError {
	return &DomainError{Code: ErrForbidden, Message: msg}
}

func NewConflict(msg string) *DomainError {
	return &DomainError{Code: ErrConflict, Message: msg}
}

func NewValidation(msg string) *DomainError {
	return &DomainError{Code: ErrValidation, Message: msg}
}

func NewOutOfArea(msg string) *DomainError {
	return &DomainError{Code: ErrOutOfArea, Message: msg}
}

func NewNetwork(msg string, err error) *DomainError {
	return &DomainError{Code: ErrNetwork, Message: msg, Err: err}
}

func NewInternal(msg string, err error) *DomainError {
	return &DomainError{Code: ErrInternal, Message: msg, Err: err}
}

// --- Order ---

func OrderNotFound(id string) *DomainError {
	return NewNotFound("order", id)
}

func OrderAlreadyClaimed(id string) *DomainError {
	return &DomainError{Code: ErrAlreadyClaimed, Message: fmt.Sprintf("order %s is already claimed by another driver", id)}
}

func OrderInvalidTransition(from, to string) *DomainError {
	return NewInvalidTransition(from, to)
}

func PaymentMethodRequired() *DomainError {
	return &DomainError{Code: ErrValidation, Message: "a payment method is required to mark the order delivered"}
}

func OrderNotAssignedToDriver() *DomainError {
	return NewForbidden("order is not assigned to this driver")
}

// --- Driver / tracking ---

func DriverNotFound(id string) *DomainError {
	return NewNotFound("driver", id)
}

func LocationPermissionDenied() *DomainError {
	return &DomainError{Code: ErrPermissionDenied, Message: "location access was denied; enable location permissions and restart tracking"}
}

func LocationUnavailable(err error) *DomainError {
	return &DomainError{Code: ErrPositionUnavailable, Message: "a position fix could not be acquired", Err: err}
}

func LocationTimeout() *DomainError {
	return &DomainError{Code: ErrTimeout, Message: "timed out waiting for a position fix"}
}
