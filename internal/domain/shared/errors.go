package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Lifecycle error codes shared between the order domain and the HTTP layer
const (
	CodeInvalidTransition        = "INVALID_TRANSITION"
	CodeMissingTrackingNumber    = "MISSING_TRACKING_NUMBER"
	CodeAlreadyInState           = "ALREADY_IN_STATE"
	CodeConcurrentModification   = "CONCURRENT_MODIFICATION"
	CodeInvalidPaymentTransition = "INVALID_PAYMENT_TRANSITION"
)

// NewInvalidTransitionError creates an InvalidTransition error carrying the
// attempted from/to pair
func NewInvalidTransitionError(from, to fmt.Stringer) *DomainError {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Cannot transition order from %s to %s", from, to))
}

// NewInvalidPaymentTransitionError creates an InvalidPaymentTransition error
// carrying the attempted from/to pair
func NewInvalidPaymentTransitionError(from, to fmt.Stringer) *DomainError {
	return NewDomainError(CodeInvalidPaymentTransition,
		fmt.Sprintf("Cannot transition payment from %s to %s", from, to))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrMissingTracking     = NewDomainError(CodeMissingTrackingNumber, "Tracking number is required to ship an order")
	ErrConcurrentUpdate    = NewDomainError(CodeConcurrentModification, "The order has been modified by another actor")
	ErrTransitionApplied   = NewDomainError(CodeAlreadyInState, "The order is already in the requested status")
	ErrOrderNumberConflict = NewDomainError("ALREADY_EXISTS", "Order number already exists")
)
