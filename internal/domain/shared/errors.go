package shared

// DomainError represents a domain-level error. Business rejections are
// returned as values of this type; the Code identifies the rule that fired
// and the Message names the offending entity so callers can surface it.
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

// Error codes for business rejections raised by the storage and billing
// contexts. The constants live here so the HTTP layer can map them to
// status codes without importing every bounded context.
const (
	CodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	CodeInsufficientCapacity = "INSUFFICIENT_CAPACITY"
	CodeExceedsStock         = "EXCEEDS_STOCK"
	CodeOverPayment          = "OVER_PAYMENT"
	CodeNothingToBill        = "NOTHING_TO_BILL"
	CodeExcessPayment        = "EXCESS_PAYMENT"
	CodeNotFound             = "NOT_FOUND"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// IsCode reports whether err is a DomainError carrying the given code.
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
