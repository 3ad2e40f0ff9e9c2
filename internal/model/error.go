package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInvalidPrice       = "INVALID_PRICE"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInvalidImage       = "INVALID_IMAGE"
	ErrCodeImageTooLarge      = "IMAGE_TOO_LARGE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

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

// Common domain errors
var (
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidCategory    = NewDomainError(ErrCodeInvalidCategory, "Category must be structural-materials, steel-pipes or sheets-plates")
	ErrInvalidStatus      = NewDomainError(ErrCodeInvalidStatus, "Status must be requested, approved or rejected")
	ErrInvalidPrice       = NewDomainError(ErrCodeInvalidPrice, "Price must not be negative")
	ErrInvalidCredentials = NewDomainError(ErrCodeInvalidCredentials, "Invalid email or password")
	ErrEmailTaken         = NewDomainError(ErrCodeEmailTaken, "Email is already in use")
	ErrUnauthenticated    = NewDomainError(ErrCodeUnauthorised, "You must be logged in")
	ErrForbidden          = NewDomainError(ErrCodeForbidden, "Admin access required")
)
