package models

// ErrorCode is the machine-readable failure class surfaced per recipient.
// Validation and payment use distinct subsets; TIMEOUT and NETWORK_ERROR
// appear in both.
type ErrorCode string

// Validation error codes.
const (
	ErrInvalidFormat        ErrorCode = "INVALID_FORMAT"
	ErrAccountNotFound      ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrLnurlUnreachable     ErrorCode = "LNURL_UNREACHABLE"
	ErrLnurlInvalidResponse ErrorCode = "LNURL_INVALID_RESPONSE"
	ErrAmountBelowMin       ErrorCode = "AMOUNT_BELOW_MIN"
	ErrAmountAboveMax       ErrorCode = "AMOUNT_ABOVE_MAX"
)

// Payment error codes.
const (
	ErrInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrNoRoute             ErrorCode = "NO_ROUTE"
	ErrInvoiceExpired      ErrorCode = "INVOICE_EXPIRED"
	ErrPaymentFailed       ErrorCode = "PAYMENT_FAILED"
)

// Shared error codes.
const (
	ErrTimeout      ErrorCode = "TIMEOUT"
	ErrNetworkError ErrorCode = "NETWORK_ERROR"
)

// NewRecipientError builds a RecipientError pointer for embedding in results.
func NewRecipientError(code ErrorCode, message string) *RecipientError {
	return &RecipientError{Code: code, Message: message}
}
