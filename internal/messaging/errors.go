package messaging

import "fmt"

// Stable error codes surfaced to audit rows and logs. The caller cannot
// distinguish failure categories except through these codes.
const (
	CodeConfigMissing    = "CONFIG_MISSING"
	CodeProviderRejected = "PROVIDER_REJECTED"
	CodeNotSupported     = "NOT_SUPPORTED"
	CodeSendFailed       = "SEND_FAILED"
)

// Error is the uniform failure shape for every provider: a stable code, a
// human message, optional free-form details for logging, and the HTTP
// status when the failure was transport-level.
type Error struct {
	Code       string
	Message    string
	Details    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigMissing reports absent provider configuration.
func NewConfigMissing(message, details string) *Error {
	return &Error{Code: CodeConfigMissing, Message: message, Details: details}
}

// NewHTTPError reports a transport-level failure with its status code.
// The code is HTTP_<status> so audit rows stay greppable.
func NewHTTPError(status int, message, details string) *Error {
	return &Error{
		Code:       fmt.Sprintf("HTTP_%d", status),
		Message:    message,
		Details:    details,
		StatusCode: status,
	}
}

// NewRejected reports a business-level rejection embedded in a 2xx body.
func NewRejected(message, details string) *Error {
	return &Error{Code: CodeProviderRejected, Message: message, Details: details}
}

// NewNotSupported reports an operation the provider deliberately does not
// implement; callers must not retry with a substitute.
func NewNotSupported(message string) *Error {
	return &Error{Code: CodeNotSupported, Message: message}
}

// CodeOf extracts the stable code from any error, defaulting to SEND_FAILED.
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok && e.Code != "" {
		return e.Code
	}
	return CodeSendFailed
}

// DetailsOf extracts logging details from any error.
func DetailsOf(err error) string {
	if e, ok := err.(*Error); ok && e.Details != "" {
		return e.Details
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
