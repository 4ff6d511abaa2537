package finnhub

import "fmt"

// Stable machine-readable error codes surfaced to callers per symbol.
const (
	CodeNoAPIKey    = "NO_API_KEY"
	CodeInvalidKey  = "INVALID_KEY"
	CodeRateLimit   = "RATE_LIMIT"
	CodeServerError = "SERVER_ERROR"
	CodeNetwork     = "NETWORK"
	CodeHTTPError   = "HTTP_ERROR"
)

// Error is a classified provider failure. Status is the HTTP status when one
// was observed, zero otherwise.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the failure is worth another attempt within the
// configured budget. Key problems and unexpected statuses are final.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeRateLimit, CodeServerError, CodeNetwork:
		return true
	}
	return false
}

func noAPIKeyError() *Error {
	return &Error{Code: CodeNoAPIKey, Message: "missing Finnhub API key"}
}

func invalidKeyError() *Error {
	return &Error{Code: CodeInvalidKey, Status: 401, Message: "invalid API key"}
}

func rateLimitError() *Error {
	return &Error{Code: CodeRateLimit, Status: 429, Message: "rate limited"}
}

func serverError(status int) *Error {
	return &Error{Code: CodeServerError, Status: status, Message: fmt.Sprintf("server error %d", status)}
}

func networkError(err error) *Error {
	return &Error{Code: CodeNetwork, Message: fmt.Sprintf("network error: %v", err)}
}

func httpError(status int) *Error {
	return &Error{Code: CodeHTTPError, Status: status, Message: fmt.Sprintf("HTTP error %d", status)}
}
