package errs

import "strings"

// FieldError represents a field-level validation error.
//
//	{ "field": "email", "error": "must be a valid email address" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client to redirect; Value holds the target.
	ActionTypeRedirect ActionType = "redirect"
)

// Action describes an optional instruction for the client, typically
// used in auth flows ("redirect to login").
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the error type serialized into every API error response.
//
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST")
//   - Message: human-friendly message
//   - Status: HTTP status code
//   - Override: lets middleware decide whether clients may show Message verbatim
//   - Errors: per-field validation errors
//   - Action: optional client instruction
type HTTPError struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors"`
	Action   *Action      `json:"action"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError. It matches on type
// only, not on Code or Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of the error with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
	}
}

// MakeUpperCaseWithUnderscores converts a string into
// UPPER_CASE_WITH_UNDERSCORES, used to derive stable error codes from
// HTTP status text ("Bad Request" -> "BAD_REQUEST").
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
