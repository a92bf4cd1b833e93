package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/servicekit-go/servicekit/errs"
)

// Validatable is implemented by request payload types that know how to
// validate themselves.
//
// Typical pattern: define a request struct with validator tags
// (`validate:"required,email"`), implement Validate() error running
// validator.Struct(req), and return validator.ValidationErrors (or
// CustomValidationErrors for rules tags cannot express).
type Validatable interface {
	Validate() error
}

// CustomValidationError is a single validation issue for a specific
// field, used for rules that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that
// satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds the request into payload and validates it.
// Binding or validation failures become a 400 *errs.HTTPError with
// field-level errors. payload must be a pointer to a struct, otherwise
// Echo's binder fails.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err), false, nil, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

// bindErrorMessage pulls the human part out of Echo's bind error,
// which formats as "code=400, message=..., internal=...". Falls back
// to a generic message when the format does not match.
func bindErrorMessage(err error) string {
	if _, msg, found := strings.Cut(err.Error(), "message="); found {
		msg, _, _ = strings.Cut(msg, ", internal=")
		return msg
	}
	return "Malformed request body"
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		if customErrors, ok := err.(CustomValidationErrors); ok {
			for _, err := range customErrors {
				fieldErrors = append(fieldErrors, errs.FieldError{
					Field: err.Field,
					Error: err.Message,
				})
			}
			return "Validation failed", fieldErrors
		}

		// Validate() returned something we cannot itemize.
		return err.Error(), nil
	}

	for _, err := range validationErrors {
		field := strings.ToLower(err.Field())
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min":
			// min is length for strings, value for numbers.
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "email":
			msg = "must be a valid email address"

		case "e164":
			msg = "must be a valid phone number with country code"

		case "url":
			msg = "must be a valid URL"

		case "uuid":
			msg = "must be a valid UUID"

		case "dive":
			msg = "some items are invalid"

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, err.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}

// uuidRegex matches the standard textual UUID form:
// xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidUUID reports whether s matches UUID format. Format only; it
// does not check version or variant bits.
func IsValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}
