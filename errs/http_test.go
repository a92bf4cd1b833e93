package errs_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/servicekit-go/servicekit/errs"
)

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", errs.MakeUpperCaseWithUnderscores("Bad Request"))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errs.MakeUpperCaseWithUnderscores("Internal Server Error"))
	assert.Equal(t, "OK", errs.MakeUpperCaseWithUnderscores("OK"))
}

func TestHTTPErrorIs(t *testing.T) {
	err := errs.NewNotFoundError("User not found", true, nil)

	assert.True(t, errors.Is(err, &errs.HTTPError{}))
	assert.False(t, errors.Is(errors.New("plain"), &errs.HTTPError{}))
}

func TestWithMessage(t *testing.T) {
	original := errs.NewBadRequestError("original message", true, nil, nil, nil)

	replaced := original.WithMessage("replaced message")

	assert.Equal(t, "replaced message", replaced.Message)
	assert.Equal(t, original.Code, replaced.Code)
	assert.Equal(t, original.Status, replaced.Status)
	assert.Equal(t, original.Override, replaced.Override)

	// The original must not be mutated.
	assert.Equal(t, "original message", original.Message)
}

func TestConstructors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		err := errs.NewUnauthorizedError("Token expired", false)
		assert.Equal(t, http.StatusUnauthorized, err.Status)
		assert.Equal(t, "UNAUTHORIZED", err.Code)
		assert.Equal(t, "Token expired", err.Error())
	})

	t.Run("forbidden", func(t *testing.T) {
		err := errs.NewForbiddenError("No access", true)
		assert.Equal(t, http.StatusForbidden, err.Status)
		assert.Equal(t, "FORBIDDEN", err.Code)
		assert.True(t, err.Override)
	})

	t.Run("bad request with custom code", func(t *testing.T) {
		code := "USER_ALREADY_EXISTS"
		err := errs.NewBadRequestError("A user with this email already exists", true, &code, nil, nil)
		assert.Equal(t, http.StatusBadRequest, err.Status)
		assert.Equal(t, "USER_ALREADY_EXISTS", err.Code)
	})

	t.Run("bad request with field errors", func(t *testing.T) {
		fields := []errs.FieldError{{Field: "email", Error: "must be a valid email address"}}
		err := errs.NewBadRequestError("Validation failed", true, nil, fields, nil)
		assert.Equal(t, "BAD_REQUEST", err.Code)
		assert.Equal(t, fields, err.Errors)
	})

	t.Run("not found", func(t *testing.T) {
		err := errs.NewNotFoundError("Resource not found", false, nil)
		assert.Equal(t, http.StatusNotFound, err.Status)
		assert.Equal(t, "NOT_FOUND", err.Code)
	})

	t.Run("internal server error", func(t *testing.T) {
		err := errs.NewInternalServerError()
		assert.Equal(t, http.StatusInternalServerError, err.Status)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", err.Code)
		assert.False(t, err.Override)
	})
}

func TestValidationError(t *testing.T) {
	err := errs.ValidationError(errors.New("email is malformed"))

	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "Validation failed: email is malformed", err.Message)
}
