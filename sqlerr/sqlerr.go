// Package sqlerr classifies PostgreSQL errors.
//
// It maps raw driver errors (pgconn SQLSTATE codes) into an
// application-level taxonomy and converts them into errs values that
// are safe and useful to return to API clients.
package sqlerr

import "fmt"

// Code is the application-level category of a database error.
type Code int

const (
	// Other covers every error not mapped to a specific category.
	Other Code = iota
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	CheckViolation
)

// Severity mirrors the PostgreSQL error severity field.
type Severity int

const (
	SeverityError Severity = iota
	SeverityFatal
	SeverityPanic
	SeverityWarning
)

// Error is a structured database error carrying the Postgres metadata
// needed to build user-facing messages and machine codes.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string // original SQLSTATE
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlerr: %s (SQLSTATE %s)", e.Message, e.DatabaseCode)
}

// Unwrap exposes the original driver error for errors.As chains.
func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a SQLSTATE code to its application category.
//
// Class 23 holds the integrity constraint violations we care about;
// everything else is Other.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	default:
		return Other
	}
}

// MapSeverity maps the Postgres severity string to a Severity value.
func MapSeverity(severity string) Severity {
	switch severity {
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	default:
		return SeverityError
	}
}
