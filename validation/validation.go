// Package validation validates request payloads.
//
// It uses the validator library to enforce rules (required fields,
// email formats, UUIDs) declared in struct tags, and converts
// validation failures into the field-level error format clients
// understand.
package validation
