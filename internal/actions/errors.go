package actions

import "errors"

// Validation errors.
var (
	// ErrUnknownAction is returned when the action discriminator is missing
	// or names no registered kind.
	ErrUnknownAction = errors.New("unknown or missing action")

	// ErrMissingRequiredField is returned when a required field is absent
	// or an array that must carry items is empty.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidFieldType is returned when a field has the wrong type or
	// does not match its pattern.
	ErrInvalidFieldType = errors.New("invalid field type")

	// ErrSchemaAlreadyRegistered is returned when registering a duplicate kind.
	ErrSchemaAlreadyRegistered = errors.New("action schema already registered")

	// ErrInvalidSchema is returned for malformed schema definitions.
	ErrInvalidSchema = errors.New("invalid action schema")
)
