package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidPropertyValue is returned when a property value is not positive.
	ErrInvalidPropertyValue = errors.New("property value must be greater than zero")

	// ErrInvalidDownPaymentPct is returned when a down-payment percentage is outside [0,100].
	ErrInvalidDownPaymentPct = errors.New("down payment percentage must be between 0 and 100")

	// ErrInvalidTermYears is returned when a contract term is outside [1,30].
	ErrInvalidTermYears = errors.New("contract years must be between 1 and 30")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPassword is returned when a password doesn't meet requirements.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrEmptyUpdate is returned when an update carries no fields.
	ErrEmptyUpdate = errors.New("update has no fields")

	// ErrInvalidID is returned when an identifier is not positive.
	ErrInvalidID = errors.New("invalid ID")
)
