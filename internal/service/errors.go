package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid e-mail or password")
	ErrUnauthenticated    = errors.New("session expired or invalid")
	ErrForbidden          = errors.New("operation not allowed")
	ErrTooManyAttempts    = errors.New("too many login attempts, try again later")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrMailUnavailable    = errors.New("password recovery mail is not configured")
	ErrInvalidInput       = errors.New("invalid input")

	ErrClosed      = errors.New("the gym is closed at this time")
	ErrUnknownSlot = errors.New("station does not exist at this hour")
	ErrSlotInPast  = errors.New("this hour has already passed")

	ErrNotEligible   = errors.New("booking is not eligible for review")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	ErrAssistantDisabled = errors.New("assistant is not configured")
	ErrNoData            = errors.New("no bookings in the selected period")

	// ErrUpstream wraps failures of the mail server or the assistant model.
	ErrUpstream = errors.New("external service failed")
)
