package database

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDuplicateEmail   = errors.New("e-mail already registered")
	ErrAlreadyReviewed  = errors.New("booking already reviewed")
)
