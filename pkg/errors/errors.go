package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")

	ErrParticipantUnavailable   = errors.New("participant unavailable")
	ErrIncompatibleShape        = errors.New("incompatible parameter shape")
	ErrInsufficientParticipants = errors.New("insufficient participants")
	ErrInsufficientData         = errors.New("insufficient data")
	ErrRetrainingFailed         = errors.New("retraining failed")
)
