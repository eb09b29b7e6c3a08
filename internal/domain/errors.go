package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidActivityType = errors.New("invalid activity type")
	ErrInvalidFieldKey     = errors.New("invalid field key")
	ErrDuplicateFieldKey   = errors.New("duplicate field key")
	ErrEmptyComponents     = errors.New("activity type has no components")
	ErrEmptyForm           = errors.New("form has no entries")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrInvalidTitle        = errors.New("invalid title")
)
