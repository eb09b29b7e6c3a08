package app

import "errors"

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSessionExpired      = errors.New("session expired")
	ErrUnknownActivityType = errors.New("unknown activity type")
)
