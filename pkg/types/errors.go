package types

import "errors"

var (
	// Lock errors
	ErrInvalidRelease = errors.New("invalid release: lock unknown, free, or not held by caller")
	ErrEmptyClientID  = errors.New("client id is required")

	// Callback errors
	ErrCallbackBind = errors.New("cannot bind callback handle")
)
