package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrBusy     = errors.New("request already in flight")
	ErrTooLarge = errors.New("payload too large")
)
