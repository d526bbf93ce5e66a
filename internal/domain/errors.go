package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCorruptState  = errors.New("corrupt state")
	ErrConfiguration = errors.New("configuration error")
)
