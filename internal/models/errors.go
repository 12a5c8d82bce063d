package models

import (
	"errors"
)

var (
	ErrInvalidInput  = errors.New("models: invalid input")
	ErrMissingSecret = errors.New("models: app store shared secret is not configured")
	ErrUnauthorized  = errors.New("models: unauthorized")
)
