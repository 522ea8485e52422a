package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoVisit      = errors.New("no matching posts")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)
