package store

import "errors"

var (
	ErrNotFound        = errors.New("item not found")
	ErrEmptyIdentifier = errors.New("identifier must not be empty")
)
