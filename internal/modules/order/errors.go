package order

import "errors"

var (
	ErrNotFound   = errors.New("order not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)
