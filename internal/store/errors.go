package store

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	ErrNotFound            = errors.New("not found")
)
