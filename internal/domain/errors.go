package domain

import "errors"

var (
	// ErrTypeNotFound signals an unknown record type.
	ErrTypeNotFound = errors.New("record type not found")
	// ErrInvalidSchema signals a broken field schema configuration.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrRecordNotFound signals a missing record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStoreUnavailable signals an unreachable backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
