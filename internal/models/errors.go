package models

import "errors"

// Stores translate driver errors into these so services stay storage agnostic.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate key")
)
