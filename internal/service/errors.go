package service

import (
	"fmt"
)

// ValidationError is a caller mistake. Msg is safe to show to the client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError carries the record that already holds the unique value.
type ConflictError struct {
	Msg      string
	Existing interface{}
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
