package patch

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrCableNotFound   = errors.New("cable not found")
	ErrPortNotFound    = errors.New("port not found")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrDuplicatePortID = errors.New("duplicate port id on device")
)

// StoreError provides structured error information for store operations.
type StoreError struct {
	Op     string // Operation that failed (e.g., "AddDevice", "DeleteCable")
	Entity string // Entity type ("device", "cable", "port")
	ID     string // Entity ID (if applicable)
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

func storeErr(op, entity, id string, cause error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Cause: cause}
}
