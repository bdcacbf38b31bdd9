package router

import (
	"errors"
	"fmt"
)

var (
	// Build errors
	ErrSealed               = errors.New("router is sealed: registration after build")
	ErrDuplicateRoute       = errors.New("duplicate route")
	ErrDuplicateHook        = errors.New("duplicate hook name")
	ErrUnknownHook          = errors.New("unknown hook name")
	ErrNilHook              = errors.New("nil hook function")
	ErrInvalidHookName      = errors.New("invalid hook name")
	ErrInvalidPhase         = errors.New("invalid hook phase")
	ErrInvalidStatus        = errors.New("error handler status must be within 400-599")
	ErrNilHandler           = errors.New("nil error handler")
	ErrNilBlueprint         = errors.New("nil blueprint")
	ErrInvalidBlueprintName = errors.New("invalid blueprint name")
	ErrDuplicateBlueprint   = errors.New("duplicate blueprint name")
	ErrBlueprintRegistered  = errors.New("blueprint already registered")

	// Dispatch errors
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrHandlerTimeout   = errors.New("handler timed out")
)

// PanicError is reported to error handlers when a hook or handler panics.
// It exposes the original panic value and the stack captured at the panic point.
type PanicError interface {
	error
	Value() any
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to reach a panicked error value.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
