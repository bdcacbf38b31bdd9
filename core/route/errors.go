package route

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPattern     = errors.New("invalid route pattern")
	ErrInvalidPlaceholder = errors.New("invalid route placeholder")
	ErrDuplicateParam     = errors.New("duplicate parameter name")
	ErrPathCaptureNotLast = errors.New("path capture must be the last segment")
	ErrUnknownConverter   = errors.New("unknown converter")
	ErrNoMethods          = errors.New("route has no methods")
	ErrInvalidMethod      = errors.New("invalid http method")
	ErrNilHandler         = errors.New("nil route handler")
)

// CompileError reports a pattern that could not be compiled into a Route.
// It is a startup-time failure and never reaches a live request.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile route %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

func compileErr(pattern string, err error, format string, args ...any) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return &CompileError{Pattern: pattern, Err: err}
}
