package model

import "errors"

// Per-target failures. These accumulate during a pass.
var (
	ErrFileNotFound  = errors.New("File not found")
	ErrPathNotFound  = errors.New("Path not found")
	ErrUnknownTarget = errors.New("Unknown target")
	ErrTargetChanged = errors.New("Target changed")
)

// Fatal failures. These abort a pass.
var (
	ErrIncompatibleFormat = errors.New("incompatible hash file format")
	ErrInconsistent       = errors.New("gitref hash file is out of date")
)

// ResolveError records why a single target failed to resolve.
type ResolveError struct {
	Target string
	Kind   error
	Reason string
}

func (e *ResolveError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Kind.Error()
}

func (e *ResolveError) Unwrap() error {
	return e.Kind
}

// KindName returns a short stable name for the error kind.
func (e *ResolveError) KindName() string {
	return KindName(e.Kind)
}

// KindName maps a failure sentinel to the short name used in reports.
func KindName(kind error) string {
	switch {
	case errors.Is(kind, ErrFileNotFound):
		return "file-not-found"
	case errors.Is(kind, ErrPathNotFound):
		return "path-not-found"
	case errors.Is(kind, ErrUnknownTarget):
		return "unknown-target"
	case errors.Is(kind, ErrTargetChanged):
		return "target-changed"
	default:
		return "error"
	}
}
