// Package failure tags errors with the pipeline stage that produced them.
// Only KindInput and KindConfig abort a run; every other kind is logged and
// absorbed where it happens.
package failure

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInput      Kind = "input"
	KindConfig     Kind = "config"
	KindScan       Kind = "scan"
	KindValidation Kind = "validation"
	KindDeletion   Kind = "deletion"
	KindArchive    Kind = "archive"
	KindReport     Kind = "report"
	KindUnknown    Kind = "unknown"
)

// Error carries the stage kind, the operation and the path it concerned.
type Error struct {
	Kind  Kind
	Op    string
	Path  string
	Cause error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s:%s]", e.Kind, e.Op)
	if e.Path != "" {
		prefix += " " + e.Path
	}
	if e.Cause != nil {
		return prefix + ": " + e.Cause.Error()
	}
	return prefix
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an error from a plain message.
func New(kind Kind, op, path, message string) *Error {
	return &Error{
		Kind:  kind,
		Op:    op,
		Path:  path,
		Cause: errors.New(message),
	}
}

// Wrap tags err with kind. A nil err stays nil, and an already tagged error
// keeps its original kind.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	return &Error{
		Kind:  kind,
		Op:    op,
		Path:  path,
		Cause: err,
	}
}

// KindOf reports the kind of the first tagged error in the chain.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

// IsKind checks whether the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err must stop the run before any work begins.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindInput, KindConfig:
		return true
	}
	return false
}
