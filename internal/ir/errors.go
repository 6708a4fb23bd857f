// File path: internal/ir/errors.go
package ir

import (
	"errors"
	"fmt"
)

// ParseErrorKind distinguishes recoverable parse problems.
type ParseErrorKind string

const (
	ParseMalformed           ParseErrorKind = "malformed"
	ParseUnresolvedReference ParseErrorKind = "unresolved-reference"
	ParseCyclic              ParseErrorKind = "cyclic"
)

// ErrCyclicSchema marks schemas whose types compose themselves.
var ErrCyclicSchema = errors.New("cyclic schema composition")

// ParseError reports a failure to read a schema or process document.
type ParseError struct {
	Kind ParseErrorKind
	Path string
	Ref  string
	Err  error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s", e.Kind)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" (ref %q)", e.Ref)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Malformed wraps err as a malformed-document ParseError.
func Malformed(path string, err error) *ParseError {
	return &ParseError{Kind: ParseMalformed, Path: path, Err: err}
}

// Unresolved builds a ParseError for a dangling type reference.
func Unresolved(path, ref string) *ParseError {
	return &ParseError{Kind: ParseUnresolvedReference, Path: path, Ref: ref}
}

// IsParseKind reports whether err carries a ParseError of the given kind.
func IsParseKind(err error, kind ParseErrorKind) bool {
	var perr *ParseError
	return errors.As(err, &perr) && perr.Kind == kind
}

// RenderError is fatal to the process unit that produced it.
type RenderError struct {
	Process string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Process, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ValidationFailure means the validator could not run. A build that ran and
// failed is an outcome, not a ValidationFailure.
type ValidationFailure struct {
	OutputDir string
	Err       error
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validate %s: %v", e.OutputDir, e.Err)
}

func (e *ValidationFailure) Unwrap() error { return e.Err }

// PackagingFailure means no archive could be produced.
type PackagingFailure struct {
	OutputDir string
	Err       error
}

func (e *PackagingFailure) Error() string {
	return fmt.Sprintf("package %s: %v", e.OutputDir, e.Err)
}

func (e *PackagingFailure) Unwrap() error { return e.Err }
