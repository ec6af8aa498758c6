// Package errs defines the error kinds surfaced by the catalog.
//
// Callers branch on the Kind rather than on message text:
//
//	entry, err := cat.Create(ctx, req)
//	switch errs.KindOf(err) {
//	case errs.AlreadyExists, errs.DuplicateContent:
//	    // expected during bulk imports
//	case errs.Unexpected:
//	    // a bug, never retried
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// Other is any error that did not originate from this package.
	Other Kind = iota
	// BadInput means the caller supplied malformed or contradictory input.
	BadInput
	// NotFound means a referenced record does not exist.
	NotFound
	// AlreadyExists means the same file was already ingested at the same path.
	AlreadyExists
	// DuplicateContent means identical bytes were ingested under another path.
	DuplicateContent
	// InvalidFile means the probe or extractor rejected the file as corrupt or unsupported.
	InvalidFile
	// Subprocess means an external tool exited unsuccessfully for an unrecognized reason.
	Subprocess
	// Unexpected means an internal invariant was violated.
	Unexpected
)

// String returns the string representation of a kind
func (k Kind) String() string {
	switch k {
	case BadInput:
		return "bad_input"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case DuplicateContent:
		return "duplicate_content"
	case InvalidFile:
		return "invalid_file"
	case Subprocess:
		return "subprocess"
	case Unexpected:
		return "unexpected"
	default:
		return "other"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// ExistingPath is set on DuplicateContent errors.
	ExistingPath string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// BadInputf returns a BadInput error.
func BadInputf(format string, args ...interface{}) error {
	return newf(BadInput, format, args...)
}

// NotFoundf returns a NotFound error.
func NotFoundf(format string, args ...interface{}) error {
	return newf(NotFound, format, args...)
}

// AlreadyExistsf returns an AlreadyExists error.
func AlreadyExistsf(format string, args ...interface{}) error {
	return newf(AlreadyExists, format, args...)
}

// Duplicate returns a DuplicateContent error naming the path already holding the content.
func Duplicate(checksum, existingPath string) error {
	e := newf(DuplicateContent, "checksum %s already exists at %s", checksum, existingPath)
	e.ExistingPath = existingPath
	return e
}

// Unexpectedf returns an Unexpected error.
func Unexpectedf(format string, args ...interface{}) error {
	return newf(Unexpected, format, args...)
}

// Wrap classifies err under kind, keeping it in the chain.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	e := newf(kind, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Expected reports whether err is a per-item outcome a batch caller should
// record and move past, rather than abort on.
func Expected(err error) bool {
	switch KindOf(err) {
	case AlreadyExists, DuplicateContent, InvalidFile, NotFound, BadInput:
		return true
	}
	return false
}
