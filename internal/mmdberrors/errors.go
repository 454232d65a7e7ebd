// Package mmdberrors defines the error taxonomy shared by the decoder, the
// trie navigator and the layout scanner.
package mmdberrors

import (
	"fmt"
	"reflect"
)

// Kind classifies why a database could not be read. It does not classify
// "not found" — that is represented by the absence of a value, never by an
// error.
type Kind int

const (
	// KindOther covers errors that do not fit one of the named kinds below.
	KindOther Kind = iota
	// KindIO is an underlying byte source failure or short read.
	KindIO
	// KindNotAnMmdb means the metadata marker was not found in the file.
	KindNotAnMmdb
	// KindTruncated means a read would cross a section or file boundary.
	KindTruncated
	// KindBadType means a control byte resolved to an unknown type code.
	KindBadType
	// KindBadUtf8 means a string payload was not valid UTF-8.
	KindBadUtf8
	// KindBadPointer means a pointer resolved outside the data section, or
	// a pointer resolved to another pointer (a chain of length > 1).
	KindBadPointer
	// KindBadLength means an integer payload exceeded its declared width,
	// or a Double/Float payload had a non-conforming length.
	KindBadLength
	// KindVersionMismatch means an IPv6 query was made against an
	// IPv4-only database.
	KindVersionMismatch
	// KindMalformed means trie traversal exhausted the address bits before
	// terminating, or the metadata value was not a map / lacked required
	// keys.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNotAnMmdb:
		return "not_an_mmdb"
	case KindTruncated:
		return "truncated"
	case KindBadType:
		return "bad_type"
	case KindBadUtf8:
		return "bad_utf8"
	case KindBadPointer:
		return "bad_pointer"
	case KindBadLength:
		return "bad_length"
	case KindVersionMismatch:
		return "version_mismatch"
	case KindMalformed:
		return "malformed"
	default:
		return "other"
	}
}

// InvalidDatabaseError reports that the database contains data that cannot
// be parsed according to the MMDB format.
type InvalidDatabaseError struct {
	Kind    Kind
	message string
}

// New creates an InvalidDatabaseError of the given kind.
func New(kind Kind, format string, args ...any) InvalidDatabaseError {
	return InvalidDatabaseError{Kind: kind, message: fmt.Sprintf(format, args...)}
}

// NewOffsetError is the common truncation case: a read past the end of the
// buffer.
func NewOffsetError() InvalidDatabaseError {
	return InvalidDatabaseError{Kind: KindTruncated, message: "unexpected end of database"}
}

func (e InvalidDatabaseError) Error() string {
	return e.message
}

// Is lets callers write errors.Is(err, mmdberrors.InvalidDatabaseError{Kind: k}).
func (e InvalidDatabaseError) Is(target error) bool {
	t, ok := target.(InvalidDatabaseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// VersionMismatchError is returned when a query address's IP version is
// incompatible with the database's declared ip_version.
type VersionMismatchError struct {
	message string
}

func NewVersionMismatchError(format string, args ...any) VersionMismatchError {
	return VersionMismatchError{message: fmt.Sprintf(format, args...)}
}

func (e VersionMismatchError) Error() string { return e.message }

// Kind reports KindVersionMismatch so callers can branch on the shared Kind
// type regardless of the concrete error type returned.
func (VersionMismatchError) Kind() Kind { return KindVersionMismatch }

// UnmarshalTypeError is returned when the value in the database cannot be
// assigned to the specified data type during the convenience reflective
// decode (mmdbdata / Value.Unmarshal). It is never produced by the core
// Value-tree decode path.
type UnmarshalTypeError struct {
	Type  reflect.Type
	Value string
}

func NewUnmarshalTypeStrError(value string, rType reflect.Type) UnmarshalTypeError {
	return UnmarshalTypeError{
		Type:  rType,
		Value: value,
	}
}

func NewUnmarshalTypeError(value any, rType reflect.Type) UnmarshalTypeError {
	return NewUnmarshalTypeStrError(fmt.Sprintf("%v (%T)", value, value), rType)
}

func (e UnmarshalTypeError) Error() string {
	return fmt.Sprintf("mmdbreader: cannot unmarshal %s into type %s", e.Value, e.Type)
}
