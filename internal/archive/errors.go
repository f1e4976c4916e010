package archive

import (
	"errors"
	"strings"

	"github.com/jmcdonald/minizip/internal/codec"
	"github.com/jmcdonald/minizip/internal/zipfmt"
)

// Kind classifies an archive failure. Kind implements error so callers can
// test with errors.Is(err, archive.MemberNotFound).
type Kind int

const (
	Unknown Kind = iota
	InputNotFound
	InputUnreadable
	OutOfMemory
	ShortRead
	ArchiveNotFound
	CorruptArchive
	MemberNotFound
	ChecksumMismatch
	CodecFailure
	ArchiveUnwritable
	OutputUnwritable
	InvalidName
	ArchiveUnreadable
)

var kindNames = map[Kind]string{
	Unknown:           "unknown error",
	InputNotFound:     "input not found",
	InputUnreadable:   "input unreadable",
	OutOfMemory:       "out of memory",
	ShortRead:         "short read",
	ArchiveNotFound:   "archive not found",
	CorruptArchive:    "corrupt archive",
	MemberNotFound:    "member not found",
	ChecksumMismatch:  "checksum mismatch",
	CodecFailure:      "codec failure",
	ArchiveUnwritable: "archive unwritable",
	OutputUnwritable:  "output unwritable",
	InvalidName:       "invalid name",
	ArchiveUnreadable: "archive unreadable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[Unknown]
}

func (k Kind) Error() string {
	return k.String()
}

// Error is the error type returned by this package. Op names the failing step
// ("open", "add", "extract", ...), Path the archive, source file or member
// involved, and Err the underlying cause if there is one.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a target Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unknown
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// classify maps format and codec errors onto kinds. Anything else is passed
// through with the fallback kind.
func classify(op, path string, err error, fallback Kind) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	kind := fallback
	switch {
	case errors.Is(err, codec.ErrMalformedStream),
		errors.Is(err, codec.ErrUnsupportedMethod),
		errors.Is(err, codec.ErrInvalidLevel):
		kind = CodecFailure
	case errors.Is(err, zipfmt.ErrBadSignature),
		errors.Is(err, zipfmt.ErrTruncatedRecord),
		errors.Is(err, zipfmt.ErrNoDirectoryEnd),
		errors.Is(err, zipfmt.ErrInconsistentDirectory),
		errors.Is(err, zipfmt.ErrUnsupported):
		kind = CorruptArchive
	}
	return newError(kind, op, path, err)
}
