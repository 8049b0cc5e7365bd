// Package ferrors defines the error taxonomy and warning shape shared by
// every package in this module: the archive reader, schema decoder, tree
// builder, geometry decoder, and renderer all raise/collect the same Kind.
package ferrors

import "fmt"

// Kind is the closed error taxonomy from the design-archive decoder's
// error policy. NotArchive through SchemaMismatch are returned as errors
// (Corrupt also labels some non-fatal warnings); NotFound is returned as
// an error by failed lookups and also labels warnings; UnrenderableFeature
// only ever labels a Warning.
type Kind uint8

const (
	// NotArchive means the trailing central-directory marker was not found,
	// or an entry signature was invalid.
	NotArchive Kind = iota
	// MissingEntry means a required archive entry (canvas.fig) is absent.
	MissingEntry
	// BadMagic means the inner document is missing the "fig-kiwi" header.
	BadMagic
	// UnsupportedCompression means the entry's compression method is
	// neither stored, deflate, nor zstd.
	UnsupportedCompression
	// Corrupt means truncated input, a cursor overrun, or an impossible
	// length prefix.
	Corrupt
	// SchemaMismatch means the compiled schema has no decoder for the
	// claimed root, or a field's declared type index is out of range.
	SchemaMismatch
	// NotFound means an id/path/image-hash lookup failed.
	NotFound
	// UnrenderableFeature means a recognized but unsupported paint or
	// effect combination; never fatal, always downgraded to a Warning.
	UnrenderableFeature
)

func (k Kind) String() string {
	switch k {
	case NotArchive:
		return "NotArchive"
	case MissingEntry:
		return "MissingEntry"
	case BadMagic:
		return "BadMagic"
	case UnsupportedCompression:
		return "UnsupportedCompression"
	case Corrupt:
		return "Corrupt"
	case SchemaMismatch:
		return "SchemaMismatch"
	case NotFound:
		return "NotFound"
	case UnrenderableFeature:
		return "UnrenderableFeature"
	default:
		return "<unknown Kind>"
	}
}

// Error wraps an underlying cause with the taxonomy Kind, so callers can
// dispatch with errors.As while %w still chains to the root cause.
type Error struct {
	Kind   Kind
	Offset int64 // byte offset in the relevant stream, -1 if not applicable
	Err    error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %v", e.Kind, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error with no meaningful stream offset.
func NewError(k Kind, err error) *Error {
	return &Error{Kind: k, Offset: -1, Err: err}
}

// NewErrorAt builds an Error carrying the byte offset at which decoding
// failed, used by Corrupt, SchemaMismatch, and NotArchive.
func NewErrorAt(k Kind, offset int64, err error) *Error {
	return &Error{Kind: k, Offset: offset, Err: err}
}

// Warning is a non-fatal issue collected during decode or render instead
// of aborting the call, per the error policy in the propagation rules.
type Warning struct {
	Kind    Kind
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Kind, w.Message) }

// Warnf builds a Warning with a formatted message.
func Warnf(kind Kind, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
