package pixelcomp

import "fmt"

// ErrorKind classifies the faults raised by the codec subsystem.
type ErrorKind string

const (
	InvalidGeometry   ErrorKind = "invalid geometry"
	PixelOutOfRange   ErrorKind = "pixel out of range"
	DuplicatePixel    ErrorKind = "duplicate pixel"
	UnknownLetter     ErrorKind = "unknown letter"
	UnknownAlphabet   ErrorKind = "unknown alphabet"
	PackageUnderflow  ErrorKind = "package underflow"
	ValueTooWide      ErrorKind = "value too wide"
	DictionaryParse   ErrorKind = "dictionary parse"
	UnsupportedOption ErrorKind = "unsupported option"
)

// CodecError is the uniform error type for all input-validation faults.
// A failed operation never poisons its receiver; callers discard the
// partial result and may continue with the next chip.
type CodecError struct {
	Kind   ErrorKind
	Detail string
}

func (e *CodecError) Error() string {
	return string(e.Kind) + ": " + e.Detail
}

// Is reports whether target is a CodecError of the same kind, so that
// errors.Is(err, &CodecError{Kind: k}) matches on kind alone.
func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Detail == "" || t.Detail == e.Detail)
}

func codecErrorf(kind ErrorKind, format string, args ...interface{}) *CodecError {
	return &CodecError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
