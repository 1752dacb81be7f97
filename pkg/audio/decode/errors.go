// ABOUTME: Decoder error taxonomy
// ABOUTME: Backend-tagged decode failures and packet accessor misuse errors
package decode

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the backend family a DecoderError originates from
type ErrorKind int

const (
	// KindPassthrough marks failures of the passthrough backend
	KindPassthrough ErrorKind = iota
	// KindFullDecode marks failures of a backend that decodes to PCM,
	// including errors reported by the codec library it wraps
	KindFullDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindPassthrough:
		return "passthrough"
	case KindFullDecode:
		return "full"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecoderError is returned by Seek and NextPacket. Err holds the underlying
// cause when there is one.
type DecoderError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("%s decoder error: %s", e.Kind, e.Msg)
}

func (e *DecoderError) Unwrap() error {
	return e.Err
}

// PassthroughError creates a KindPassthrough error. Errors wrapped with
// %w are kept as the cause.
func PassthroughError(format string, args ...any) *DecoderError {
	return newDecoderError(KindPassthrough, format, args...)
}

// FullDecodeError creates a KindFullDecode error. Errors wrapped with %w
// are kept as the cause.
func FullDecodeError(format string, args ...any) *DecoderError {
	return newDecoderError(KindFullDecode, format, args...)
}

func newDecoderError(kind ErrorKind, format string, args ...any) *DecoderError {
	err := fmt.Errorf(format, args...)
	cause := errors.Unwrap(err)
	if _, ok := err.(interface{ Unwrap() []error }); ok {
		// several %w verbs: keep the joined error so every cause matches
		cause = err
	}
	return &DecoderError{Kind: kind, Msg: err.Error(), Err: cause}
}

// fromLibrary translates an error returned by a wrapped codec library.
// Full-decode backends call it at their boundary so the library's error
// model never leaks past this package.
func fromLibrary(err error) error {
	if err == nil {
		return nil
	}
	var de *DecoderError
	if errors.As(err, &de) {
		return de
	}
	return &DecoderError{Kind: KindFullDecode, Msg: err.Error(), Err: err}
}

// IsDecoderError reports whether err is a DecoderError of the given kind
func IsDecoderError(err error, kind ErrorKind) bool {
	var de *DecoderError
	return errors.As(err, &de) && de.Kind == kind
}

var (
	// ErrRawPacket is returned when samples are requested from a raw packet
	ErrRawPacket = errors.New("decoder raw error: can't return samples on a raw packet")

	// ErrSamplesPacket is returned when raw data is requested from a samples packet
	ErrSamplesPacket = errors.New("decoder samples error: can't return raw data on a samples packet")

	// ErrUnsupportedFormat is returned by New for formats without a backend
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
