package mcat

import (
	"errors"
	"fmt"
)

// ErrUnsupportedOperation is returned when an encoder is asked to do
// something its protocol cannot express (e.g. video over Sixel). The
// dispatcher recovers from it for the documented Sixel video fallback;
// everywhere else it surfaces unchanged.
var ErrUnsupportedOperation = errors.New("operation not supported by this encoder")

// ErrProbeTimeout indicates the terminal did not answer a capability or
// size query within the probe timeout. It is recovered locally with
// fallback values and never aborts an operation.
var ErrProbeTimeout = errors.New("terminal did not respond within the probe timeout")

// ErrWinSizeInitialized is returned by InitWinSize when the process-wide
// window size has already been resolved.
var ErrWinSizeInitialized = errors.New("window size already initialized")

// InvalidSpecError reports a dimension spec string that could not be
// parsed: unknown suffix, non-numeric body, or an empty value.
type InvalidSpecError struct {
	Spec string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid dimension spec: %q", e.Spec)
}

// DependencyMissingError reports a required external tool that is not
// installed (today that is always ffmpeg).
type DependencyMissingError struct {
	Tool string
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("%s is not installed or not on PATH", e.Tool)
}

// EncodeFailure reports a malformed source buffer or a failure while
// producing escape sequences. Static image encoders buffer the complete
// sequence before touching the sink, so for them an EncodeFailure
// guarantees no partial sequence was written; animations stream frame by
// frame and follow a mid-stream failure with a delete for the placed
// image.
type EncodeFailure struct {
	Encoder EncoderKind
	Err     error
}

func (e *EncodeFailure) Error() string {
	return fmt.Sprintf("%s encode failed: %v", e.Encoder, e.Err)
}

func (e *EncodeFailure) Unwrap() error { return e.Err }
