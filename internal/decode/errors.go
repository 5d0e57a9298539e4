package decode

import (
	"errors"
	"fmt"
)

var (
	ErrOpenInput      = errors.New("cannot open input")
	ErrStreamInfo     = errors.New("cannot probe stream information")
	ErrNoAudioStream  = errors.New("no audio stream in input")
	ErrNoDecoder      = errors.New("no decoder for stream codec")
	ErrDecoderOpen    = errors.New("cannot open decoder")
	ErrBadSeekWhence  = errors.New("unsupported seek whence")
	ErrSessionClosed  = errors.New("decode session is closed")
	ErrAllocation     = errors.New("cannot allocate decode context")
	ErrNoCoverContext = errors.New("no cover transcode context")
)

// decodeError carries the library failure together with the source path.
type decodeError struct {
	path    string
	op      string
	wrapped error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode %s: %s: %s", e.path, e.op, e.wrapped)
}

func (e *decodeError) Unwrap() error {
	return e.wrapped
}
