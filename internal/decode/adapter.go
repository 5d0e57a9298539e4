package decode

import (
	"fmt"
	"io"
)

// avseekSize is the extra whence mode libav uses to ask a custom IO adapter
// for the total stream size instead of moving the read position.
const avseekSize = 0x10000

// readAdapter bridges an already-open io.ReadSeeker into the demuxer's
// custom IO callbacks.
type readAdapter struct {
	r io.ReadSeeker
}

func (a *readAdapter) read(b []byte) (int, error) {
	n, err := a.r.Read(b)
	if n == 0 && err != nil {
		return 0, err
	}
	return n, nil
}

// seek supports exactly four modes: report size, absolute, relative and
// from-end. Anything else is a contract violation by the caller.
func (a *readAdapter) seek(offset int64, whence int) (int64, error) {
	switch whence {
	case avseekSize:
		cur, err := a.r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		size, err := a.r.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		if _, err := a.r.Seek(cur, io.SeekStart); err != nil {
			return 0, err
		}
		return size, nil
	case io.SeekStart, io.SeekCurrent, io.SeekEnd:
		return a.r.Seek(offset, whence)
	default:
		return 0, fmt.Errorf("%w: %d", ErrBadSeekWhence, whence)
	}
}
