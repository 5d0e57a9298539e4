package encode

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat rejects sample layouts the encoder cannot take:
	// unsigned 8-bit in any layout and interleaved signed 32-bit.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrNotOpen is returned when Encode or Flush is called without an
	// open session.
	ErrNotOpen = errors.New("encoder session not open")

	// Causes of negative return codes from the underlying encoder.
	ErrBufferTooSmall = errors.New("output buffer too small")
	ErrAllocation     = errors.New("allocation failed")
	ErrParamsNotInit  = errors.New("parameters not initialized")
	ErrPsychoAcoustic = errors.New("psychoacoustic analysis failed")
)

// encodeError wraps a failure of the underlying encoder with the destination
// it was writing.
type encodeError struct {
	path    string
	wrapped error
}

func (e *encodeError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.path, e.wrapped)
}

func (e *encodeError) Unwrap() error {
	return e.wrapped
}

// classify maps an error coming out of the encoder session onto the fixed
// cause set where the message allows it, otherwise passes it through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "buffer too small"):
		return fmt.Errorf("%w: %s", ErrBufferTooSmall, err)
	case strings.Contains(msg, "malloc") || strings.Contains(msg, "alloc"):
		return fmt.Errorf("%w: %s", ErrAllocation, err)
	case strings.Contains(msg, "not initialized") || strings.Contains(msg, "init_params"):
		return fmt.Errorf("%w: %s", ErrParamsNotInit, err)
	case strings.Contains(msg, "psycho"):
		return fmt.Errorf("%w: %s", ErrPsychoAcoustic, err)
	default:
		return err
	}
}
