// Package encode wraps the LAME MP3 encoder. One Encoder owns one encoding
// session per destination file; sessions are not reused across destinations.
package encode

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/viert/go-lame"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
)

// session is the slice of the LAME binding the encoder needs. Tests
// substitute a fake to observe writes without linking the codec.
type session interface {
	Write(p []byte) (int, error)
	Close()
}

// sessionSettings is the parameter surface of a LAME session before the
// first write. *lame.Encoder satisfies it; tests record the calls.
type sessionSettings interface {
	SetNumChannels(n int) error
	SetInSamplerate(rate int) error
	SetBrate(bitrate int) error
	SetQuality(quality int) error
	SetWriteID3TagAutomatic(automatic bool) error
	SetWriteVBRTag(write bool) error
	SetCopyright(copyright bool) error
	SetOriginal(original bool) error
}

// configureSession applies the stream contract: sized for the source's
// channel count and sample rate, CBR with no Xing/VBR header frame, no ID3
// emission, copyright and original bits clear.
func configureSession(s sessionSettings, info domain.AudioInfo, bitrate, quality int) error {
	if err := s.SetNumChannels(info.Channels); err != nil {
		return fmt.Errorf("set channels %d: %w", info.Channels, err)
	}
	if err := s.SetInSamplerate(info.SampleRate); err != nil {
		return fmt.Errorf("set sample rate %d: %w", info.SampleRate, err)
	}
	if err := s.SetBrate(bitrate); err != nil {
		return fmt.Errorf("set bitrate %d: %w", bitrate, err)
	}
	if err := s.SetQuality(quality); err != nil {
		return fmt.Errorf("set quality %d: %w", quality, err)
	}
	if err := s.SetWriteID3TagAutomatic(false); err != nil {
		return fmt.Errorf("disable id3 emission: %w", err)
	}
	if err := s.SetWriteVBRTag(false); err != nil {
		return fmt.Errorf("disable vbr header: %w", err)
	}
	if err := s.SetCopyright(false); err != nil {
		return fmt.Errorf("clear copyright bit: %w", err)
	}
	if err := s.SetOriginal(false); err != nil {
		return fmt.Errorf("clear original bit: %w", err)
	}
	return nil
}

// newLameSession configures a real LAME session writing MP3 bytes to w.
func newLameSession(w io.Writer, info domain.AudioInfo, bitrate, quality int) (session, error) {
	enc := lame.NewEncoder(w)
	if err := configureSession(enc, info, bitrate, quality); err != nil {
		return nil, err
	}
	return enc, nil
}

// Encoder encodes PCM frames of one destination file to MP3.
type Encoder struct {
	path       string
	file       *os.File
	buf        *bufio.Writer
	session    session
	newSession func(io.Writer, domain.AudioInfo, int, int) (session, error)
	conv       []byte
	open       bool
}

// New returns an Encoder for path. No resources are acquired until Open.
func New(path string) *Encoder {
	return &Encoder{path: path, newSession: newLameSession}
}

// Open creates the destination file and initializes the encoder session for
// the source's channel count and sample rate.
func (e *Encoder) Open(info domain.AudioInfo, bitrate, quality int) error {
	if e.open {
		return fmt.Errorf("encoder for %s already open", e.path)
	}
	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	e.buf = bufio.NewWriter(f)

	s, err := e.newSession(e.buf, info, bitrate, quality)
	if err != nil {
		e.buf = nil
		f.Close()
		os.Remove(e.path)
		return &encodeError{path: e.path, wrapped: classify(err)}
	}

	slog.Debug("Opened encoder session", "path", e.path,
		"rate", info.SampleRate, "channels", info.Channels, "bitrate", bitrate)
	e.file = f
	e.session = s
	e.open = true
	return nil
}

// Path returns the destination file path.
func (e *Encoder) Path() string {
	return e.path
}

// Encode compresses one frame and appends the output bytes to the
// destination stream. Unsupported sample formats fail before the session is
// touched.
func (e *Encoder) Encode(f domain.Frame) error {
	if !f.Format.EncoderSupported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	if !e.open {
		return ErrNotOpen
	}
	if f.NbSamples == 0 {
		return nil
	}

	pcm, err := interleaveS16(f, e.conv)
	if err != nil {
		return err
	}
	e.conv = pcm[:0]

	if _, err := e.session.Write(pcm); err != nil {
		return &encodeError{path: e.path, wrapped: classify(err)}
	}
	return nil
}

// Flush pushes buffered output bytes to the destination file.
func (e *Encoder) Flush() error {
	if !e.open {
		return ErrNotOpen
	}
	if err := e.buf.Flush(); err != nil {
		return &encodeError{path: e.path, wrapped: err}
	}
	return nil
}

// Close drains the encoder session and closes the destination file. Safe to
// call more than once.
func (e *Encoder) Close() error {
	if !e.open {
		return nil
	}
	e.open = false

	// Closing the session emits the trailing MP3 frames into the buffer.
	e.session.Close()
	e.session = nil

	var firstErr error
	if err := e.buf.Flush(); err != nil {
		firstErr = &encodeError{path: e.path, wrapped: err}
	}
	if err := e.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close %s: %w", e.path, err)
	}
	e.buf = nil
	e.file = nil
	return firstErr
}
