// Package decode owns the demux and decode side of a transcode: the format
// context, the audio decode context and, when cover extraction is active,
// the picture decode/re-encode contexts. One Session serves one source file
// and is never shared between workers.
package decode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/asticode/go-astiav"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
)

const ioBufferSize = 16 * 1024

// flacSyncByte opens every real FLAC audio frame. Packets in a FLAC stream
// that do not start with it are metadata masquerading as audio and are
// discarded without decoding.
const flacSyncByte = 0xFF

// PacketKind routes a demuxed packet to its consumer.
type PacketKind int

const (
	PacketOther PacketKind = iota
	PacketAudio
	PacketCover
)

// Packet describes the packet most recently returned by ReadPacket. The
// session keeps ownership of the underlying buffer until the next read.
type Packet struct {
	Kind PacketKind
	Data []byte
}

// Options configures a Session.
type Options struct {
	// ExtractCover enables probing for an attached picture stream.
	ExtractCover bool
	// Video marks sources classified as video files; their picture streams
	// are actual video, not cover art, and are never extracted.
	Video bool
	// Reader, when set, streams the input through a custom buffered
	// read/seek adapter instead of opening the path directly.
	Reader io.ReadSeeker
}

// Session decodes one source.
type Session struct {
	source domain.Source
	opts   Options

	fc    *astiav.FormatContext
	ioCtx *astiav.IOContext
	pkt   *astiav.Packet
	frame *astiav.Frame

	audioIndex int
	audioCtx   *astiav.CodecContext

	coverIndex  int
	coverExt    string
	coverDecCtx *astiav.CodecContext
	coverEncCtx *astiav.CodecContext
	coverFrame  *astiav.Frame
	coverPkt    *astiav.Packet
	coverSws    *astiav.SoftwareScaleContext
	coverScaled *astiav.Frame

	info   domain.AudioInfo
	opened bool
	closed bool
}

// NewSession returns an unopened session for source.
func NewSession(source domain.Source, opts Options) *Session {
	return &Session{
		source:     source,
		opts:       opts,
		audioIndex: -1,
		coverIndex: -1,
	}
}

// Open opens the container, probes streams, selects and opens the audio
// decoder and, when enabled, the cover stream contexts. Any failure tears
// down every partially-acquired resource before returning.
func (s *Session) Open() (domain.AudioInfo, error) {
	if s.closed {
		return domain.AudioInfo{}, ErrSessionClosed
	}

	if s.fc = astiav.AllocFormatContext(); s.fc == nil {
		return domain.AudioInfo{}, ErrAllocation
	}

	path := s.source.Path
	if s.opts.Reader != nil {
		adapter := &readAdapter{r: s.opts.Reader}
		ioCtx, err := astiav.AllocIOContext(ioBufferSize, false, adapter.read, adapter.seek, nil)
		if err != nil {
			s.Close()
			return domain.AudioInfo{}, s.fail("alloc io context", err)
		}
		s.ioCtx = ioCtx
		s.fc.SetPb(ioCtx)
		path = ""
	}

	if err := s.fc.OpenInput(path, nil, nil); err != nil {
		s.Close()
		return domain.AudioInfo{}, s.fail("open input", fmt.Errorf("%w: %s", ErrOpenInput, err))
	}
	s.opened = true

	if err := s.fc.FindStreamInfo(nil); err != nil {
		s.Close()
		return domain.AudioInfo{}, s.fail("find stream info", fmt.Errorf("%w: %s", ErrStreamInfo, err))
	}

	if err := s.openAudio(); err != nil {
		s.Close()
		return domain.AudioInfo{}, err
	}

	if s.opts.ExtractCover && !s.opts.Video && len(s.fc.Streams()) > 1 {
		if err := s.openCover(); err != nil {
			// Cover problems never fail the transcode; the picture
			// stream is simply ignored.
			slog.Debug("Ignoring cover stream", "source", s.source.Path, "error", err)
			s.closeCover()
		}
	}

	s.pkt = astiav.AllocPacket()
	s.frame = astiav.AllocFrame()

	slog.Debug("Opened decode session", "source", s.source.Path,
		"rate", s.info.SampleRate, "channels", s.info.Channels,
		"format", s.info.Format, "flac", s.info.FLAC, "cover", s.coverIndex >= 0)
	return s.info, nil
}

// openAudio selects the best audio stream and opens its decoder.
func (s *Session) openAudio() error {
	var stream *astiav.Stream
	for _, st := range s.fc.Streams() {
		if st.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			stream = st
			break
		}
	}
	if stream == nil {
		return s.fail("select audio stream", ErrNoAudioStream)
	}

	params := stream.CodecParameters()
	codec := astiav.FindDecoder(params.CodecID())
	if codec == nil {
		return s.fail("find decoder", fmt.Errorf("%w: %s", ErrNoDecoder, params.CodecID()))
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return s.fail("alloc codec context", ErrAllocation)
	}
	s.audioCtx = cc
	if err := params.ToCodecContext(cc); err != nil {
		return s.fail("apply codec parameters", err)
	}
	if err := cc.Open(codec, nil); err != nil {
		return s.fail("open decoder", fmt.Errorf("%w: %s", ErrDecoderOpen, err))
	}

	s.audioIndex = stream.Index()
	s.info = domain.AudioInfo{
		SampleRate: cc.SampleRate(),
		Channels:   cc.ChannelLayout().Channels(),
		Format:     sampleFormatFrom(cc.SampleFormat()),
		FLAC:       params.CodecID() == astiav.CodecIDFlac,
	}
	return nil
}

// openCover selects a picture stream as cover-art candidate and, when the
// picture is not already JPEG, opens the decode and JPEG re-encode contexts
// for the transcode-through path.
func (s *Session) openCover() error {
	var stream *astiav.Stream
	for _, st := range s.fc.Streams() {
		if st.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			stream = st
			break
		}
	}
	if stream == nil {
		return nil
	}

	params := stream.CodecParameters()
	s.coverExt = coverExtension(params.CodecID())
	s.coverIndex = stream.Index()

	if params.CodecID() == astiav.CodecIDMjpeg {
		// Already JPEG: packets are written verbatim.
		return nil
	}

	decCodec := astiav.FindDecoder(params.CodecID())
	if decCodec == nil {
		return fmt.Errorf("%w: %s", ErrNoDecoder, params.CodecID())
	}
	s.coverDecCtx = astiav.AllocCodecContext(decCodec)
	if s.coverDecCtx == nil {
		return ErrAllocation
	}
	if err := params.ToCodecContext(s.coverDecCtx); err != nil {
		return err
	}
	if err := s.coverDecCtx.Open(decCodec, nil); err != nil {
		return fmt.Errorf("%w: %s", ErrDecoderOpen, err)
	}

	encCodec := astiav.FindEncoder(astiav.CodecIDMjpeg)
	if encCodec == nil {
		return fmt.Errorf("%w: mjpeg", ErrNoDecoder)
	}
	s.coverEncCtx = astiav.AllocCodecContext(encCodec)
	if s.coverEncCtx == nil {
		return ErrAllocation
	}
	s.coverEncCtx.SetWidth(params.Width())
	s.coverEncCtx.SetHeight(params.Height())
	s.coverEncCtx.SetPixelFormat(astiav.PixelFormatYuvj420P)
	s.coverEncCtx.SetTimeBase(astiav.NewRational(1, 25))
	if err := s.coverEncCtx.Open(encCodec, nil); err != nil {
		return fmt.Errorf("open jpeg encoder: %w", err)
	}

	s.coverFrame = astiav.AllocFrame()
	s.coverPkt = astiav.AllocPacket()
	return nil
}

// HasCover reports whether a cover-art candidate stream was selected, and
// the output extension inferred from its codec.
func (s *Session) HasCover() (string, bool) {
	if s.coverIndex < 0 {
		return "", false
	}
	return s.coverExt, true
}

// ReadPacket pulls the next demuxed packet. io.EOF signals end of stream.
func (s *Session) ReadPacket() (Packet, error) {
	if s.closed || s.pkt == nil {
		return Packet{}, ErrSessionClosed
	}
	s.pkt.Unref()
	if err := s.fc.ReadFrame(s.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return Packet{}, io.EOF
		}
		return Packet{}, s.fail("read packet", err)
	}

	kind := PacketOther
	switch s.pkt.StreamIndex() {
	case s.audioIndex:
		kind = PacketAudio
	case s.coverIndex:
		kind = PacketCover
	}
	return Packet{Kind: kind, Data: s.pkt.Data()}, nil
}

// DecodeAudio feeds the current audio packet to the decoder and emits every
// frame it produces; one packet may yield zero, one or several frames.
func (s *Session) DecodeAudio(p Packet, emit func(domain.Frame) error) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.info.FLAC && (len(p.Data) == 0 || p.Data[0] != flacSyncByte) {
		// FLAC metadata packet routed through the audio stream.
		return nil
	}
	if err := s.audioCtx.SendPacket(s.pkt); err != nil {
		return s.fail("send packet", err)
	}
	return s.drainAudio(emit)
}

// FlushAudio drains frames the decoder still buffers after end of stream.
func (s *Session) FlushAudio(emit func(domain.Frame) error) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.audioCtx.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return s.fail("send flush packet", err)
	}
	return s.drainAudio(emit)
}

func (s *Session) drainAudio(emit func(domain.Frame) error) error {
	for {
		if err := s.audioCtx.ReceiveFrame(s.frame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return s.fail("receive frame", err)
		}
		frame, err := s.convertFrame()
		if err != nil {
			s.frame.Unref()
			return err
		}
		if err := emit(frame); err != nil {
			s.frame.Unref()
			return err
		}
		s.frame.Unref()
	}
}

// convertFrame copies the current libav frame into a domain frame with one
// byte slice per plane.
func (s *Session) convertFrame() (domain.Frame, error) {
	format := sampleFormatFrom(s.frame.SampleFormat())
	channels := s.frame.ChannelLayout().Channels()
	nb := s.frame.NbSamples()

	buf, err := s.frame.Data().Bytes(1)
	if err != nil {
		return domain.Frame{}, s.fail("copy frame data", err)
	}

	frame := domain.Frame{Format: format, Channels: channels, NbSamples: nb}
	if format.IsPlanar() {
		planeSize := nb * format.BytesPerSample()
		for c := 0; c < channels; c++ {
			off := c * planeSize
			if off+planeSize > len(buf) {
				return domain.Frame{}, s.fail("copy frame data",
					fmt.Errorf("short plane buffer: %d < %d", len(buf), off+planeSize))
			}
			frame.Planes = append(frame.Planes, buf[off:off+planeSize])
		}
	} else {
		frame.Planes = [][]byte{buf}
	}
	return frame, nil
}

// DecodeCover turns the current cover packet into JPEG bytes. Sources whose
// picture stream is already JPEG pass through verbatim; anything else runs
// through the decode/re-encode pair opened at probe time.
func (s *Session) DecodeCover(p Packet) ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.coverDecCtx == nil {
		// Verbatim path. Copy: the packet buffer is reused on next read.
		out := make([]byte, len(p.Data))
		copy(out, p.Data)
		return out, nil
	}
	if s.coverEncCtx == nil {
		return nil, ErrNoCoverContext
	}

	if err := s.coverDecCtx.SendPacket(s.pkt); err != nil {
		return nil, s.fail("send cover packet", err)
	}

	var out []byte
	for {
		if err := s.coverDecCtx.ReceiveFrame(s.coverFrame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return out, nil
			}
			return nil, s.fail("receive cover frame", err)
		}

		err := func() error {
			defer s.coverFrame.Unref()
			frame := s.coverFrame
			if frame.PixelFormat() != astiav.PixelFormatYuvj420P {
				// Decoded PNG/BMP/TIFF frames arrive in RGB-family
				// formats the JPEG encoder will not accept.
				scaled, err := s.convertCoverFrame(frame,
					s.coverEncCtx.Width(), s.coverEncCtx.Height())
				if err != nil {
					return err
				}
				frame = scaled
			}
			if err := s.coverEncCtx.SendFrame(frame); err != nil {
				return s.fail("send cover frame", err)
			}
			for {
				if err := s.coverEncCtx.ReceivePacket(s.coverPkt); err != nil {
					if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
						return nil
					}
					return s.fail("receive cover packet", err)
				}
				out = append(out, s.coverPkt.Data()...)
				s.coverPkt.Unref()
			}
		}()
		if err != nil {
			return nil, err
		}
	}
}

// convertCoverFrame scales src into a yuvj420p frame of the given output
// size, lazily creating the scale context on first use and reusing it for
// subsequent frames of the same stream.
func (s *Session) convertCoverFrame(src *astiav.Frame, width, height int) (*astiav.Frame, error) {
	if s.coverSws == nil {
		sws, err := astiav.CreateSoftwareScaleContext(
			src.Width(), src.Height(), src.PixelFormat(),
			width, height, astiav.PixelFormatYuvj420P,
			astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear))
		if err != nil {
			return nil, s.fail("create scale context", err)
		}
		s.coverSws = sws
		s.coverScaled = astiav.AllocFrame()
	}
	if err := s.coverSws.ScaleFrame(src, s.coverScaled); err != nil {
		return nil, s.fail("scale cover frame", err)
	}
	return s.coverScaled, nil
}

// Close releases every decode resource. It is idempotent and safe on
// partially-initialized state; failures mid-Open route through it.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	s.closeCover()

	if s.frame != nil {
		s.frame.Free()
		s.frame = nil
	}
	if s.pkt != nil {
		s.pkt.Free()
		s.pkt = nil
	}
	if s.audioCtx != nil {
		s.audioCtx.Free()
		s.audioCtx = nil
	}
	if s.fc != nil {
		if s.opened {
			s.fc.CloseInput()
		}
		s.fc.Free()
		s.fc = nil
	}
	if s.ioCtx != nil {
		s.ioCtx.Free()
		s.ioCtx = nil
	}
}

func (s *Session) closeCover() {
	if s.coverScaled != nil {
		s.coverScaled.Free()
		s.coverScaled = nil
	}
	if s.coverSws != nil {
		s.coverSws.Free()
		s.coverSws = nil
	}
	if s.coverPkt != nil {
		s.coverPkt.Free()
		s.coverPkt = nil
	}
	if s.coverFrame != nil {
		s.coverFrame.Free()
		s.coverFrame = nil
	}
	if s.coverEncCtx != nil {
		s.coverEncCtx.Free()
		s.coverEncCtx = nil
	}
	if s.coverDecCtx != nil {
		s.coverDecCtx.Free()
		s.coverDecCtx = nil
	}
}

func (s *Session) fail(op string, err error) error {
	return &decodeError{path: s.source.Path, op: op, wrapped: err}
}

// coverExtension infers the cover file extension from the picture codec.
func coverExtension(id astiav.CodecID) string {
	switch id {
	case astiav.CodecIDMjpeg:
		return ".jpg"
	case astiav.CodecIDPng:
		return ".png"
	case astiav.CodecIDBmp:
		return ".bmp"
	case astiav.CodecIDTiff:
		return ".tif"
	default:
		return ".unknown"
	}
}

// sampleFormatFrom maps a libav sample format onto the domain enum.
func sampleFormatFrom(f astiav.SampleFormat) domain.SampleFormat {
	switch f {
	case astiav.SampleFormatU8:
		return domain.SampleFormatU8
	case astiav.SampleFormatS16:
		return domain.SampleFormatS16
	case astiav.SampleFormatS32:
		return domain.SampleFormatS32
	case astiav.SampleFormatFlt:
		return domain.SampleFormatFloat
	case astiav.SampleFormatDbl:
		return domain.SampleFormatDouble
	case astiav.SampleFormatU8P:
		return domain.SampleFormatU8Planar
	case astiav.SampleFormatS16P:
		return domain.SampleFormatS16Planar
	case astiav.SampleFormatS32P:
		return domain.SampleFormatS32Planar
	case astiav.SampleFormatFltp:
		return domain.SampleFormatFloatPlanar
	case astiav.SampleFormatDblp:
		return domain.SampleFormatDoublePlanar
	default:
		return domain.SampleFormatUnknown
	}
}
