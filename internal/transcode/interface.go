package transcode

import (
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/decode"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
)

// Decoder is the decode-side capability a worker drives. decode.Session is
// the container/codec implementation; tests substitute fakes.
type Decoder interface {
	Open() (domain.AudioInfo, error)
	HasCover() (ext string, ok bool)
	ReadPacket() (decode.Packet, error)
	DecodeAudio(p decode.Packet, emit func(domain.Frame) error) error
	FlushAudio(emit func(domain.Frame) error) error
	DecodeCover(p decode.Packet) ([]byte, error)
	Close()
}

// Encoder is one MP3 encoding session for one destination file.
type Encoder interface {
	Open(info domain.AudioInfo, bitrate, quality int) error
	Encode(f domain.Frame) error
	Flush() error
	Close() error
	Path() string
}
