package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
)

// interleaveS16 converts a decoded frame to interleaved signed 16-bit
// little-endian PCM, the layout the encoder session consumes. dst is reused
// across calls when large enough. The caller has already rejected formats
// outside the supported set.
func interleaveS16(f domain.Frame, dst []byte) ([]byte, error) {
	need := f.NbSamples * f.Channels * 2
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]

	switch f.Format {
	case domain.SampleFormatS16:
		copy(dst, f.Planes[0][:need])

	case domain.SampleFormatS16Planar:
		for s := 0; s < f.NbSamples; s++ {
			for c := 0; c < f.Channels; c++ {
				v := binary.LittleEndian.Uint16(f.Planes[c][s*2:])
				binary.LittleEndian.PutUint16(dst[(s*f.Channels+c)*2:], v)
			}
		}

	case domain.SampleFormatS32Planar:
		for s := 0; s < f.NbSamples; s++ {
			for c := 0; c < f.Channels; c++ {
				v := int32(binary.LittleEndian.Uint32(f.Planes[c][s*4:]))
				binary.LittleEndian.PutUint16(dst[(s*f.Channels+c)*2:], uint16(int16(v>>16)))
			}
		}

	case domain.SampleFormatFloat:
		for s := 0; s < f.NbSamples; s++ {
			for c := 0; c < f.Channels; c++ {
				bits := binary.LittleEndian.Uint32(f.Planes[0][(s*f.Channels+c)*4:])
				putSample(dst, s*f.Channels+c, float64(math.Float32frombits(bits)))
			}
		}

	case domain.SampleFormatFloatPlanar:
		for s := 0; s < f.NbSamples; s++ {
			for c := 0; c < f.Channels; c++ {
				bits := binary.LittleEndian.Uint32(f.Planes[c][s*4:])
				putSample(dst, s*f.Channels+c, float64(math.Float32frombits(bits)))
			}
		}

	case domain.SampleFormatDouble:
		for s := 0; s < f.NbSamples; s++ {
			for c := 0; c < f.Channels; c++ {
				bits := binary.LittleEndian.Uint64(f.Planes[0][(s*f.Channels+c)*8:])
				putSample(dst, s*f.Channels+c, math.Float64frombits(bits))
			}
		}

	case domain.SampleFormatDoublePlanar:
		for s := 0; s < f.NbSamples; s++ {
			for c := 0; c < f.Channels; c++ {
				bits := binary.LittleEndian.Uint64(f.Planes[c][s*8:])
				putSample(dst, s*f.Channels+c, math.Float64frombits(bits))
			}
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	return dst, nil
}

// putSample writes a [-1, 1] float sample as clamped s16le at index i.
func putSample(dst []byte, i int, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(math.Round(v*32767))))
}
