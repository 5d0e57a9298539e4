package domain

// SampleFormat identifies the PCM layout of decoded audio.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatU8
	SampleFormatS16
	SampleFormatS32
	SampleFormatFloat
	SampleFormatDouble
	SampleFormatU8Planar
	SampleFormatS16Planar
	SampleFormatS32Planar
	SampleFormatFloatPlanar
	SampleFormatDoublePlanar
)

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatU8:
		return "u8"
	case SampleFormatS16:
		return "s16"
	case SampleFormatS32:
		return "s32"
	case SampleFormatFloat:
		return "flt"
	case SampleFormatDouble:
		return "dbl"
	case SampleFormatU8Planar:
		return "u8p"
	case SampleFormatS16Planar:
		return "s16p"
	case SampleFormatS32Planar:
		return "s32p"
	case SampleFormatFloatPlanar:
		return "fltp"
	case SampleFormatDoublePlanar:
		return "dblp"
	default:
		return "unknown"
	}
}

// IsPlanar reports whether each channel occupies its own buffer.
func (f SampleFormat) IsPlanar() bool {
	switch f {
	case SampleFormatU8Planar, SampleFormatS16Planar, SampleFormatS32Planar,
		SampleFormatFloatPlanar, SampleFormatDoublePlanar:
		return true
	}
	return false
}

// BytesPerSample returns the width of a single sample of one channel.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatU8, SampleFormatU8Planar:
		return 1
	case SampleFormatS16, SampleFormatS16Planar:
		return 2
	case SampleFormatS32, SampleFormatS32Planar, SampleFormatFloat, SampleFormatFloatPlanar:
		return 4
	case SampleFormatDouble, SampleFormatDoublePlanar:
		return 8
	default:
		return 0
	}
}

// EncoderSupported reports whether the MP3 encoder accepts this layout.
// Unsigned 8-bit (any layout) and interleaved signed 32-bit are rejected.
func (f SampleFormat) EncoderSupported() bool {
	switch f {
	case SampleFormatS16, SampleFormatS16Planar, SampleFormatS32Planar,
		SampleFormatFloat, SampleFormatFloatPlanar,
		SampleFormatDouble, SampleFormatDoublePlanar:
		return true
	}
	return false
}
