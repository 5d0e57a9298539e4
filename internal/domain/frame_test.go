package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleFormatEncoderSupported(t *testing.T) {
	tests := []struct {
		name      string
		format    SampleFormat
		supported bool
	}{
		{"interleaved s16", SampleFormatS16, true},
		{"planar s16", SampleFormatS16Planar, true},
		{"planar s32", SampleFormatS32Planar, true},
		{"interleaved float", SampleFormatFloat, true},
		{"planar float", SampleFormatFloatPlanar, true},
		{"interleaved double", SampleFormatDouble, true},
		{"planar double", SampleFormatDoublePlanar, true},
		{"interleaved u8", SampleFormatU8, false},
		{"planar u8", SampleFormatU8Planar, false},
		{"interleaved s32", SampleFormatS32, false},
		{"unknown", SampleFormatUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.supported, tt.format.EncoderSupported())
		})
	}
}

func TestFrameSplitInterleaved(t *testing.T) {
	// 4 stereo s16 samples: stride is 4 bytes per sample position.
	plane := make([]byte, 16)
	for i := range plane {
		plane[i] = byte(i)
	}
	f := Frame{Format: SampleFormatS16, Channels: 2, NbSamples: 4, Planes: [][]byte{plane}}

	head, tail := f.Split(3)
	assert.Equal(t, 3, head.NbSamples)
	assert.Equal(t, 1, tail.NbSamples)
	assert.Equal(t, plane[:12], head.Planes[0])
	assert.Equal(t, plane[12:], tail.Planes[0])
}

func TestFrameSplitPlanar(t *testing.T) {
	left := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	right := []byte{8, 9, 10, 11, 12, 13, 14, 15}
	f := Frame{Format: SampleFormatFloatPlanar, Channels: 2, NbSamples: 2, Planes: [][]byte{left, right}}

	head, tail := f.Split(1)
	assert.Equal(t, 1, head.NbSamples)
	assert.Equal(t, 1, tail.NbSamples)
	assert.Equal(t, left[:4], head.Planes[0])
	assert.Equal(t, right[:4], head.Planes[1])
	assert.Equal(t, left[4:], tail.Planes[0])
	assert.Equal(t, right[4:], tail.Planes[1])
}

func TestFrameSplitClamps(t *testing.T) {
	f := Frame{Format: SampleFormatS16, Channels: 1, NbSamples: 2, Planes: [][]byte{{0, 1, 2, 3}}}

	head, tail := f.Split(10)
	assert.Equal(t, 2, head.NbSamples)
	assert.Equal(t, 0, tail.NbSamples)

	head, tail = f.Split(-1)
	assert.Equal(t, 0, head.NbSamples)
	assert.Equal(t, 2, tail.NbSamples)
}

func TestClassForPath(t *testing.T) {
	assert.Equal(t, ClassAudio, ClassForPath("/music/a.FLAC"))
	assert.Equal(t, ClassVideo, ClassForPath("clip.mkv"))
	assert.Equal(t, ClassModule, ClassForPath("chip.XM"))
	assert.Equal(t, ClassUnknown, ClassForPath("notes.txt"))
}
