package domain

// Frame is one decoded unit of PCM. Interleaved formats carry a single plane
// holding all channels; planar formats carry one plane per channel.
type Frame struct {
	Format    SampleFormat
	Channels  int
	NbSamples int
	Planes    [][]byte
}

// sampleStride returns the byte width of one sample position within a plane.
func (f Frame) sampleStride() int {
	if f.Format.IsPlanar() {
		return f.Format.BytesPerSample()
	}
	return f.Format.BytesPerSample() * f.Channels
}

// Split cuts the frame after n samples and returns the head and tail parts.
// The returned frames alias the original plane memory. n is clamped to
// [0, NbSamples]; either part may end up with zero samples.
func (f Frame) Split(n int) (Frame, Frame) {
	if n < 0 {
		n = 0
	}
	if n > f.NbSamples {
		n = f.NbSamples
	}

	stride := f.sampleStride()
	head := Frame{Format: f.Format, Channels: f.Channels, NbSamples: n}
	tail := Frame{Format: f.Format, Channels: f.Channels, NbSamples: f.NbSamples - n}
	cut := n * stride

	for _, plane := range f.Planes {
		if cut > len(plane) {
			cut = len(plane)
		}
		head.Planes = append(head.Planes, plane[:cut])
		tail.Planes = append(tail.Planes, plane[cut:])
	}
	return head, tail
}
