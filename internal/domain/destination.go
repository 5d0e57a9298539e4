package domain

// Destination is one planned output MP3 file. Duration is the number of
// source samples it should receive; 0 means "until end of stream".
type Destination struct {
	Name     string
	Duration int64
}

// OpenEnded reports whether the destination absorbs samples until EOF.
func (d Destination) OpenEnded() bool {
	return d.Duration == 0
}
