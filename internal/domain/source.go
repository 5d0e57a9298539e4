// Package domain contains the core types shared between the decode, encode
// and orchestration layers: source descriptors, sample formats, decoded
// frames and planned destinations.
package domain

import (
	"path/filepath"
	"strings"
)

// MediaClass is the coarse category a source file belongs to. It decides
// whether a file is picked up at all and which planner quirks apply.
type MediaClass int

const (
	ClassUnknown MediaClass = iota
	ClassAudio
	ClassVideo
	ClassModule
)

func (c MediaClass) String() string {
	switch c {
	case ClassAudio:
		return "audio"
	case ClassVideo:
		return "video"
	case ClassModule:
		return "module"
	default:
		return "unknown"
	}
}

var classByExtension = map[string]MediaClass{
	".mp3":  ClassAudio,
	".flac": ClassAudio,
	".ogg":  ClassAudio,
	".oga":  ClassAudio,
	".ape":  ClassAudio,
	".wav":  ClassAudio,
	".wma":  ClassAudio,
	".m4a":  ClassAudio,
	".aac":  ClassAudio,
	".wv":   ClassAudio,
	".mpc":  ClassAudio,

	".mp4":  ClassVideo,
	".mkv":  ClassVideo,
	".avi":  ClassVideo,
	".webm": ClassVideo,
	".mov":  ClassVideo,
	".ogv":  ClassVideo,

	".mod": ClassModule,
	".xm":  ClassModule,
	".s3m": ClassModule,
	".it":  ClassModule,
	".669": ClassModule,
	".mtm": ClassModule,
}

// ClassForPath classifies a file by its extension. Unknown extensions map to
// ClassUnknown and are skipped by the scanner.
func ClassForPath(path string) MediaClass {
	return classByExtension[strings.ToLower(filepath.Ext(path))]
}

// Source describes one input file. It is immutable once a worker starts and
// owned exclusively by that worker for its lifetime.
type Source struct {
	Path string
	Size int64
}

// Dir returns the directory containing the source file. Outputs and the
// shared cover image are written next to the source.
func (s Source) Dir() string {
	return filepath.Dir(s.Path)
}

// BaseName returns the file name without its extension.
func (s Source) BaseName() string {
	name := filepath.Base(s.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Class returns the media class of the source.
func (s Source) Class() MediaClass {
	return ClassForPath(s.Path)
}

// IsMP3 reports whether the source is already an MP3 file.
func (s Source) IsMP3() bool {
	return strings.EqualFold(filepath.Ext(s.Path), ".mp3")
}

// AudioInfo is discovered once per source after opening the decoder.
type AudioInfo struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
	// FLAC marks sources whose audio stream needs sync-byte packet
	// filtering (metadata packets masquerading as audio).
	FLAC bool
}
