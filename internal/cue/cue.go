// Package cue parses cue sheets: sidecar text files describing track
// boundaries within a single continuous audio source, in the Audio CD
// timecode format of 75 frames per second.
package cue

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FramesPerSecond is the Audio CD frame rate used by cue timecodes.
const FramesPerSecond = 75

var (
	ErrMalformedTimecode = fmt.Errorf("malformed timecode")
	ErrMalformedSheet    = fmt.Errorf("malformed cue sheet")
	ErrNoTracks          = fmt.Errorf("cue sheet contains no tracks")
)

// Timecode is a position in MM:SS:FF form.
type Timecode struct {
	Minutes int
	Seconds int
	Frames  int
}

// ParseTimecode parses "MM:SS:FF". Minutes may exceed 99 for long sources.
func ParseTimecode(s string) (Timecode, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
		}
		v[i] = n
	}
	if v[1] > 59 || v[2] >= FramesPerSecond {
		return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}
	return Timecode{Minutes: v[0], Seconds: v[1], Frames: v[2]}, nil
}

// TotalFrames converts the timecode to a frame count.
func (t Timecode) TotalFrames() int {
	return (t.Minutes*60+t.Seconds)*FramesPerSecond + t.Frames
}

func (t Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Minutes, t.Seconds, t.Frames)
}

// Index is one INDEX entry of a track. INDEX 01 marks the track start.
type Index struct {
	Number int
	Time   Timecode
}

// Track is one TRACK entry with its metadata and timing commands.
type Track struct {
	Number    int
	Type      string
	Title     string
	Performer string
	Indices   []Index
	Pregap    Timecode
	Postgap   Timecode
}

// Start returns the track start (INDEX 01), falling back to INDEX 00.
func (t Track) Start() (Timecode, bool) {
	for _, idx := range t.Indices {
		if idx.Number == 1 {
			return idx.Time, true
		}
	}
	if len(t.Indices) > 0 {
		return t.Indices[0].Time, true
	}
	return Timecode{}, false
}

// Sheet is a parsed cue file. Multi-FILE sheets are collapsed: all tracks
// are treated as positions within the single source being transcoded.
type Sheet struct {
	Title     string
	Performer string
	File      string
	FileType  string
	Tracks    []Track
}

// Parse reads a cue sheet. Unknown commands are ignored, as players do.
func Parse(r io.Reader) (*Sheet, error) {
	sheet := &Sheet{}
	var current *Track

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		args := splitFields(line)
		if len(args) == 0 {
			continue
		}

		switch strings.ToUpper(args[0]) {
		case "REM":
			// Comments and nonstandard extensions.
		case "TITLE":
			if len(args) < 2 {
				continue
			}
			if current != nil {
				current.Title = args[1]
			} else {
				sheet.Title = args[1]
			}
		case "PERFORMER":
			if len(args) < 2 {
				continue
			}
			if current != nil {
				current.Performer = args[1]
			} else {
				sheet.Performer = args[1]
			}
		case "FILE":
			if len(args) >= 2 {
				sheet.File = args[1]
			}
			if len(args) >= 3 {
				sheet.FileType = args[2]
			}
		case "TRACK":
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: %q", ErrMalformedSheet, line)
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("%w: bad track number %q", ErrMalformedSheet, args[1])
			}
			sheet.Tracks = append(sheet.Tracks, Track{
				Number: number,
				Type:   strings.ToUpper(args[2]),
			})
			current = &sheet.Tracks[len(sheet.Tracks)-1]
		case "INDEX":
			if current == nil || len(args) < 3 {
				return nil, fmt.Errorf("%w: %q", ErrMalformedSheet, line)
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("%w: bad index number %q", ErrMalformedSheet, args[1])
			}
			tc, err := ParseTimecode(args[2])
			if err != nil {
				return nil, err
			}
			current.Indices = append(current.Indices, Index{Number: number, Time: tc})
		case "PREGAP":
			if current == nil || len(args) < 2 {
				continue
			}
			tc, err := ParseTimecode(args[1])
			if err != nil {
				return nil, err
			}
			current.Pregap = tc
		case "POSTGAP":
			if current == nil || len(args) < 2 {
				continue
			}
			tc, err := ParseTimecode(args[1])
			if err != nil {
				return nil, err
			}
			current.Postgap = tc
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sheet.Tracks) == 0 {
		return nil, ErrNoTracks
	}
	return sheet, nil
}

// splitFields tokenizes a cue line, honoring double-quoted strings.
func splitFields(line string) []string {
	var fields []string
	var b strings.Builder
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t'):
			if b.Len() > 0 {
				fields = append(fields, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		fields = append(fields, b.String())
	}
	return fields
}

// TrackSpan is one audio track with its length in cue frames. Frames of 0
// means the track extends to the physical end of the stream, which is always
// the case for the final track regardless of what the sheet claims.
type TrackSpan struct {
	Number int
	Title  string
	Frames int
}

// AudioTracks filters the sheet down to audio-mode tracks and computes each
// track's length from the start of the following track, including pregap and
// postgap. The final span is always open-ended.
func (s *Sheet) AudioTracks() []TrackSpan {
	var spans []TrackSpan
	for i, t := range s.Tracks {
		if t.Type != "AUDIO" {
			continue
		}
		start, ok := t.Start()
		if !ok {
			continue
		}

		frames := 0
		if next := nextStart(s.Tracks, i); next >= 0 {
			frames = next - start.TotalFrames()
			if frames < 0 {
				frames = 0
			}
			frames += t.Pregap.TotalFrames() + t.Postgap.TotalFrames()
		}
		spans = append(spans, TrackSpan{Number: t.Number, Title: t.Title, Frames: frames})
	}
	if len(spans) > 0 {
		spans[len(spans)-1].Frames = 0
	}
	return spans
}

// nextStart returns the start frame of the first track after index i that
// has a usable index, or -1.
func nextStart(tracks []Track, i int) int {
	for _, t := range tracks[i+1:] {
		if start, ok := t.Start(); ok {
			return start.TotalFrames()
		}
	}
	return -1
}

// Samples converts a cue frame count to a sample count at the given rate.
func Samples(frames, sampleRate int) int64 {
	return int64(frames) * int64(sampleRate) / FramesPerSecond
}

// SidecarPath locates the cue sheet accompanying a source file, checking the
// "name.ext.cue" convention first and then "name.cue".
func SidecarPath(sourcePath string) (string, bool) {
	candidates := []string{
		sourcePath + ".cue",
		strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".cue",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
