// Package meta extracts the tag fields the transcoder needs: title, track
// and disc positions, artist, and an optional embedded cover image. Tag
// failures are reported to the caller but never abort a transcode; naming
// falls back to the source file name.
package meta

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

var ErrNoTags = fmt.Errorf("no readable tags")

// Picture is an embedded cover image.
type Picture struct {
	MIME string
	Data []byte
}

// Fields holds the extracted tag values. Absent fields are zero values.
type Fields struct {
	Title  string
	Track  int
	Disc   int
	Artist string
	Cover  *Picture
}

// HasTitle reports whether the title is usable for naming. Empty and
// whitespace-only titles are rejected.
func (f Fields) HasTitle() bool {
	return strings.TrimSpace(f.Title) != ""
}

// Read opens the media file's tag container and extracts the fields.
func Read(path string) (Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fields{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %s: %v", ErrNoTags, path, err)
	}

	fields := Fields{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
	}
	fields.Track, _ = m.Track()
	fields.Disc, _ = m.Disc()

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		fields.Cover = &Picture{MIME: pic.MIMEType, Data: pic.Data}
	}
	return fields, nil
}
