// Package playlist writes extended M3U playlists for transcoded
// directories.
package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoTracks means there is nothing to list.
var ErrNoTracks = errors.New("no tracks for playlist")

// Write creates "<dir base>.m3u" inside dir, listing tracks in the given
// order by base name so the playlist stays valid when the directory moves.
// It returns the playlist path.
func Write(dir string, tracks []string) (string, error) {
	if len(tracks) == 0 {
		return "", ErrNoTracks
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, track := range tracks {
		base := filepath.Base(track)
		title := strings.TrimSuffix(base, filepath.Ext(base))
		fmt.Fprintf(&b, "#EXTINF:-1,%s\n%s\n", title, base)
	}

	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		name = "playlist"
	}
	path := filepath.Join(dir, name+".m3u")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write playlist: %w", err)
	}
	return path, nil
}
