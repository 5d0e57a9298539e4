package cue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSheet = `REM GENRE Electronica
TITLE "Full Album"
PERFORMER "Some Artist"
FILE "album.flac" WAVE
  TRACK 01 AUDIO
    TITLE "First Song"
    PERFORMER "Some Artist"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Second Song"
    INDEX 00 00:04:70
    INDEX 01 00:05:00
  TRACK 03 AUDIO
    TITLE "Third Song"
    INDEX 01 00:12:37
`

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		frames  int
		wantErr bool
	}{
		{"zero", "00:00:00", 0, false},
		{"simple", "01:02:03", (60+2)*75 + 3, false},
		{"long minutes", "100:00:00", 100 * 60 * 75, false},
		{"frame overflow", "00:00:75", 0, true},
		{"seconds overflow", "00:60:00", 0, true},
		{"two fields", "01:02", 0, true},
		{"garbage", "aa:bb:cc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := ParseTimecode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTimecode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.frames, tc.TotalFrames())
		})
	}
}

func TestParse(t *testing.T) {
	sheet, err := Parse(strings.NewReader(sampleSheet))
	require.NoError(t, err)

	assert.Equal(t, "Full Album", sheet.Title)
	assert.Equal(t, "Some Artist", sheet.Performer)
	assert.Equal(t, "album.flac", sheet.File)
	require.Len(t, sheet.Tracks, 3)
	assert.Equal(t, "First Song", sheet.Tracks[0].Title)
	assert.Equal(t, "Second Song", sheet.Tracks[1].Title)

	start, ok := sheet.Tracks[1].Start()
	require.True(t, ok)
	assert.Equal(t, 5*75, start.TotalFrames())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("TITLE \"no tracks\"\n"))
	assert.ErrorIs(t, err, ErrNoTracks)

	_, err = Parse(strings.NewReader("TRACK xx AUDIO\n"))
	assert.ErrorIs(t, err, ErrMalformedSheet)

	_, err = Parse(strings.NewReader("INDEX 01 00:00:00\n"))
	assert.ErrorIs(t, err, ErrMalformedSheet)
}

func TestAudioTracks(t *testing.T) {
	sheet, err := Parse(strings.NewReader(sampleSheet))
	require.NoError(t, err)

	spans := sheet.AudioTracks()
	require.Len(t, spans, 3)

	assert.Equal(t, 5*75, spans[0].Frames)
	assert.Equal(t, (12*75+37)-(5*75), spans[1].Frames)
	// The last track is always open-ended so decoding runs to EOF.
	assert.Equal(t, 0, spans[2].Frames)
}

func TestAudioTracksFiltersNonAudio(t *testing.T) {
	const mixed = `FILE "disc.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Hidden Song"
    INDEX 01 01:00:00
`
	sheet, err := Parse(strings.NewReader(mixed))
	require.NoError(t, err)

	spans := sheet.AudioTracks()
	require.Len(t, spans, 1)
	assert.Equal(t, "Hidden Song", spans[0].Title)
	assert.Equal(t, 0, spans[0].Frames)
}

func TestAudioTracksLastForcedOpenEnded(t *testing.T) {
	// Even when the sheet states an explicit end via a following non-audio
	// track, the final audio span must run to EOF to absorb samples the
	// sheet under-accounts for.
	sheet, err := Parse(strings.NewReader(sampleSheet))
	require.NoError(t, err)
	spans := sheet.AudioTracks()
	assert.True(t, spans[len(spans)-1].Frames == 0)
}

func TestSamples(t *testing.T) {
	assert.Equal(t, int64(220500), Samples(375, 44100))
	assert.Equal(t, int64(0), Samples(0, 44100))
}

func TestSidecarPath(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "album.flac")

	_, ok := SidecarPath(source)
	assert.False(t, ok)

	appended := source + ".cue"
	require.NoError(t, os.WriteFile(appended, []byte(sampleSheet), 0o644))
	got, ok := SidecarPath(source)
	assert.True(t, ok)
	assert.Equal(t, appended, got)

	require.NoError(t, os.Remove(appended))
	replaced := filepath.Join(dir, "album.cue")
	require.NoError(t, os.WriteFile(replaced, []byte(sampleSheet), 0o644))
	got, ok = SidecarPath(source)
	assert.True(t, ok)
	assert.Equal(t, replaced, got)
}
