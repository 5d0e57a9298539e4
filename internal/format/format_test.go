package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain name", "some track", "Some Track"},
		{"underscores and dots", "my_track.name", "My Track Name"},
		{"deleted characters", "track [remastered]", "Track Remastered"},
		{"numeric prefix padded", "3 intro", "03 - Intro"},
		{"numeric prefix repadded", "003. intro", "03 - Intro"},
		{"prefix only", "7", "07"},
		{"roman numeral", "symphony part ii", "Symphony Part II"},
		{"collapsed whitespace", "a   b\tc", "A B C"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.raw, cfg))
		})
	}
}

// Applying Clean to its own output must be a no-op, otherwise repeated runs
// over a directory would keep mangling names.
func TestCleanIdempotent(t *testing.T) {
	cfg := DefaultConfig()

	inputs := []string{
		"3 intro",
		"01 - Already Clean",
		"some_track [live]",
		"iv",
		"12",
		"Mr. Big",
	}

	for _, raw := range inputs {
		once := Clean(raw, cfg)
		twice := Clean(once, cfg)
		assert.Equal(t, once, twice, "input %q", raw)
	}
}

func TestCleanDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply = false

	assert.Equal(t, "raw_NAME [x]", Clean("  raw_NAME [x] ", cfg))
}

func TestCleanCustomReplacements(t *testing.T) {
	cfg := Config{
		Apply:        true,
		ReplaceChars: []Replacement{{From: "&", To: "and"}},
	}

	assert.Equal(t, "you and me", Clean("you & me", cfg))
}
