// Package config loads the immutable configuration snapshot shared by all
// workers. The snapshot is read once at startup and never mutated after
// dispatch.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/format"
)

// Config is the transcode configuration snapshot.
type Config struct {
	LogLevel int `yaml:"log_level"`

	// Workers bounds how many decode/encode pairs are alive at once.
	Workers int `yaml:"workers"`

	// Media classes to process.
	ProcessAudio  bool `yaml:"process_audio"`
	ProcessVideo  bool `yaml:"process_video"`
	ProcessModule bool `yaml:"process_module"`

	// MP3 encoder settings.
	Bitrate int `yaml:"bitrate"`
	Quality int `yaml:"quality"`

	// UseCueSheet splits sources with a sidecar cue file into tracks.
	UseCueSheet bool `yaml:"use_cue_sheet"`

	// Cover art extraction.
	ExtractCover bool   `yaml:"extract_cover"`
	CoverName    string `yaml:"cover_name"`

	// RenameFromMetadata derives output names from tags when present.
	RenameFromMetadata bool `yaml:"rename_from_metadata"`

	// StripTags drops existing tags instead of carrying them over.
	StripTags bool `yaml:"strip_tags"`

	// DeleteOnFailure removes the in-progress output file when a worker
	// fails or is cancelled.
	DeleteOnFailure bool `yaml:"delete_on_failure"`

	// ArchiveSuffix, when non-empty, renames the source file by appending
	// this suffix after a successful transcode. MP3 sources are never
	// renamed.
	ArchiveSuffix string `yaml:"archive_suffix"`

	// CreatePlaylist writes an M3U playlist per processed directory.
	CreatePlaylist bool `yaml:"create_playlist"`

	// Format holds the output-name formatting rules.
	Format format.Config `yaml:"format"`
}

// Load reads and validates the configuration at path, applying defaults for
// unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Workers:            runtime.NumCPU(),
		ProcessAudio:       true,
		ProcessModule:      true,
		Bitrate:            320,
		Quality:            2,
		UseCueSheet:        true,
		ExtractCover:       true,
		CoverName:          "Frontal",
		RenameFromMetadata: true,
		DeleteOnFailure:    true,
		Format:             format.DefaultConfig(),
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Bitrate < 8 || c.Bitrate > 320 {
		return fmt.Errorf("bitrate %d out of range [8, 320]", c.Bitrate)
	}
	if c.Quality < 0 || c.Quality > 9 {
		return fmt.Errorf("quality %d out of range [0, 9]", c.Quality)
	}
	if c.ExtractCover && c.CoverName == "" {
		c.CoverName = "Frontal"
	}
	return nil
}
