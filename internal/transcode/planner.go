package transcode

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/config"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/cue"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/format"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/meta"
)

// planDestinations computes the ordered destination queue for a source.
// With cue splitting enabled and a parseable sidecar sheet, one destination
// per audio track is produced, the last one open-ended. Otherwise a single
// destination covers the whole file, named from tags when metadata renaming
// is enabled and usable, else from the source file name.
func planDestinations(source domain.Source, cfg *config.Config, info domain.AudioInfo, report func(string)) []domain.Destination {
	if cfg.UseCueSheet {
		if dests, ok := planFromCueSheet(source, cfg, info, report); ok {
			return dests
		}
	}
	return []domain.Destination{{Name: wholeFileName(source, cfg, report), Duration: 0}}
}

// planFromCueSheet builds destinations from the sidecar cue sheet, if any.
func planFromCueSheet(source domain.Source, cfg *config.Config, info domain.AudioInfo, report func(string)) ([]domain.Destination, bool) {
	path, ok := cue.SidecarPath(source.Path)
	if !ok {
		return nil, false
	}
	f, err := os.Open(path)
	if err != nil {
		report(fmt.Sprintf("Cannot open cue sheet %s: %v", path, err))
		return nil, false
	}
	defer f.Close()

	sheet, err := cue.Parse(f)
	if err != nil {
		report(fmt.Sprintf("Cannot parse cue sheet %s: %v", path, err))
		return nil, false
	}
	spans := sheet.AudioTracks()
	if len(spans) == 0 {
		return nil, false
	}

	dests := make([]domain.Destination, 0, len(spans))
	for i, span := range spans {
		title := span.Title
		if title == "" {
			title = fmt.Sprintf("track %d", i+1)
		}
		raw := fmt.Sprintf("%d %s", i+1, title)
		dests = append(dests, domain.Destination{
			Name:     format.Clean(raw, cfg.Format),
			Duration: cue.Samples(span.Frames, info.SampleRate),
		})
	}
	slog.Debug("Planned destinations from cue sheet", "source", source.Path,
		"sheet", path, "tracks", len(dests))
	return dests, true
}

// wholeFileName names the single whole-file destination.
func wholeFileName(source domain.Source, cfg *config.Config, report func(string)) string {
	if cfg.RenameFromMetadata {
		fields, err := meta.Read(source.Path)
		if err != nil {
			// Tag failures degrade to file-name naming, they do not
			// fail the worker.
			report(fmt.Sprintf("Cannot read tags of %s: %v", source.Path, err))
		} else if name := metadataName(fields); name != "" {
			return format.Clean(name, cfg.Format)
		}
	}
	return format.Clean(source.BaseName(), cfg.Format)
}

// metadataName builds "prefix artist title" from tag fields. The prefix is
// the track number, or "disc-track" when a disc position exists. A missing
// or whitespace-only title reduces the name to the prefix alone; with no
// prefix either, the empty string tells the caller to fall back.
func metadataName(fields meta.Fields) string {
	var prefix string
	if fields.Track > 0 {
		if fields.Disc > 0 {
			prefix = fmt.Sprintf("%d-%d", fields.Disc, fields.Track)
		} else {
			prefix = fmt.Sprintf("%d", fields.Track)
		}
	}
	if !fields.HasTitle() {
		return prefix
	}

	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if fields.Artist != "" {
		parts = append(parts, fields.Artist)
	}
	parts = append(parts, strings.TrimSpace(fields.Title))
	return strings.Join(parts, " ")
}
