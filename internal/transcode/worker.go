// Package transcode contains the per-file worker: it plans destinations,
// drives the decode session frame by frame, routes audio to the MP3 encoder
// while switching destination files at track boundaries, routes cover
// packets to disk, and owns every resource's lifecycle across failure and
// cancellation.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/config"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/covergate"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/decode"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/encode"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/meta"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/progress"
)

// ErrNoDestination means the plan ran out of destinations while samples
// remained. Cannot happen with well-formed plans: the final destination is
// always open-ended.
var ErrNoDestination = errors.New("no destination left for remaining samples")

// maxNameCollisions bounds the " (n)" suffix retries when two sources
// format to the same output base name.
const maxNameCollisions = 100

// Options assembles a Worker. NewDecoder and NewEncoder default to the real
// libav session and LAME encoder; tests substitute fakes.
type Options struct {
	Source     domain.Source
	Config     *config.Config
	Gate       *covergate.Gate
	Tracker    *progress.Tracker
	NewDecoder func(source domain.Source, opts decode.Options) Decoder
	NewEncoder func(path string) Encoder
}

// Worker transcodes one source file. One instance per source, driven to
// completion (or cancellation) on a single goroutine.
type Worker struct {
	source     domain.Source
	cfg        *config.Config
	gate       *covergate.Gate
	tracker    *progress.Tracker
	newDecoder func(source domain.Source, opts decode.Options) Decoder
	newEncoder func(path string) Encoder

	info      domain.AudioInfo
	dests     []domain.Destination
	destIndex int
	remaining int64
	enc       Encoder
	outputs   []string

	coverPath  string
	coverFile  *os.File
	coverWrote bool
}

// New creates a worker for opts.Source.
func New(opts Options) *Worker {
	w := &Worker{
		source:     opts.Source,
		cfg:        opts.Config,
		gate:       opts.Gate,
		tracker:    opts.Tracker,
		newDecoder: opts.NewDecoder,
		newEncoder: opts.NewEncoder,
	}
	if w.tracker == nil {
		w.tracker = progress.NewTracker(opts.Source.Path)
	}
	if w.newDecoder == nil {
		w.newDecoder = func(source domain.Source, opts decode.Options) Decoder {
			return decode.NewSession(source, opts)
		}
	}
	if w.newEncoder == nil {
		w.newEncoder = func(path string) Encoder {
			return encode.New(path)
		}
	}
	return w
}

// Outputs lists the destination files written so far, in order.
func (w *Worker) Outputs() []string {
	return w.outputs
}

// Run executes the transcode. Cancellation is cooperative: the context is
// checked after each packet, the in-flight packet is abandoned, and teardown
// runs exactly once per opened resource.
func (w *Worker) Run(ctx context.Context) error {
	w.tracker.SetStage(progress.StagePlanning)

	if err := w.checkPermissions(); err != nil {
		return w.abort(err)
	}

	decOpts := decode.Options{
		ExtractCover: w.cfg.ExtractCover,
		Video:        w.source.Class() == domain.ClassVideo,
	}
	if w.cfg.StripTags && w.source.IsMP3() {
		// Feed the decoder through a reader with the ID3v2 block cut off,
		// so stale tag bytes are dropped instead of carried over.
		f, err := os.Open(w.source.Path)
		if err != nil {
			return w.abort(err)
		}
		defer f.Close()
		r, err := meta.SkipID3v2(f)
		if err != nil {
			return w.abort(err)
		}
		decOpts.Reader = r
	}

	dec := w.newDecoder(w.source, decOpts)
	defer dec.Close()

	info, err := dec.Open()
	if err != nil {
		return w.abort(err)
	}
	w.info = info
	if !info.Format.EncoderSupported() {
		return w.abort(fmt.Errorf("%w: %s", encode.ErrUnsupportedFormat, info.Format))
	}

	w.dests = planDestinations(w.source, w.cfg, info, w.tracker.Fail)
	w.claimCover(dec)

	w.tracker.Info(fmt.Sprintf("Transcoding %s from %s", filepath.Base(w.source.Path), w.source.Dir()))
	w.tracker.SetStage(progress.StageDecoding)
	if err := w.openDestination(); err != nil {
		return w.abort(err)
	}

	var consumed int64
	for {
		if ctx.Err() != nil {
			return w.cancelled(ctx)
		}

		p, err := dec.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.abort(err)
		}
		consumed += int64(len(p.Data))

		switch p.Kind {
		case decode.PacketAudio:
			if err := dec.DecodeAudio(p, w.routeFrame); err != nil {
				return w.abort(err)
			}
		case decode.PacketCover:
			if err := w.writeCover(dec, p); err != nil {
				// Cover problems are reported but never fail the
				// transcode; further cover packets are dropped.
				w.tracker.Fail(err.Error())
				w.dropCover()
			}
		}

		if w.source.Size > 0 {
			w.tracker.SetPercent(int(consumed * 100 / w.source.Size))
		}
	}

	if err := dec.FlushAudio(w.routeFrame); err != nil {
		return w.abort(err)
	}
	if err := w.closeDestination(); err != nil {
		return w.abort(err)
	}
	w.closeCover()

	w.tracker.SetPercent(100)
	w.tracker.SetStage(progress.StageComplete)
	w.archive()
	return nil
}

// routeFrame implements the destination-boundary logic: a frame larger than
// the current destination's remaining duration is sliced against successive
// destinations until exhausted, so a single frame may span more than two
// boundaries when track lengths are pathologically small.
func (w *Worker) routeFrame(f domain.Frame) error {
	for f.NbSamples > 0 {
		if w.remaining == 0 {
			// Open-ended destination absorbs everything.
			return w.enc.Encode(f)
		}
		if int64(f.NbSamples) < w.remaining {
			w.remaining -= int64(f.NbSamples)
			return w.enc.Encode(f)
		}

		head, tail := f.Split(int(w.remaining))
		if err := w.enc.Encode(head); err != nil {
			return err
		}
		if err := w.advanceDestination(); err != nil {
			return err
		}
		f = tail
	}
	return nil
}

// openDestination opens an encoder session for the current destination,
// retrying with a " (n)" suffix when another worker produced the same name.
func (w *Worker) openDestination() error {
	d := w.dests[w.destIndex]
	for attempt := 0; attempt < maxNameCollisions; attempt++ {
		name := d.Name
		if attempt > 0 {
			name = fmt.Sprintf("%s (%d)", d.Name, attempt)
		}
		path := filepath.Join(w.source.Dir(), name+".mp3")

		enc := w.newEncoder(path)
		err := enc.Open(w.info, w.cfg.Bitrate, w.cfg.Quality)
		if err == nil {
			w.enc = enc
			w.remaining = d.Duration
			w.outputs = append(w.outputs, path)
			slog.Debug("Opened destination", "path", path, "samples", d.Duration)
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	return fmt.Errorf("cannot find a free output name for %q", d.Name)
}

// advanceDestination finishes the current destination and opens the next.
func (w *Worker) advanceDestination() error {
	if err := w.closeDestination(); err != nil {
		return err
	}
	w.destIndex++
	if w.destIndex >= len(w.dests) {
		return ErrNoDestination
	}
	return w.openDestination()
}

func (w *Worker) closeDestination() error {
	if w.enc == nil {
		return nil
	}
	enc := w.enc
	w.enc = nil
	if err := enc.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// claimCover participates in the cover-art gate when the session found a
// picture stream. Only the claiming worker writes the shared cover file.
func (w *Worker) claimCover(dec Decoder) {
	if !w.cfg.ExtractCover {
		return
	}
	ext, ok := dec.HasCover()
	if !ok {
		return
	}
	path := filepath.Join(w.source.Dir(), w.cfg.CoverName+ext)
	if w.gate != nil && w.gate.TryClaim(path) {
		w.coverPath = path
	}
}

// writeCover appends the packet's JPEG bytes to the claimed cover file.
func (w *Worker) writeCover(dec Decoder, p decode.Packet) error {
	if w.coverPath == "" {
		return nil
	}
	if w.coverFile == nil {
		f, err := os.OpenFile(w.coverPath, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open cover file: %w", err)
		}
		w.coverFile = f
	}

	data, err := dec.DecodeCover(p)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := w.coverFile.Write(data); err != nil {
		return fmt.Errorf("write cover file: %w", err)
	}
	w.coverWrote = true
	return nil
}

// closeCover closes the cover file; a claimed placeholder that never
// received bytes is removed so it does not linger as an empty image.
func (w *Worker) closeCover() {
	if w.coverFile != nil {
		w.coverFile.Close()
		w.coverFile = nil
	}
	if w.coverPath != "" && !w.coverWrote {
		os.Remove(w.coverPath)
	}
	w.coverPath = ""
}

// dropCover stops cover extraction after a failure, releasing the claim.
func (w *Worker) dropCover() {
	w.closeCover()
}

// checkPermissions verifies the source is readable and the output directory
// writable before any decode work begins.
func (w *Worker) checkPermissions() error {
	f, err := os.Open(w.source.Path)
	if err != nil {
		return fmt.Errorf("source not readable: %w", err)
	}
	f.Close()

	probe, err := os.CreateTemp(w.source.Dir(), ".transcode-probe-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}

// abort marks the worker failed, reporting the error and cleaning up the
// in-progress destination according to configuration.
func (w *Worker) abort(err error) error {
	w.tracker.Fail(err.Error())
	w.discardCurrent()
	w.closeCover()
	w.tracker.SetStage(progress.StageError)
	return err
}

// cancelled performs the cooperative-cancellation teardown: the in-flight
// packet is abandoned, the current destination closed and optionally
// deleted.
func (w *Worker) cancelled(ctx context.Context) error {
	w.discardCurrent()
	w.closeCover()
	w.tracker.SetStage(progress.StageCancelled)
	slog.Debug("Transcode cancelled", "source", w.source.Path)
	return ctx.Err()
}

// discardCurrent closes the open encoder session and deletes its partial
// output file when the configuration asks for it.
func (w *Worker) discardCurrent() {
	if w.enc == nil {
		return
	}
	path := w.enc.Path()
	w.enc.Close()
	w.enc = nil
	if w.cfg.DeleteOnFailure {
		os.Remove(path)
	}
}

// archive renames the source with the configured suffix after a successful
// transcode. Sources that are already MP3, and directories, are left alone.
func (w *Worker) archive() {
	if w.cfg.ArchiveSuffix == "" || w.source.IsMP3() {
		return
	}
	info, err := os.Stat(w.source.Path)
	if err != nil || info.IsDir() {
		return
	}
	target := w.source.Path + w.cfg.ArchiveSuffix
	w.tracker.Info(fmt.Sprintf("Renaming %s to %s",
		filepath.Base(w.source.Path), filepath.Base(target)))
	if err := os.Rename(w.source.Path, target); err != nil {
		w.tracker.Fail(fmt.Sprintf("cannot rename %s: %v", w.source.Path, err))
	}
}
