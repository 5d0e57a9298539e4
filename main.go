package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/config"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/job"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/progress"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Configuration file")
	dir := flag.String("dir", ".", "Directory to scan for transcodable files")
	list := flag.String("list", "", "File with one source path per line, instead of scanning")
	workers := flag.Int("workers", 0, "Concurrent transcodes (overrides configuration)")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	level := slog.Level(cfg.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sources, err := collectSources(*dir, *list, cfg)
	if err != nil {
		slog.Error("Failed to collect sources", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		fmt.Println("Nothing to transcode.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(
		len(sources),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Transcoding...[reset]"),
	)

	manager := job.NewManager()
	pool := job.NewPool(cfg, manager, func(ev progress.Event) {
		switch ev.Stage {
		case progress.StageComplete, progress.StageError, progress.StageCancelled:
			bar.Add(1)
		}
		if ev.Error != "" {
			slog.Warn(ev.Error, "source", ev.Source)
		}
	})

	result, err := pool.Process(ctx, sources)
	if err != nil {
		slog.Error("Job failed to start", "error", err)
		os.Exit(1)
	}
	bar.Finish()
	fmt.Println()

	snap := result.Snapshot()
	fmt.Printf("%s: %s\n", snap.Status, snap.Message)
	for _, msg := range snap.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
	if snap.Status == job.StatusFailed || snap.Status == job.StatusCancelled {
		os.Exit(1)
	}
}

// loadConfig reads the YAML configuration, falling back to defaults when
// the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("No configuration file, using defaults", "path", path)
		return config.Default(), nil
	}
	return cfg, err
}

// collectSources builds the batch, either from a list file or by walking
// dir for files of the enabled media classes.
func collectSources(dir, list string, cfg *config.Config) ([]domain.Source, error) {
	if list != "" {
		return sourcesFromList(list, cfg)
	}
	return scanDirectory(dir, cfg)
}

func sourcesFromList(path string, cfg *config.Config) ([]domain.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sources []domain.Source
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		info, err := os.Stat(line)
		if err != nil {
			slog.Warn("Skipping unreadable source", "path", line, "error", err)
			continue
		}
		if info.IsDir() || !classEnabled(domain.ClassForPath(line), cfg) {
			continue
		}
		sources = append(sources, domain.Source{Path: line, Size: info.Size()})
	}
	return sources, scanner.Err()
}

func scanDirectory(dir string, cfg *config.Config) ([]domain.Source, error) {
	var sources []domain.Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !classEnabled(domain.ClassForPath(path), cfg) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		sources = append(sources, domain.Source{Path: path, Size: info.Size()})
		return nil
	})
	return sources, err
}

func classEnabled(class domain.MediaClass, cfg *config.Config) bool {
	switch class {
	case domain.ClassAudio:
		return cfg.ProcessAudio
	case domain.ClassVideo:
		return cfg.ProcessVideo
	case domain.ClassModule:
		return cfg.ProcessModule
	default:
		return false
	}
}
