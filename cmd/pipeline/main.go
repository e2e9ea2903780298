package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vunguyen2308/manhwa-reel/internal/archive"
	"github.com/vunguyen2308/manhwa-reel/internal/config"
	"github.com/vunguyen2308/manhwa-reel/internal/images"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
	"github.com/vunguyen2308/manhwa-reel/internal/processor"
	"github.com/vunguyen2308/manhwa-reel/internal/report"
	"github.com/vunguyen2308/manhwa-reel/internal/script"
	"github.com/vunguyen2308/manhwa-reel/internal/scriptgen"
	"github.com/vunguyen2308/manhwa-reel/internal/tts"
	"github.com/vunguyen2308/manhwa-reel/internal/watcher"
	"github.com/vunguyen2308/manhwa-reel/pkg/executor"
)

const usage = `Usage: pipeline <command> [flags]

Commands:
  generate   generate narration scripts from chapter images via Gemini
  marks      rewrite asterisks in scripts to numbered marker tags
  images     convert webp scans and move blank pages aside
  audio      synthesize chapter scripts into audio + marker timelines
  video      render chapter videos from timelines, images and audio
  all        audio then video
  watch      process new chapter scripts as they appear
  archive    zip the audio and timepoints folders
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := flags.String("config", "config.yaml", "path to config file")
	title := flags.String("title", "", "manhwa title (generate)")
	reportPath := flags.String("report", "", "write a docx batch report to this path")
	flags.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	ctx := context.Background()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Manhwa Chapter Video Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "Scripts: %s", cfg.Paths.Scripts)
	log.Info(ctx, "Chapters: %s", cfg.Paths.Chapters)
	log.Info(ctx, "Max concurrent chapters: %d", cfg.Performance.MaxConcurrent)

	exec := executor.New()
	synth := tts.NewGoogleSynthesizer(cfg.TTS.APIKey,
		tts.WithTimeout(time.Duration(cfg.TTS.TimeoutSec)*time.Second),
		tts.WithMaxRetries(cfg.TTS.MaxRetries),
	)
	proc := processor.New(cfg, synth, exec, log)

	var runErr error
	switch command {
	case "generate":
		gen := scriptgen.New(cfg.Gemini.APIKeys, cfg.Gemini.Model,
			cfg.Gemini.BatchSize, cfg.Gemini.LinesPerBatch,
			time.Duration(cfg.Gemini.PacingMs)*time.Millisecond, log)
		runErr = gen.GenerateAll(ctx, cfg.Paths.Chapters, *title, cfg.Paths.Scripts)

	case "marks":
		runErr = script.InsertMarksDir(ctx, cfg.Paths.Scripts, log)

	case "images":
		runErr = prepareImages(ctx, cfg, exec, log)

	case "audio":
		runErr = runBatch(ctx, cfg, log, *reportPath, proc.AudioAll(ctx))

	case "video":
		runErr = runBatch(ctx, cfg, log, *reportPath, proc.VideoAll(ctx))

	case "all":
		results := proc.AudioAll(ctx)
		results = append(results, proc.VideoAll(ctx)...)
		runErr = runBatch(ctx, cfg, log, *reportPath, results)

	case "watch":
		runErr = runWatch(ctx, cfg, proc, log)

	case "archive":
		out := filepath.Join(filepath.Dir(cfg.Paths.Audio), "chapters.zip")
		if runErr = archive.ZipFolders(out, cfg.Paths.Audio, cfg.Paths.Timepoints); runErr == nil {
			log.Info(ctx, "Created archive -> %s", out)
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if runErr != nil {
		log.Error(ctx, "%s failed: %v", command, runErr)
		os.Exit(1)
	}
}

// runBatch reports the collected chapter outcomes. The batch itself never
// aborts on a single chapter, so failure here means at least one chapter
// needs attention.
func runBatch(ctx context.Context, cfg *config.Config, log logger.Logger, reportPath string, results []processor.ChapterResult) error {
	summary := report.New(results)
	summary.Log(ctx, log)

	if reportPath != "" {
		if err := summary.SaveDocx("Chapter pipeline report", reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info(ctx, "Report saved -> %s", reportPath)
	}

	if summary.Failed() > 0 {
		return fmt.Errorf("%d of %d chapters failed", summary.Failed(), len(results))
	}
	return nil
}

// prepareImages normalizes every chapter folder: webp conversion, then
// blank-page filtering.
func prepareImages(ctx context.Context, cfg *config.Config, exec executor.Executor, log logger.Logger) error {
	entries, err := os.ReadDir(cfg.Paths.Chapters)
	if err != nil {
		return fmt.Errorf("read chapters dir: %w", err)
	}

	norm := images.NewNormalizer(exec, log)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(cfg.Paths.Chapters, e.Name())
		log.Info(ctx, "Preparing %s", dir)

		if err := norm.ConvertWebP(ctx, dir); err != nil {
			return err
		}
		if _, err := norm.FilterBlank(ctx, dir, cfg.Images.BlankStdDev); err != nil {
			return err
		}
	}
	return nil
}

// runWatch processes newly dropped chapter scripts until interrupted.
func runWatch(ctx context.Context, cfg *config.Config, proc processor.Processor, log logger.Logger) error {
	w, err := watcher.New(cfg.Paths.Scripts, proc.ProcessScript, log, cfg.Performance.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	log.Info(ctx, "Watching %s. Press Ctrl+C to stop", cfg.Paths.Scripts)

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
		cancel()
		return nil
	case err := <-errChan:
		return err
	}
}
