package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vunguyen2308/manhwa-reel/internal/script"
	"github.com/vunguyen2308/manhwa-reel/internal/timeline"
	"github.com/vunguyen2308/manhwa-reel/internal/tts"
)

var chapterNumRe = regexp.MustCompile(`\d+`)

// chapterNum extracts the chapter number from a script or audio filename.
func chapterNum(path string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := chapterNumRe.FindString(stem)
	if m == "" {
		return 0, fmt.Errorf("no chapter number in %q", filepath.Base(path))
	}
	return strconv.Atoi(m)
}

// ProcessScript turns one marked chapter script into an assembled audio
// track plus a persisted chapter timeline: chunk, synthesize each chunk in
// order, rebase marker timestamps by the running offset, then concatenate.
func (p *implProcessor) ProcessScript(ctx context.Context, scriptPath string) error {
	chapter, err := chapterNum(scriptPath)
	if err != nil {
		return err
	}

	startTime := time.Now()
	p.logger.Info(ctx, "Chapter %d: processing script %s", chapter, scriptPath)

	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	doc, err := script.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	chunks, err := script.Split(doc, p.cfg.TTS.MaxChunkLen)
	if err != nil {
		return err
	}
	p.logger.Info(ctx, "Chapter %d: %d chunk(s), %d marker(s)", chapter, len(chunks), len(doc.Markers))

	if err := os.MkdirAll(p.cfg.Paths.Temp, 0755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	voice := tts.VoiceConfig{
		Name:         p.cfg.TTS.VoiceName,
		LanguageCode: p.cfg.TTS.LanguageCode,
		Gender:       p.cfg.TTS.Gender,
		SpeakingRate: p.cfg.TTS.SpeakingRate,
	}
	pacing := time.Duration(p.cfg.TTS.PacingMs) * time.Millisecond

	acc := timeline.NewAccumulator()
	var chunkFiles []string
	defer func() {
		for _, f := range chunkFiles {
			p.cleanupTempFile(ctx, f)
		}
	}()

	for _, chunk := range chunks {
		if chunk.Index > 0 && pacing > 0 {
			// Rate-limit courtesy toward the synthesis endpoint.
			select {
			case <-time.After(pacing):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		result, err := p.synthesizer.Synthesize(ctx, chunk.SSML, chunk.Markers, voice)
		if err != nil {
			return fmt.Errorf("chapter %d chunk %d: %w", chapter, chunk.Index, err)
		}

		chunkPath := filepath.Join(p.cfg.Paths.Temp,
			fmt.Sprintf("chapter%d_chunk%d.mp3", chapter, chunk.Index+1))
		if err := os.WriteFile(chunkPath, result.Audio, 0644); err != nil {
			return fmt.Errorf("write chunk audio: %w", err)
		}
		chunkFiles = append(chunkFiles, chunkPath)

		duration, err := p.assembler.Duration(ctx, chunkPath)
		if err != nil {
			return fmt.Errorf("chapter %d chunk %d: %w", chapter, chunk.Index, err)
		}

		if err := acc.Add(result.Timepoints, duration); err != nil {
			return fmt.Errorf("chapter %d: %w", chapter, err)
		}

		p.logger.Debug(ctx, "Chapter %d: chunk %d done (%.2fs, %d timepoints)",
			chapter, chunk.Index+1, duration, len(result.Timepoints))
	}

	tl := acc.Finish()

	if err := os.MkdirAll(p.cfg.Paths.Audio, 0755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	audioPath := filepath.Join(p.cfg.Paths.Audio, fmt.Sprintf("chapter%d.mp3", chapter))
	if err := p.assembler.Concat(ctx, chunkFiles, audioPath, tl.TotalDuration); err != nil {
		return fmt.Errorf("chapter %d: %w", chapter, err)
	}

	if err := os.MkdirAll(p.cfg.Paths.Timepoints, 0755); err != nil {
		return fmt.Errorf("create timepoints dir: %w", err)
	}
	timepointsPath := filepath.Join(p.cfg.Paths.Timepoints, fmt.Sprintf("chapter%d.json", chapter))
	if err := tl.Save(timepointsPath); err != nil {
		return fmt.Errorf("chapter %d: %w", chapter, err)
	}

	p.logger.Info(ctx, "Chapter %d: audio %s (%.2fs, %d markers) in %s",
		chapter, audioPath, tl.TotalDuration, len(tl.Points), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
