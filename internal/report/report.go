package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/vunguyen2308/manhwa-reel/internal/audio"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
	"github.com/vunguyen2308/manhwa-reel/internal/processor"
	"github.com/vunguyen2308/manhwa-reel/internal/script"
	"github.com/vunguyen2308/manhwa-reel/internal/timeline"
	"github.com/vunguyen2308/manhwa-reel/internal/tts"
	"github.com/vunguyen2308/manhwa-reel/internal/video"
)

// Summary aggregates a batch run's per-chapter outcomes.
type Summary struct {
	Results []processor.ChapterResult
}

// New creates a Summary over the collected chapter results.
func New(results []processor.ChapterResult) *Summary {
	return &Summary{Results: results}
}

// Succeeded counts chapters that completed without error.
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts chapters that ended in an error.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// Kind names the error family a chapter failure belongs to, so the summary
// can be read without chasing stack traces.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}

	var (
		cerr *script.ChunkingError
		serr *tts.SynthesisError
		ierr *timeline.InconsistencyError
		aerr *audio.AssemblyError
		rerr *video.RenderError
	)
	switch {
	case errors.As(err, &cerr):
		return "chunking violation"
	case errors.As(err, &serr):
		return "synthesis failure"
	case errors.As(err, &ierr):
		return "timeline inconsistency"
	case errors.As(err, &aerr):
		return "assembly failure"
	case errors.As(err, &rerr):
		return "render failure"
	default:
		return "pipeline error"
	}
}

// Log prints the batch outcome, one line per chapter plus a closing tally.
func (s *Summary) Log(ctx context.Context, log logger.Logger) {
	log.Info(ctx, "========================================")
	log.Info(ctx, "Batch summary: %d succeeded, %d failed", s.Succeeded(), s.Failed())
	for _, r := range s.Results {
		if r.Err == nil {
			log.Info(ctx, "  chapter %d [%s]: ok", r.Chapter, r.Stage)
			continue
		}
		log.Error(ctx, "  chapter %d [%s]: %s: %v", r.Chapter, r.Stage, Kind(r.Err), r.Err)
	}
	log.Info(ctx, "========================================")
}

// Line renders one result as a plain-text row (also used by the docx
// report).
func Line(r processor.ChapterResult) string {
	if r.Err == nil {
		return fmt.Sprintf("Chapter %d (%s): ok", r.Chapter, r.Stage)
	}
	return fmt.Sprintf("Chapter %d (%s): %s: %v", r.Chapter, r.Stage, Kind(r.Err), r.Err)
}
