package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vunguyen2308/manhwa-reel/internal/images"
	"github.com/vunguyen2308/manhwa-reel/internal/timeline"
)

// RenderChapter builds the chapter video: load the persisted timeline, pair
// it with the chapter's ordered images, and hand the display intervals to
// the renderer together with the assembled audio.
func (p *implProcessor) RenderChapter(ctx context.Context, chapter int) error {
	audioPath := filepath.Join(p.cfg.Paths.Audio, fmt.Sprintf("chapter%d.mp3", chapter))
	timepointsPath := filepath.Join(p.cfg.Paths.Timepoints, fmt.Sprintf("chapter%d.json", chapter))
	imageDir := filepath.Join(p.cfg.Paths.Chapters, fmt.Sprintf("chapter%d", chapter))

	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("chapter %d audio missing: %w", chapter, err)
	}

	// The audio track is the source of truth for total duration; the
	// timeline's end boundary must land on it.
	total, err := p.assembler.Duration(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("chapter %d: %w", chapter, err)
	}

	tl, err := timeline.Load(timepointsPath, total)
	if err != nil {
		return fmt.Errorf("chapter %d: %w", chapter, err)
	}

	assets, err := images.Discover(imageDir)
	if err != nil {
		return fmt.Errorf("chapter %d: %w", chapter, err)
	}
	if len(assets) == 0 {
		return fmt.Errorf("chapter %d: no ordered images in %s", chapter, imageDir)
	}

	intervals, stats := timeline.BuildIntervals(tl, len(assets))
	if stats.Exceeds(p.cfg.Video.TruncateWarnFrac) {
		p.logger.Warn(ctx, "Chapter %d: marker/image mismatch, dropped %d of %d markers and %d of %d images",
			chapter, stats.DroppedMarkers, stats.TotalMarkers, stats.DroppedImages, stats.TotalImages)
	}
	if len(intervals) == 0 {
		return fmt.Errorf("chapter %d: no display intervals", chapter)
	}

	if err := os.MkdirAll(p.cfg.Paths.Videos, 0755); err != nil {
		return fmt.Errorf("create videos dir: %w", err)
	}
	outPath := filepath.Join(p.cfg.Paths.Videos, fmt.Sprintf("chapter%d%s", chapter, p.renderer.Ext()))

	if err := p.renderer.Render(ctx, intervals, images.Paths(assets), audioPath, outPath); err != nil {
		return fmt.Errorf("chapter %d: %w", chapter, err)
	}

	p.logger.Info(ctx, "Chapter %d: video saved -> %s", chapter, outPath)
	return nil
}
