package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vunguyen2308/manhwa-reel/internal/config"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
	"github.com/vunguyen2308/manhwa-reel/internal/timeline"
	"github.com/vunguyen2308/manhwa-reel/pkg/executor"
)

// RenderError reports a failed composite-and-mux step.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render failed: %s: %v", e.Reason, e.Err)
	}
	return "render failed: " + e.Reason
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer composites timed still images over a chapter audio track and
// muxes them into a final container through ffmpeg.
type Renderer struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg *config.Config, exec executor.Executor, log logger.Logger) *Renderer {
	return &Renderer{cfg: cfg, executor: exec, logger: log}
}

// Ext returns the output container extension for the configured mode.
func (r *Renderer) Ext() string {
	if r.cfg.Video.Transparent {
		return ".mov"
	}
	return ".mp4"
}

// Render slices the image sequence by the display intervals, lays the
// chapter audio underneath, and writes the final container to outPath.
func (r *Renderer) Render(ctx context.Context, intervals []timeline.DisplayInterval, imagePaths []string, audioPath, outPath string) error {
	if len(intervals) == 0 {
		return &RenderError{Reason: "no display intervals"}
	}
	for _, iv := range intervals {
		if iv.ImageIndex >= len(imagePaths) {
			return &RenderError{Reason: fmt.Sprintf("interval references image %d, only %d available",
				iv.ImageIndex, len(imagePaths))}
		}
	}

	listPath := outPath + ".frames.txt"
	if err := os.WriteFile(listPath, []byte(frameList(intervals, imagePaths)), 0644); err != nil {
		return &RenderError{Reason: "write frame list", Err: err}
	}
	defer os.Remove(listPath)

	videoCodec := r.cfg.FFmpeg.VideoCodec
	if r.cfg.Video.Transparent {
		videoCodec = "qtrle"
	}

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-i", audioPath,
		"-c:v", videoCodec,
		"-r", strconv.Itoa(r.cfg.FFmpeg.FPS),
		"-preset", r.cfg.FFmpeg.Preset,
		"-c:a", r.cfg.FFmpeg.AudioCodec,
		"-b:a", r.cfg.FFmpeg.AudioBitrate,
		// Even pixel dimensions, required by yuv420p encoders.
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-y",
		outPath,
	}
	if r.cfg.Video.Transparent {
		// qtrle keeps the alpha channel; no pixel format coercion.
		args = removeArgPair(args, "-pix_fmt")
		args = removeArgPair(args, "-preset")
	}

	r.logger.Info(ctx, "Rendering %s (%d intervals)", outPath, len(intervals))
	if _, err := r.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return &RenderError{Reason: "ffmpeg composite", Err: err}
	}

	return nil
}

// frameList renders the ffmpeg concat demuxer script assigning each image
// its display duration. The final file entry is repeated without a duration
// per the demuxer's contract.
func frameList(intervals []timeline.DisplayInterval, imagePaths []string) string {
	var b strings.Builder
	var lastPath string
	for _, iv := range intervals {
		path := absPath(imagePaths[iv.ImageIndex])
		fmt.Fprintf(&b, "file '%s'\n", escapeQuotes(path))
		fmt.Fprintf(&b, "duration %.6f\n", iv.End-iv.Start)
		lastPath = path
	}
	if lastPath != "" {
		fmt.Fprintf(&b, "file '%s'\n", escapeQuotes(lastPath))
	}
	return b.String()
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func escapeQuotes(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

func removeArgPair(args []string, flag string) []string {
	for i, a := range args {
		if a == flag {
			return append(args[:i:i], args[i+2:]...)
		}
	}
	return args
}
