package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vunguyen2308/manhwa-reel/pkg/executor"
)

// Per-chunk tolerance between accumulated timeline offset and the decoded
// track length. MP3 encoders pad each stream to a whole number of frames,
// so drift grows with the chunk count.
const durationTolerancePerChunk = 0.15

// AssemblyError reports a failed concatenation or a duration mismatch
// beyond tolerance. Fatal for the chapter; partial audio is never exposed.
type AssemblyError struct {
	Reason string
	Err    error
}

func (e *AssemblyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio assembly failed: %s: %v", e.Reason, e.Err)
	}
	return "audio assembly failed: " + e.Reason
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// Assembler concatenates chunk audio files and probes durations through
// ffmpeg/ffprobe.
type Assembler struct {
	executor executor.Executor
}

// NewAssembler creates an Assembler on top of the given command executor.
func NewAssembler(exec executor.Executor) *Assembler {
	return &Assembler{executor: exec}
}

// Duration returns the decoded duration of an audio file in seconds.
func (a *Assembler) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	out, err := a.executor.Execute(ctx, "ffprobe", args...)
	if err != nil {
		return 0, &AssemblyError{Reason: "probe duration of " + path, Err: err}
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, &AssemblyError{Reason: fmt.Sprintf("parse ffprobe output %q", strings.TrimSpace(out)), Err: err}
	}
	if dur < 0 {
		return 0, &AssemblyError{Reason: fmt.Sprintf("negative duration %f for %s", dur, path)}
	}

	return dur, nil
}

// Concat joins the chunk files in order into one continuous track with no
// gaps. A single chunk is copied rather than re-encoded. The assembled
// duration must match expectedDuration within the per-chunk tolerance.
func (a *Assembler) Concat(ctx context.Context, chunkPaths []string, outPath string, expectedDuration float64) error {
	if len(chunkPaths) == 0 {
		return &AssemblyError{Reason: "no chunk audio to assemble"}
	}

	if err := a.concat(ctx, chunkPaths, outPath); err != nil {
		return err
	}

	actual, err := a.Duration(ctx, outPath)
	if err != nil {
		return err
	}

	tolerance := durationTolerancePerChunk * float64(len(chunkPaths))
	if diff := math.Abs(actual - expectedDuration); diff > tolerance {
		return &AssemblyError{Reason: fmt.Sprintf(
			"assembled duration %.3fs differs from timeline offset %.3fs by %.3fs (tolerance %.3fs)",
			actual, expectedDuration, diff, tolerance)}
	}

	return nil
}

func (a *Assembler) concat(ctx context.Context, chunkPaths []string, outPath string) error {
	if len(chunkPaths) == 1 {
		data, err := os.ReadFile(chunkPaths[0])
		if err != nil {
			return &AssemblyError{Reason: "read chunk audio", Err: err}
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return &AssemblyError{Reason: "write assembled audio", Err: err}
		}
		return nil
	}

	listPath := outPath + ".concat.txt"
	if err := os.WriteFile(listPath, []byte(concatList(chunkPaths)), 0644); err != nil {
		return &AssemblyError{Reason: "write concat list", Err: err}
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outPath,
	}

	if _, err := a.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return &AssemblyError{Reason: "ffmpeg concat", Err: err}
	}

	return nil
}

// concatList renders the ffmpeg concat demuxer script. Single quotes in
// paths are escaped the way the demuxer expects.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String()
}
