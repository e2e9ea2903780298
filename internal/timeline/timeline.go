package timeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vunguyen2308/manhwa-reel/internal/tts"
)

// Point is one chapter-global marker timestamp.
type Point struct {
	MarkName    string  `json:"markName"`
	TimeSeconds float64 `json:"timeSeconds"`
}

// ChapterTimeline is the accumulated, chapter-wide marker timeline. It is
// built once per chapter and immutable afterwards.
type ChapterTimeline struct {
	Points        []Point
	TotalDuration float64
}

// InconsistencyError reports a non-monotonic accumulated timestamp. It
// indicates a synthesis or chunking defect and is fatal for the chapter.
type InconsistencyError struct {
	MarkName string
	Chunk    int
	Prev     float64
	Got      float64
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("timeline inconsistency at marker %q (chunk %d): %.3fs after %.3fs",
		e.MarkName, e.Chunk, e.Got, e.Prev)
}

// Accumulator walks chunk synthesis results in order and rebases each
// chunk's local marker timestamps by the running duration offset.
type Accumulator struct {
	offset float64
	chunk  int
	points []Point
}

// NewAccumulator returns an empty accumulator with the offset at zero.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add appends one chunk's timepoints, rebased by the current offset, then
// advances the offset by the chunk's audio duration. Results must arrive in
// chunk order.
func (a *Accumulator) Add(points []tts.Timepoint, duration float64) error {
	if duration < 0 {
		return fmt.Errorf("chunk %d has negative duration %.3f", a.chunk, duration)
	}

	for _, tp := range points {
		abs := a.offset + tp.TimeSeconds
		if n := len(a.points); n > 0 && abs < a.points[n-1].TimeSeconds {
			return &InconsistencyError{
				MarkName: tp.MarkName,
				Chunk:    a.chunk,
				Prev:     a.points[n-1].TimeSeconds,
				Got:      abs,
			}
		}
		a.points = append(a.points, Point{MarkName: tp.MarkName, TimeSeconds: abs})
	}

	a.offset += duration
	a.chunk++
	return nil
}

// Finish seals the accumulated timeline. The final offset becomes the
// chapter's total audio duration.
func (a *Accumulator) Finish() *ChapterTimeline {
	return &ChapterTimeline{
		Points:        append([]Point(nil), a.points...),
		TotalDuration: a.offset,
	}
}

// Save persists the timeline's points as an ordered JSON array, the durable
// per-chapter record consumed by video assembly.
func (t *ChapterTimeline) Save(path string) error {
	points := t.Points
	if points == nil {
		points = []Point{}
	}
	data, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timepoints: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write timepoints: %w", err)
	}
	return nil
}

// Load reads a persisted timeline and pairs it with the chapter's total
// audio duration, probed separately from the assembled track.
func Load(path string, totalDuration float64) (*ChapterTimeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timepoints: %w", err)
	}

	var points []Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parse timepoints: %w", err)
	}

	return &ChapterTimeline{Points: points, TotalDuration: totalDuration}, nil
}
