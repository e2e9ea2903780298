package processor

import "context"

// Processor drives the per-chapter pipeline stages.
type Processor interface {
	// ProcessScript synthesizes one chapter script into an assembled audio
	// track and a persisted marker timeline.
	ProcessScript(ctx context.Context, scriptPath string) error

	// RenderChapter builds the chapter video from its persisted timeline,
	// assembled audio, and image folder.
	RenderChapter(ctx context.Context, chapter int) error

	// AudioAll runs ProcessScript for every script in the scripts folder.
	AudioAll(ctx context.Context) []ChapterResult

	// VideoAll runs RenderChapter for every assembled chapter audio track.
	VideoAll(ctx context.Context) []ChapterResult
}

// ChapterResult records one chapter's outcome in a batch run.
type ChapterResult struct {
	Chapter int
	Stage   string
	Err     error
}
