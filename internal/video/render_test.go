package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vunguyen2308/manhwa-reel/internal/config"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
	"github.com/vunguyen2308/manhwa-reel/internal/timeline"
)

type fakeExecutor struct {
	calls     [][]string
	err       error
	frameList string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	// Snapshot the concat list before Render removes it.
	for i, a := range args {
		if a == "-i" && i+1 < len(args) && strings.HasSuffix(args[i+1], ".frames.txt") {
			data, _ := os.ReadFile(args[i+1])
			f.frameList = string(data)
		}
	}
	return "", f.err
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Paths: config.PathsConfig{Scripts: "s", Chapters: "c"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testIntervals() []timeline.DisplayInterval {
	return []timeline.DisplayInterval{
		{Start: 0, End: 1.5, ImageIndex: 0},
		{Start: 1.5, End: 4.0, ImageIndex: 1},
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	exec := &fakeExecutor{}
	r := NewRenderer(testConfig(t), exec, logger.New("error"))

	out := filepath.Join(dir, "chapter1.mp4")
	err := r.Render(context.Background(), testIntervals(),
		[]string{"/img/1-a.jpg", "/img/2-b.jpg"}, "/audio/chapter1.mp3", out)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(exec.calls) != 1 {
		t.Fatalf("ffmpeg calls = %d", len(exec.calls))
	}
	joined := strings.Join(exec.calls[0], " ")
	for _, want := range []string{"-f concat", "/audio/chapter1.mp3", "-c:v libx264", "-c:a aac", "-shortest", out} {
		if !strings.Contains(joined, want) {
			t.Errorf("ffmpeg call missing %q: %v", want, exec.calls[0])
		}
	}

	if !strings.Contains(exec.frameList, "duration 1.500000") {
		t.Errorf("frame list missing first duration:\n%s", exec.frameList)
	}
	if !strings.Contains(exec.frameList, "duration 2.500000") {
		t.Errorf("frame list missing second duration:\n%s", exec.frameList)
	}
	// Last file entry repeated without a duration.
	if strings.Count(exec.frameList, "2-b.jpg") != 2 {
		t.Errorf("frame list must repeat the final image:\n%s", exec.frameList)
	}
}

func TestRenderTransparentMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Video.Transparent = true

	exec := &fakeExecutor{}
	r := NewRenderer(cfg, exec, logger.New("error"))

	if r.Ext() != ".mov" {
		t.Errorf("Ext() = %q, want .mov", r.Ext())
	}

	out := filepath.Join(t.TempDir(), "chapter1.mov")
	err := r.Render(context.Background(), testIntervals(),
		[]string{"a.png", "b.png"}, "a.mp3", out)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	joined := strings.Join(exec.calls[0], " ")
	if !strings.Contains(joined, "-c:v qtrle") {
		t.Errorf("transparent render must use qtrle: %v", exec.calls[0])
	}
	if strings.Contains(joined, "-pix_fmt") {
		t.Errorf("transparent render must not coerce pixel format: %v", exec.calls[0])
	}
}

func TestRenderNoIntervals(t *testing.T) {
	r := NewRenderer(testConfig(t), &fakeExecutor{}, logger.New("error"))
	err := r.Render(context.Background(), nil, nil, "a.mp3", "out.mp4")
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want RenderError", err)
	}
}

func TestRenderImageIndexOutOfRange(t *testing.T) {
	r := NewRenderer(testConfig(t), &fakeExecutor{}, logger.New("error"))
	err := r.Render(context.Background(),
		[]timeline.DisplayInterval{{Start: 0, End: 1, ImageIndex: 3}},
		[]string{"only.jpg"}, "a.mp3", "out.mp4")
	if err == nil {
		t.Fatal("expected error for out-of-range image index")
	}
}

func TestRenderFFmpegFailure(t *testing.T) {
	exec := &fakeExecutor{err: fmt.Errorf("encoder exploded")}
	r := NewRenderer(testConfig(t), exec, logger.New("error"))

	err := r.Render(context.Background(), testIntervals(),
		[]string{"a.jpg", "b.jpg"}, "a.mp3", filepath.Join(t.TempDir(), "out.mp4"))
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want RenderError", err)
	}
}

func TestFrameListEscaping(t *testing.T) {
	got := frameList(
		[]timeline.DisplayInterval{{Start: 0, End: 2, ImageIndex: 0}},
		[]string{"/img/it's.jpg"},
	)
	if !strings.Contains(got, `it'\''s.jpg`) {
		t.Errorf("quote escaping missing:\n%s", got)
	}
}
