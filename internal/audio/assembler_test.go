package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeExecutor records commands and returns scripted output per binary.
type fakeExecutor struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.outputs[name], nil
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func (f *fakeExecutor) lastCall(name string) []string {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i][0] == name {
			return f.calls[i]
		}
	}
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDuration(t *testing.T) {
	exec := newFakeExecutor()
	exec.outputs["ffprobe"] = "4.75\n"

	dur, err := NewAssembler(exec).Duration(context.Background(), "chapter1.mp3")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if dur != 4.75 {
		t.Errorf("Duration() = %v, want 4.75", dur)
	}

	call := exec.lastCall("ffprobe")
	if call == nil || call[len(call)-1] != "chapter1.mp3" {
		t.Errorf("ffprobe call = %v", call)
	}
}

func TestDurationBadOutput(t *testing.T) {
	exec := newFakeExecutor()
	exec.outputs["ffprobe"] = "not-a-number"

	_, err := NewAssembler(exec).Duration(context.Background(), "x.mp3")
	var aerr *AssemblyError
	if !errors.As(err, &aerr) {
		t.Fatalf("error = %v, want AssemblyError", err)
	}
}

func TestDurationProbeFailure(t *testing.T) {
	exec := newFakeExecutor()
	exec.errs["ffprobe"] = fmt.Errorf("no such file")

	_, err := NewAssembler(exec).Duration(context.Background(), "x.mp3")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestConcatSingleChunkCopies(t *testing.T) {
	dir := t.TempDir()
	chunk := writeFile(t, dir, "chunk1.mp3", "chunk-audio-bytes")
	out := filepath.Join(dir, "chapter1.mp3")

	exec := newFakeExecutor()
	exec.outputs["ffprobe"] = "4.0"

	if err := NewAssembler(exec).Concat(context.Background(), []string{chunk}, out, 4.0); err != nil {
		t.Fatalf("Concat() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "chunk-audio-bytes" {
		t.Errorf("assembled audio = %q", data)
	}
	if exec.lastCall("ffmpeg") != nil {
		t.Error("single chunk must not invoke ffmpeg")
	}
}

func TestConcatMultipleChunks(t *testing.T) {
	dir := t.TempDir()
	c1 := writeFile(t, dir, "chunk1.mp3", "a")
	c2 := writeFile(t, dir, "chunk2.mp3", "b")
	out := filepath.Join(dir, "chapter1.mp3")

	exec := newFakeExecutor()
	exec.outputs["ffprobe"] = "7.1"

	if err := NewAssembler(exec).Concat(context.Background(), []string{c1, c2}, out, 7.0); err != nil {
		t.Fatalf("Concat() error = %v", err)
	}

	call := exec.lastCall("ffmpeg")
	if call == nil {
		t.Fatal("ffmpeg not invoked")
	}
	joined := strings.Join(call, " ")
	if !strings.Contains(joined, "-f concat") || !strings.Contains(joined, "-c copy") {
		t.Errorf("ffmpeg call = %v", call)
	}
	if call[len(call)-1] != out {
		t.Errorf("output arg = %q", call[len(call)-1])
	}
}

func TestConcatDurationMismatch(t *testing.T) {
	dir := t.TempDir()
	chunk := writeFile(t, dir, "chunk1.mp3", "a")
	out := filepath.Join(dir, "chapter1.mp3")

	exec := newFakeExecutor()
	exec.outputs["ffprobe"] = "9.0"

	err := NewAssembler(exec).Concat(context.Background(), []string{chunk}, out, 4.0)
	var aerr *AssemblyError
	if !errors.As(err, &aerr) {
		t.Fatalf("error = %v, want AssemblyError", err)
	}
	if !strings.Contains(aerr.Reason, "differs from timeline offset") {
		t.Errorf("reason = %q", aerr.Reason)
	}
}

func TestConcatWithinTolerance(t *testing.T) {
	dir := t.TempDir()
	chunk := writeFile(t, dir, "chunk1.mp3", "a")
	out := filepath.Join(dir, "chapter1.mp3")

	exec := newFakeExecutor()
	exec.outputs["ffprobe"] = "4.1"

	if err := NewAssembler(exec).Concat(context.Background(), []string{chunk}, out, 4.0); err != nil {
		t.Errorf("Concat() error = %v, 0.1s is within single-chunk tolerance", err)
	}
}

func TestConcatNoChunks(t *testing.T) {
	err := NewAssembler(newFakeExecutor()).Concat(context.Background(), nil, "out.mp3", 0)
	if err == nil {
		t.Fatal("expected error for empty chunk list")
	}
}

func TestConcatFFmpegFailure(t *testing.T) {
	dir := t.TempDir()
	c1 := writeFile(t, dir, "chunk1.mp3", "a")
	c2 := writeFile(t, dir, "chunk2.mp3", "b")

	exec := newFakeExecutor()
	exec.errs["ffmpeg"] = fmt.Errorf("decode error")

	err := NewAssembler(exec).Concat(context.Background(), []string{c1, c2}, filepath.Join(dir, "out.mp3"), 7.0)
	var aerr *AssemblyError
	if !errors.As(err, &aerr) {
		t.Fatalf("error = %v, want AssemblyError", err)
	}
}

func TestConcatList(t *testing.T) {
	got := concatList([]string{"/a/one.mp3", "/a/it's.mp3"})
	if !strings.Contains(got, "file '/a/one.mp3'") {
		t.Errorf("concatList = %q", got)
	}
	if !strings.Contains(got, `it'\''s.mp3`) {
		t.Errorf("quote escaping missing: %q", got)
	}
}
