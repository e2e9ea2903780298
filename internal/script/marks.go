package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vunguyen2308/manhwa-reel/internal/logger"
)

// InsertMarks rewrites each asterisk in a narration script to a numbered
// marker tag, assigned in document order starting at p1. Returns the
// rewritten text and the number of markers inserted.
func InsertMarks(content string) (string, int) {
	var b strings.Builder
	count := 0
	for _, r := range content {
		if r == '*' {
			count++
			fmt.Fprintf(&b, `<mark name="p%d"/>`, count)
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), count
}

// InsertMarksFile applies InsertMarks to a script file in place.
func InsertMarksFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read script: %w", err)
	}

	updated, count := InsertMarks(string(data))
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return 0, fmt.Errorf("write script: %w", err)
	}

	return count, nil
}

// InsertMarksDir applies InsertMarksFile to every .txt script in a folder.
func InsertMarksDir(ctx context.Context, dir string, log logger.Logger) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("list scripts: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		count, err := InsertMarksFile(path)
		if err != nil {
			return fmt.Errorf("insert marks in %s: %w", path, err)
		}
		log.Info(ctx, "Updated %s (%d marks)", path, count)
	}

	return nil
}
