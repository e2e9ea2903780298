package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vunguyen2308/manhwa-reel/internal/logger"
	"github.com/vunguyen2308/manhwa-reel/pkg/executor"
)

// Asset is one chapter image with its explicit ordering key, the integer
// prefix of its filename.
type Asset struct {
	Path  string
	Order int
}

var displayExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Discover lists a chapter folder's images whose names start with a numeric
// ordering prefix, sorted by the integer value of that prefix.
func Discover(dir string) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read chapter folder: %w", err)
	}

	var assets []Asset
	for _, e := range entries {
		if e.IsDir() || !displayExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		order, ok := orderPrefix(e.Name())
		if !ok {
			continue
		}
		assets = append(assets, Asset{Path: filepath.Join(dir, e.Name()), Order: order})
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Order < assets[j].Order })
	return assets, nil
}

// orderPrefix parses the leading digit run of a filename like "12-xyz.jpg".
func orderPrefix(name string) (int, bool) {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Paths extracts the ordered path list from an asset slice.
func Paths(assets []Asset) []string {
	paths := make([]string, len(assets))
	for i, a := range assets {
		paths[i] = a.Path
	}
	return paths
}

// Normalizer prepares raw chapter scans for narration and rendering.
type Normalizer struct {
	executor executor.Executor
	logger   logger.Logger
}

// NewNormalizer creates a Normalizer on top of the given command executor.
func NewNormalizer(exec executor.Executor, log logger.Logger) *Normalizer {
	return &Normalizer{executor: exec, logger: log}
}

// ConvertWebP converts every .webp file in a folder to .jpg, flattening any
// transparency onto a white background, and removes the originals.
func (n *Normalizer) ConvertWebP(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read folder: %w", err)
	}

	converted := 0
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".webp" {
			continue
		}

		src := e.Name()
		dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".jpg"

		// Overlay onto a white canvas so transparency does not turn black
		// in the JPEG. ffmpeg runs inside the chapter folder so scan
		// filenames stay relative.
		args := []string{
			"-i", src,
			"-filter_complex",
			"color=white,format=rgb24[bg];[bg][0:v]scale2ref[bg][im];[bg][im]overlay=shortest=1,format=yuvj420p",
			"-q:v", "2",
			"-y",
			dst,
		}
		if _, err := n.executor.ExecuteInDir(ctx, dir, "ffmpeg", args...); err != nil {
			return fmt.Errorf("convert %s: %w", filepath.Join(dir, src), err)
		}
		if err := os.Remove(filepath.Join(dir, src)); err != nil {
			n.logger.Warn(ctx, "Failed to remove original %s: %v", src, err)
		}

		n.logger.Info(ctx, "Converted %s -> %s", filepath.Base(src), filepath.Base(dst))
		converted++
	}

	if converted == 0 {
		n.logger.Debug(ctx, "No WebP files in %s", dir)
	}
	return nil
}
