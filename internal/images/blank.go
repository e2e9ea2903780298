package images

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const badImagesDir = "bad_images"

// FilterBlank moves near-uniform images (grayscale standard deviation below
// the threshold) into a bad_images subfolder so they never reach narration
// or rendering. Returns the names of the moved files.
func (n *Normalizer) FilterBlank(ctx context.Context, dir string, stdThreshold float64) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}

	var moved []string
	for _, e := range entries {
		if e.IsDir() || !displayExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}

		path := filepath.Join(dir, e.Name())
		std, err := grayStdDev(path)
		if err != nil {
			// Unreadable counts as blank, same as a zero-variance scan.
			n.logger.Warn(ctx, "Treating unreadable image as blank: %s (%v)", path, err)
			std = 0
		}
		if std >= stdThreshold {
			continue
		}

		dest := filepath.Join(dir, badImagesDir, e.Name())
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return moved, fmt.Errorf("create %s: %w", badImagesDir, err)
		}
		if err := os.Rename(path, dest); err != nil {
			return moved, fmt.Errorf("move blank image: %w", err)
		}

		n.logger.Info(ctx, "Moved low-variation image (std %.2f): %s", std, e.Name())
		moved = append(moved, e.Name())
	}

	return moved, nil
}

// grayStdDev computes the standard deviation of an image's grayscale pixel
// values on a 0-255 scale.
func grayStdDev(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, err
	}

	bounds := img.Bounds()
	count := float64(bounds.Dx() * bounds.Dy())
	if count == 0 {
		return 0, nil
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, scaled from 16-bit channels.
			gray := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			sum += gray
			sumSq += gray * gray
		}
	}

	mean := sum / count
	variance := sumSq/count - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance), nil
}
