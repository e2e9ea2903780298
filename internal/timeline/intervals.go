package timeline

// DisplayInterval assigns one image to a time range of the chapter audio.
type DisplayInterval struct {
	Start      float64
	End        float64
	ImageIndex int
}

// TruncationStats reports how much of either input BuildIntervals had to
// drop to align markers with images.
type TruncationStats struct {
	DroppedMarkers int
	DroppedImages  int
	TotalMarkers   int
	TotalImages    int
}

// Exceeds reports whether a dropped fraction crosses the warning threshold.
func (s TruncationStats) Exceeds(frac float64) bool {
	if s.TotalMarkers > 0 && float64(s.DroppedMarkers)/float64(s.TotalMarkers) > frac {
		return true
	}
	if s.TotalImages > 0 && float64(s.DroppedImages)/float64(s.TotalImages) > frac {
		return true
	}
	return false
}

// BuildIntervals pairs a chapter timeline with an ordered image count to
// produce contiguous display intervals covering [0, TotalDuration]. Marker
// timestamps become interior boundaries; when images are fewer than the
// boundaries allow, the extra markers are dropped, and excess trailing
// images never receive an interval. Zero-length intervals are skipped.
// The function is pure: identical inputs yield identical output.
func BuildIntervals(t *ChapterTimeline, imageCount int) ([]DisplayInterval, TruncationStats) {
	stats := TruncationStats{
		TotalMarkers: len(t.Points),
		TotalImages:  imageCount,
	}
	if imageCount == 0 {
		stats.DroppedMarkers = len(t.Points)
		return nil, stats
	}

	interior := make([]float64, len(t.Points))
	for i, p := range t.Points {
		interior[i] = p.TimeSeconds
	}
	if len(interior) > imageCount {
		stats.DroppedMarkers = len(interior) - imageCount
		interior = interior[:imageCount]
	}

	boundaries := make([]float64, 0, len(interior)+2)
	boundaries = append(boundaries, 0.0)
	boundaries = append(boundaries, interior...)
	boundaries = append(boundaries, t.TotalDuration)

	var intervals []DisplayInterval
	for i := 0; i+1 < len(boundaries) && i < imageCount; i++ {
		start, end := boundaries[i], boundaries[i+1]
		if end-start <= 0 {
			continue
		}
		intervals = append(intervals, DisplayInterval{Start: start, End: end, ImageIndex: i})
	}

	assigned := len(boundaries) - 1
	if assigned > imageCount {
		assigned = imageCount
	}
	stats.DroppedImages = imageCount - assigned

	return intervals, stats
}
