package processor

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
)

// AudioAll synthesizes every chapter script under the scripts folder.
// Chapters run in parallel under the configured concurrency cap; one
// chapter's failure never aborts the others.
func (p *implProcessor) AudioAll(ctx context.Context) []ChapterResult {
	paths, err := filepath.Glob(filepath.Join(p.cfg.Paths.Scripts, "*.txt"))
	if err != nil {
		return []ChapterResult{{Stage: "audio", Err: err}}
	}
	sort.Strings(paths)

	return p.runAll(ctx, "audio", paths, func(ctx context.Context, path string) (int, error) {
		chapter, err := chapterNum(path)
		if err != nil {
			return 0, err
		}
		return chapter, p.ProcessScript(ctx, path)
	})
}

// VideoAll renders a video for every assembled chapter audio track.
func (p *implProcessor) VideoAll(ctx context.Context) []ChapterResult {
	paths, err := filepath.Glob(filepath.Join(p.cfg.Paths.Audio, "chapter*.mp3"))
	if err != nil {
		return []ChapterResult{{Stage: "video", Err: err}}
	}
	sort.Strings(paths)

	return p.runAll(ctx, "video", paths, func(ctx context.Context, path string) (int, error) {
		chapter, err := chapterNum(path)
		if err != nil {
			return 0, err
		}
		return chapter, p.RenderChapter(ctx, chapter)
	})
}

// runAll fans the chapter units out over a bounded worker pool and collects
// each unit's outcome. The semaphore keeps concurrent units below the
// external service's request ceiling.
func (p *implProcessor) runAll(ctx context.Context, stage string, paths []string, unit func(context.Context, string) (int, error)) []ChapterResult {
	results := make([]ChapterResult, len(paths))
	sem := newSemaphore(p.cfg.Performance.MaxConcurrent)
	var wg sync.WaitGroup

	for i, path := range paths {
		if err := sem.acquire(ctx); err != nil {
			results[i] = ChapterResult{Stage: stage, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.release()

			chapter, err := unit(ctx, path)
			results[i] = ChapterResult{Chapter: chapter, Stage: stage, Err: err}
			if err != nil {
				p.logger.Error(ctx, "Chapter %d %s failed: %v", chapter, stage, err)
			}
		}(i, path)
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Chapter < results[j].Chapter })
	return results
}
