package processor

import (
	"github.com/vunguyen2308/manhwa-reel/internal/audio"
	"github.com/vunguyen2308/manhwa-reel/internal/config"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
	"github.com/vunguyen2308/manhwa-reel/internal/tts"
	"github.com/vunguyen2308/manhwa-reel/internal/video"
	"github.com/vunguyen2308/manhwa-reel/pkg/executor"
)

type implProcessor struct {
	cfg         *config.Config
	synthesizer tts.Synthesizer
	assembler   *audio.Assembler
	renderer    *video.Renderer
	logger      logger.Logger
}

// New creates a new Processor instance
func New(cfg *config.Config, synth tts.Synthesizer, exec executor.Executor, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		synthesizer: synth,
		assembler:   audio.NewAssembler(exec),
		renderer:    video.NewRenderer(cfg, exec, log),
		logger:      log,
	}
}
