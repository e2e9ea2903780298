package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TTS         TTSConfig         `yaml:"tts"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Images      ImagesConfig      `yaml:"images"`
	Video       VideoConfig       `yaml:"video"`
}

type TTSConfig struct {
	APIKey       string  `yaml:"api_key"`
	VoiceName    string  `yaml:"voice_name"`
	LanguageCode string  `yaml:"language_code"`
	Gender       string  `yaml:"gender"`
	SpeakingRate float64 `yaml:"speaking_rate"`
	MaxChunkLen  int     `yaml:"max_chunk_len"`
	PacingMs     int     `yaml:"pacing_ms"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	MaxRetries   int     `yaml:"max_retries"`
}

type FFmpegConfig struct {
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Preset       string `yaml:"preset"`
	FPS          int    `yaml:"fps"`
}

type PathsConfig struct {
	Scripts    string `yaml:"scripts"`
	Chapters   string `yaml:"chapters"`
	Audio      string `yaml:"audio"`
	Timepoints string `yaml:"timepoints"`
	Videos     string `yaml:"videos"`
	Temp       string `yaml:"temp"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type GeminiConfig struct {
	APIKeys       []string `yaml:"api_keys"`
	Model         string   `yaml:"model"`
	BatchSize     int      `yaml:"batch_size"`
	LinesPerBatch int      `yaml:"lines_per_batch"`
	PacingMs      int      `yaml:"pacing_ms"`
}

type ImagesConfig struct {
	BlankStdDev float64 `yaml:"blank_std_dev"`
}

type VideoConfig struct {
	Transparent      bool    `yaml:"transparent"`
	TruncateWarnFrac float64 `yaml:"truncate_warn_frac"`
}

// Load reads a YAML config file, applies environment overrides for API keys,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Environment overrides keep API keys out of the config file.
	if key := os.Getenv("TTS_API_KEY"); key != "" {
		cfg.TTS.APIKey = key
	}
	if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
		cfg.Gemini.APIKeys = splitKeys(keys)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Config) Validate() error {
	if c.Paths.Scripts == "" {
		return fmt.Errorf("paths.scripts is required")
	}
	if c.Paths.Chapters == "" {
		return fmt.Errorf("paths.chapters is required")
	}
	if c.TTS.SpeakingRate < 0 {
		return fmt.Errorf("tts.speaking_rate must not be negative")
	}
	if c.TTS.MaxChunkLen < 0 {
		return fmt.Errorf("tts.max_chunk_len must not be negative")
	}

	if c.Paths.Audio == "" {
		c.Paths.Audio = "output/audio"
	}
	if c.Paths.Timepoints == "" {
		c.Paths.Timepoints = "output/timepoints"
	}
	if c.Paths.Videos == "" {
		c.Paths.Videos = "output/videos"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "output/temp"
	}
	if c.TTS.VoiceName == "" {
		c.TTS.VoiceName = "en-US-Wavenet-D"
	}
	if c.TTS.LanguageCode == "" {
		c.TTS.LanguageCode = "en-US"
	}
	if c.TTS.Gender == "" {
		c.TTS.Gender = "MALE"
	}
	if c.TTS.SpeakingRate == 0 {
		c.TTS.SpeakingRate = 1.1
	}
	if c.TTS.MaxChunkLen == 0 {
		c.TTS.MaxChunkLen = 4900
	}
	if c.TTS.PacingMs == 0 {
		c.TTS.PacingMs = 1000
	}
	if c.TTS.TimeoutSec == 0 {
		c.TTS.TimeoutSec = 120
	}
	if c.TTS.MaxRetries == 0 {
		c.TTS.MaxRetries = 3
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.FFmpeg.VideoCodec == "" {
		c.FFmpeg.VideoCodec = "libx264"
	}
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = "aac"
	}
	if c.FFmpeg.AudioBitrate == "" {
		c.FFmpeg.AudioBitrate = "192k"
	}
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = "ultrafast"
	}
	if c.FFmpeg.FPS == 0 {
		c.FFmpeg.FPS = 10
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.BatchSize == 0 {
		c.Gemini.BatchSize = 5
	}
	if c.Gemini.LinesPerBatch == 0 {
		c.Gemini.LinesPerBatch = 5
	}
	if c.Gemini.PacingMs == 0 {
		c.Gemini.PacingMs = 5000
	}
	if c.Images.BlankStdDev == 0 {
		c.Images.BlankStdDev = 5.0
	}
	if c.Video.TruncateWarnFrac == 0 {
		c.Video.TruncateWarnFrac = 0.25
	}

	return nil
}
