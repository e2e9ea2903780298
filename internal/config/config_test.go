package config

import (
	"os"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Paths: PathsConfig{
					Scripts:  "data/scripts",
					Chapters: "data/chapters",
				},
			},
			wantErr: false,
		},
		{
			name: "missing scripts path",
			config: Config{
				Paths: PathsConfig{
					Chapters: "data/chapters",
				},
			},
			wantErr: true,
		},
		{
			name: "missing chapters path",
			config: Config{
				Paths: PathsConfig{
					Scripts: "data/scripts",
				},
			},
			wantErr: true,
		},
		{
			name: "negative speaking rate",
			config: Config{
				TTS: TTSConfig{SpeakingRate: -1.0},
				Paths: PathsConfig{
					Scripts:  "data/scripts",
					Chapters: "data/chapters",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Paths: PathsConfig{
			Scripts:  "data/scripts",
			Chapters: "data/chapters",
		},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.TTS.VoiceName != "en-US-Wavenet-D" {
		t.Errorf("default voice name = %q", cfg.TTS.VoiceName)
	}
	if cfg.TTS.MaxChunkLen != 4900 {
		t.Errorf("default max chunk len = %d", cfg.TTS.MaxChunkLen)
	}
	if cfg.TTS.SpeakingRate != 1.1 {
		t.Errorf("default speaking rate = %v", cfg.TTS.SpeakingRate)
	}
	if cfg.Performance.MaxConcurrent != 2 {
		t.Errorf("default max concurrent = %d", cfg.Performance.MaxConcurrent)
	}
	if cfg.Paths.Audio != "output/audio" {
		t.Errorf("default audio path = %q", cfg.Paths.Audio)
	}
	if cfg.Video.TruncateWarnFrac != 0.25 {
		t.Errorf("default truncate warn frac = %v", cfg.Video.TruncateWarnFrac)
	}
}

func TestLoad(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
tts:
  voice_name: "en-US-Wavenet-A"
  language_code: "en-US"
  speaking_rate: 1.2
  max_chunk_len: 1000

paths:
  scripts: "data/scripts"
  chapters: "data/chapters"

logging:
  level: "debug"

performance:
  max_concurrent: 4
`
	if _, err := tmpfile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TTS.VoiceName != "en-US-Wavenet-A" {
		t.Errorf("voice name = %q", cfg.TTS.VoiceName)
	}
	if cfg.TTS.MaxChunkLen != 1000 {
		t.Errorf("max chunk len = %d", cfg.TTS.MaxChunkLen)
	}
	if cfg.Performance.MaxConcurrent != 4 {
		t.Errorf("max concurrent = %d", cfg.Performance.MaxConcurrent)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
tts:
  api_key: "from-file"
paths:
  scripts: "data/scripts"
  chapters: "data/chapters"
`
	if _, err := tmpfile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()

	t.Setenv("TTS_API_KEY", "from-env")
	t.Setenv("GEMINI_API_KEYS", "key-1, key-2")

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TTS.APIKey != "from-env" {
		t.Errorf("api key = %q, want env override", cfg.TTS.APIKey)
	}
	if len(cfg.Gemini.APIKeys) != 2 || cfg.Gemini.APIKeys[1] != "key-2" {
		t.Errorf("gemini keys = %v", cfg.Gemini.APIKeys)
	}
}
