package tts

import "context"

// VoiceConfig selects the synthesis voice.
type VoiceConfig struct {
	Name         string
	LanguageCode string
	Gender       string
	SpeakingRate float64
}

// Timepoint is a marker timestamp reported by the engine, relative to the
// start of the chunk's audio.
type Timepoint struct {
	MarkName    string  `json:"markName"`
	TimeSeconds float64 `json:"timeSeconds"`
}

// Result holds one chunk's synthesized audio and its local marker
// timestamps, in marker order.
type Result struct {
	Audio      []byte
	Timepoints []Timepoint
}

// Synthesizer converts one chunk of marked text into audio plus marker
// timestamps. The markers argument lists the marker names the chunk
// contains; a response that does not cover all of them is an error.
type Synthesizer interface {
	Synthesize(ctx context.Context, ssml string, markers []string, voice VoiceConfig) (*Result, error)
}
