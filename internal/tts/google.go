package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://texttospeech.googleapis.com/v1beta1/text:synthesize"

// GoogleSynthesizer calls the Google Cloud text:synthesize endpoint with
// SSML mark timepointing enabled.
type GoogleSynthesizer struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// Option configures a GoogleSynthesizer.
type Option func(*GoogleSynthesizer)

// WithEndpoint overrides the synthesis endpoint (used by tests).
func WithEndpoint(url string) Option {
	return func(s *GoogleSynthesizer) { s.endpoint = url }
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *GoogleSynthesizer) { s.httpClient.Timeout = d }
}

// WithMaxRetries sets how many times a transient transport failure is
// retried with backoff. Malformed responses are never retried.
func WithMaxRetries(n int) Option {
	return func(s *GoogleSynthesizer) { s.maxRetries = n }
}

// WithBackoff sets the initial retry backoff. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(s *GoogleSynthesizer) { s.backoff = d }
}

// NewGoogleSynthesizer creates a synthesizer backed by the Google Cloud TTS
// REST API.
func NewGoogleSynthesizer(apiKey string, opts ...Option) *GoogleSynthesizer {
	s := &GoogleSynthesizer{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request/response structures for the text:synthesize call
type synthesizeRequest struct {
	Input              synthesisInput  `json:"input"`
	Voice              voiceSelection  `json:"voice"`
	AudioConfig        audioConfig     `json:"audioConfig"`
	EnableTimePointing []string        `json:"enableTimePointing"`
}

type synthesisInput struct {
	SSML string `json:"ssml"`
}

type voiceSelection struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	SSMLGender   string `json:"ssmlGender"`
}

type audioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate"`
}

type synthesizeResponse struct {
	AudioContent string      `json:"audioContent"`
	Timepoints   []Timepoint `json:"timepoints"`
}

// Synthesize sends one SSML chunk and returns its audio and local marker
// timestamps. The response must carry a timepoint for every marker present
// in the chunk.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, ssml string, markers []string, voice VoiceConfig) (*Result, error) {
	reqBody, err := json.Marshal(synthesizeRequest{
		Input: synthesisInput{SSML: ssml},
		Voice: voiceSelection{
			LanguageCode: voice.LanguageCode,
			Name:         voice.Name,
			SSMLGender:   voice.Gender,
		},
		AudioConfig: audioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  voice.SpeakingRate,
		},
		EnableTimePointing: []string{"SSML_MARK"},
	})
	if err != nil {
		return nil, &SynthesisError{Reason: "marshal request", Err: err}
	}

	body, err := s.post(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var resp synthesizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &SynthesisError{Reason: "decode response", Err: err}
	}
	if resp.AudioContent == "" {
		return nil, &SynthesisError{Reason: "no audio content in response"}
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, &SynthesisError{Reason: "decode audio content", Err: err}
	}

	if err := checkCoverage(resp.Timepoints, markers); err != nil {
		return nil, err
	}

	return &Result{Audio: audio, Timepoints: resp.Timepoints}, nil
}

// post sends the request, retrying transient transport failures with
// exponential backoff.
func (s *GoogleSynthesizer) post(ctx context.Context, reqBody []byte) ([]byte, error) {
	url := s.endpoint + "?key=" + s.apiKey
	backoff := s.backoff

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &SynthesisError{Reason: "request cancelled", Err: ctx.Err()}
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, &SynthesisError{Reason: "create request", Err: err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = &SynthesisError{Reason: "http request", Retryable: true, Err: err}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &SynthesisError{Reason: "read response", Retryable: true, Err: err}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		serr := &SynthesisError{
			Reason:    fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
		if !serr.Retryable {
			return nil, serr
		}
		lastErr = serr
	}

	return nil, lastErr
}

// checkCoverage verifies the engine reported a timepoint for every marker in
// the chunk. Extra timepoints are a protocol violation too.
func checkCoverage(points []Timepoint, markers []string) error {
	reported := make(map[string]bool, len(points))
	for _, tp := range points {
		reported[tp.MarkName] = true
	}

	for _, name := range markers {
		if !reported[name] {
			return &SynthesisError{Reason: fmt.Sprintf("missing timepoint for marker %q", name)}
		}
	}
	if len(points) > len(markers) {
		return &SynthesisError{Reason: fmt.Sprintf(
			"engine reported %d timepoints for %d markers", len(points), len(markers))}
	}

	return nil
}
