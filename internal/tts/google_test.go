package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testVoice = VoiceConfig{
	Name:         "en-US-Wavenet-D",
	LanguageCode: "en-US",
	Gender:       "MALE",
	SpeakingRate: 1.1,
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *GoogleSynthesizer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewGoogleSynthesizer("test-key", WithEndpoint(srv.URL))
}

func TestSynthesize(t *testing.T) {
	audio := []byte("fake-mp3-bytes")

	_, syn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}

		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Input.SSML != `<speak>hi<mark name="p1"/></speak>` {
			t.Errorf("ssml = %q", req.Input.SSML)
		}
		if len(req.EnableTimePointing) != 1 || req.EnableTimePointing[0] != "SSML_MARK" {
			t.Errorf("enableTimePointing = %v", req.EnableTimePointing)
		}
		if req.AudioConfig.AudioEncoding != "MP3" {
			t.Errorf("audioEncoding = %q", req.AudioConfig.AudioEncoding)
		}

		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString(audio),
			Timepoints:   []Timepoint{{MarkName: "p1", TimeSeconds: 1.5}},
		})
	})

	result, err := syn.Synthesize(context.Background(), `<speak>hi<mark name="p1"/></speak>`, []string{"p1"}, testVoice)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(result.Audio) != string(audio) {
		t.Errorf("audio = %q", result.Audio)
	}
	if len(result.Timepoints) != 1 || result.Timepoints[0].MarkName != "p1" {
		t.Errorf("timepoints = %v", result.Timepoints)
	}
}

func TestSynthesizeMissingAudioContent(t *testing.T) {
	_, syn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(synthesizeResponse{})
	})

	_, err := syn.Synthesize(context.Background(), "<speak>x</speak>", nil, testVoice)
	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want SynthesisError", err)
	}
	if serr.Retryable {
		t.Error("missing audio content must not be retryable")
	}
}

func TestSynthesizeMissingTimepoint(t *testing.T) {
	_, syn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("a")),
			Timepoints:   []Timepoint{{MarkName: "p1", TimeSeconds: 1.0}},
		})
	})

	_, err := syn.Synthesize(context.Background(),
		`<speak>a<mark name="p1"/>b<mark name="p2"/></speak>`, []string{"p1", "p2"}, testVoice)

	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want SynthesisError", err)
	}
	if !strings.Contains(serr.Reason, "p2") {
		t.Errorf("reason = %q, want mention of missing marker", serr.Reason)
	}
	if serr.Retryable {
		t.Error("missing timepoint must not be retryable")
	}
}

func TestSynthesizeExtraTimepoints(t *testing.T) {
	_, syn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("a")),
			Timepoints: []Timepoint{
				{MarkName: "p1", TimeSeconds: 1.0},
				{MarkName: "p9", TimeSeconds: 2.0},
			},
		})
	})

	_, err := syn.Synthesize(context.Background(), `<speak>a<mark name="p1"/></speak>`, []string{"p1"}, testVoice)
	if err == nil {
		t.Fatal("expected error for extra timepoints")
	}
}

func TestSynthesizeClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	syn := NewGoogleSynthesizer("k", WithEndpoint(srv.URL), WithMaxRetries(3))

	_, err := syn.Synthesize(context.Background(), "<speak>x</speak>", nil, testVoice)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("client error retried %d times", calls-1)
	}
}

func TestSynthesizeServerErrorRetried(t *testing.T) {
	calls := 0
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("a")),
		})
	})
	syn := NewGoogleSynthesizer("k", WithEndpoint(srv.URL), WithMaxRetries(3), WithBackoff(time.Millisecond))

	result, err := syn.Synthesize(context.Background(), "<speak>x</speak>", nil, testVoice)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(result.Audio) != "a" {
		t.Errorf("audio = %q", result.Audio)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
