package tts

import "fmt"

// SynthesisError reports a failed or malformed synthesis call. It is fatal
// for the chapter it belongs to; a missing marker timestamp would silently
// desynchronize the timeline downstream.
type SynthesisError struct {
	Reason    string
	Retryable bool
	Err       error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed: %s: %v", e.Reason, e.Err)
	}
	return "synthesis failed: " + e.Reason
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
