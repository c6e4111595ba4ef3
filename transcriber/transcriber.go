// Package transcriber converts recorded audio to text.
package transcriber

import "context"

// Segment is one timestamped portion of a transcript.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Result is a finished transcription. Confidence is in [0,1], derived
// from the provider's per-segment log probabilities when available.
type Result struct {
	Text       string
	Segments   []Segment
	Confidence float64
	Duration   float64 // seconds of audio, as reported by the provider
}

// Transcriber turns raw 16kHz mono 16-bit PCM into text. Transcribe
// honors ctx cancellation.
type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	GetLanguage() string
	Transcribe(ctx context.Context, pcm []byte) (Result, error)
}
