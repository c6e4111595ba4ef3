package vad

import "murmur/log"

// speechThreshold is the fraction of frames that must contain speech
// for a clip to pass the gate.
const speechThreshold = 0.10

// Gate decides whether a finished clip contains speech worth
// transcribing.
type Gate interface {
	HasSpeech(pcm []byte) bool
}

// WebRTC gates clips with a fresh WebRTC detector per call. Detector
// errors fail open: a clip we cannot classify is still transcribed.
type WebRTC struct{}

func (WebRTC) HasSpeech(pcm []byte) bool {
	p, err := NewProcessor()
	if err != nil {
		log.Warnf("vad unavailable, passing clip through: %v", err)
		return true
	}
	p.Process(pcm)
	total, speech := p.Stats()
	if total == 0 {
		// Clip shorter than one frame; let the transcriber decide.
		return true
	}
	if p.VoiceDetected() {
		return true
	}
	return float64(speech)/float64(total) >= speechThreshold
}

// Fake is a fixed-answer gate for tests.
type Fake struct {
	Speech bool
}

func (f Fake) HasSpeech([]byte) bool {
	return f.Speech
}
