package listener

import (
	"time"

	"github.com/google/uuid"
)

// Session accumulates PCM chunks for one hold of the hotkey. It is
// owned by the Listener and guarded by sessionMu there; nothing else
// mutates it.
type Session struct {
	ID         string
	Start      time.Time
	SampleRate int
	Channels   int
	Duration   float64 // seconds, derived from accumulated bytes

	chunks [][]byte
}

func NewSession(sampleRate, channels int) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Start:      time.Now(),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

func (s *Session) AddChunk(chunk []byte) {
	s.chunks = append(s.chunks, chunk)
	s.Duration += float64(len(chunk)) / 2 / float64(s.SampleRate*s.Channels)
}

func (s *Session) ChunkCount() int {
	return len(s.chunks)
}

// Combined concatenates all chunks in arrival order. A session that
// never received audio returns nil; recording nothing is not the same
// as recording silence.
func (s *Session) Combined() []byte {
	if len(s.chunks) == 0 {
		return nil
	}
	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// Snapshot returns a copy safe to hand to callers while the session
// may still be accumulating.
func (s *Session) Snapshot() Session {
	cp := *s
	cp.chunks = make([][]byte, len(s.chunks))
	copy(cp.chunks, s.chunks)
	return cp
}
