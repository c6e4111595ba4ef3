package listener

import (
	"sync"
	"time"
)

type EventType int

const (
	StateChanged EventType = iota
	HotkeyPressed
	HotkeyReleased
	RecordingStarted
	RecordingStopped
	TranscriptionStarted
	TranscriptionCompleted
	ErrorOccurred
)

func (t EventType) String() string {
	switch t {
	case StateChanged:
		return "state_changed"
	case HotkeyPressed:
		return "hotkey_pressed"
	case HotkeyReleased:
		return "hotkey_released"
	case RecordingStarted:
		return "recording_started"
	case RecordingStopped:
		return "recording_stopped"
	case TranscriptionStarted:
		return "transcription_started"
	case TranscriptionCompleted:
		return "transcription_completed"
	case ErrorOccurred:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from the listener. From/To are set for
// StateChanged, Text for TranscriptionCompleted, Err for ErrorOccurred.
type Event struct {
	Type      EventType
	Time      time.Time
	SessionID string
	Text      string
	Err       error
	From      State
	To        State
}

type eventBus struct {
	mu   sync.Mutex
	subs []chan Event
}

// Subscribe returns a channel of capacity buffer that receives every
// event emitted from now on. A subscriber that falls behind loses its
// own events; it never stalls the emitter or other subscribers.
func (b *eventBus) Subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *eventBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (b *eventBus) emit(ev Event) {
	ev.Time = time.Now()
	// Sends are non-blocking, so holding the lock is cheap and keeps
	// emit from racing Unsubscribe's close.
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

func (b *eventBus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}
