package hook

import (
	"sync"
	"time"

	gohook "github.com/robotn/gohook"
)

// GohookBackend feeds the service from the process-wide gohook
// keyboard hook. gohook owns one global hook, so at most one
// GohookBackend may be running per process.
type GohookBackend struct {
	mu      sync.Mutex
	stop    chan struct{}
	started bool
}

func NewGohook() *GohookBackend {
	return &GohookBackend{}
}

// rawNames maps gohook rawcodes back to the key names of its keycode
// table. Built once; first name wins for aliased rawcodes.
var rawNames = func() map[uint16]string {
	m := make(map[uint16]string, len(gohook.Keycode))
	for name, code := range gohook.Keycode {
		if _, ok := m[code]; !ok {
			m[code] = name
		}
	}
	return m
}()

func (b *GohookBackend) Start(cb func(Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyHooked
	}

	events := gohook.Start()
	b.stop = make(chan struct{})
	b.started = true

	go func(stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				name, typ, known := translate(ev)
				if !known {
					continue
				}
				cb(Event{Type: typ, Key: name, Time: time.Now()})
			}
		}
	}(b.stop)

	return nil
}

func (b *GohookBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return ErrNotHooked
	}
	close(b.stop)
	b.started = false
	gohook.End()
	return nil
}

func translate(ev gohook.Event) (string, EventType, bool) {
	var typ EventType
	switch ev.Kind {
	case gohook.KeyDown:
		typ = KeyDown
	case gohook.KeyUp:
		typ = KeyUp
	default:
		return "", 0, false
	}

	if name, ok := rawNames[ev.Rawcode]; ok {
		return name, typ, true
	}
	if ev.Keychar != 0 && ev.Keychar != 65535 {
		return string(ev.Keychar), typ, true
	}
	return "", 0, false
}
