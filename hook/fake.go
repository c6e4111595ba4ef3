package hook

import (
	"sync"
	"time"
)

// FakeBackend drives the service from tests or the headless test mode
// instead of an OS hook.
type FakeBackend struct {
	mu      sync.Mutex
	cb      func(Event)
	started bool
}

func NewFake() *FakeBackend {
	return &FakeBackend{}
}

func (f *FakeBackend) Start(cb func(Event)) error {
	f.mu.Lock()
	f.cb = cb
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *FakeBackend) Stop() error {
	f.mu.Lock()
	f.cb = nil
	f.started = false
	f.mu.Unlock()
	return nil
}

func (f *FakeBackend) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Press injects a key-down transition.
func (f *FakeBackend) Press(name string) {
	f.emit(Event{Type: KeyDown, Key: name, Time: time.Now()})
}

// Release injects a key-up transition.
func (f *FakeBackend) Release(name string) {
	f.emit(Event{Type: KeyUp, Key: name, Time: time.Now()})
}

func (f *FakeBackend) emit(ev Event) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}
