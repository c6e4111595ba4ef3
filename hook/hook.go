// Package hook wraps a global keyboard hook and matches the
// currently-pressed key set against registered hotkey combinations.
package hook

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"murmur/key"
	"murmur/log"
)

var (
	ErrAlreadyHooked      = errors.New("keyboard hook already installed")
	ErrNotHooked          = errors.New("keyboard hook not installed")
	ErrInvalidCombination = errors.New("combination is not valid for recording")
)

type EventType int

const (
	KeyDown EventType = iota
	KeyUp
)

// Event is one physical key transition reported by the OS hook.
// Ephemeral: produced by the backend, consumed immediately.
type Event struct {
	Type EventType
	Key  string
	Time time.Time
}

// Backend delivers raw key events from the OS (or a test driver).
// Start installs the hook and invokes the callback for every key
// transition until Stop. The callback must never block.
type Backend interface {
	Start(cb func(Event)) error
	Stop() error
}

// Handler receives chord notifications for one registered hotkey.
type Handler interface {
	HotkeyPressed(combo key.Combination)
	HotkeyReleased(combo key.Combination)
}

// HandlerFuncs adapts two funcs to the Handler interface.
type HandlerFuncs struct {
	Pressed  func(key.Combination)
	Released func(key.Combination)
}

func (h HandlerFuncs) HotkeyPressed(c key.Combination) {
	if h.Pressed != nil {
		h.Pressed(c)
	}
}

func (h HandlerFuncs) HotkeyReleased(c key.Combination) {
	if h.Released != nil {
		h.Released(c)
	}
}

type registration struct {
	combo   key.Combination
	keys    map[string]struct{}
	handler Handler
}

// Service owns the live pressed-key set and the registered-hotkey
// table. There is one Service per process (one OS hook); construct it
// at startup and pass it by reference.
type Service struct {
	backend Backend
	reg     *key.Registry

	mu      sync.Mutex
	hooked  bool
	pressed map[string]struct{}
	hotkeys map[string]*registration
}

func NewService(backend Backend, reg *key.Registry) *Service {
	return &Service{
		backend: backend,
		reg:     reg,
		pressed: make(map[string]struct{}),
		hotkeys: make(map[string]*registration),
	}
}

// StartHook installs the OS hook. Installing twice reports
// ErrAlreadyHooked; a backend failure leaves the service unhooked.
func (s *Service) StartHook() error {
	s.mu.Lock()
	if s.hooked {
		s.mu.Unlock()
		return ErrAlreadyHooked
	}
	s.mu.Unlock()

	if err := s.backend.Start(s.handleEvent); err != nil {
		return fmt.Errorf("starting keyboard hook: %w", err)
	}

	s.mu.Lock()
	s.hooked = true
	s.mu.Unlock()
	return nil
}

// StopHook removes the OS hook and clears the pressed set: once the
// hook is gone we can no longer observe releases, so every key is
// treated as released.
func (s *Service) StopHook() error {
	s.mu.Lock()
	if !s.hooked {
		s.mu.Unlock()
		return ErrNotHooked
	}
	s.hooked = false
	s.pressed = make(map[string]struct{})
	s.mu.Unlock()

	if err := s.backend.Stop(); err != nil {
		return fmt.Errorf("stopping keyboard hook: %w", err)
	}
	return nil
}

// IsHooked reports whether the hook is installed.
func (s *Service) IsHooked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hooked
}

// Register binds a combination to a handler under the given id,
// replacing any prior registration for that id. Combinations that are
// not valid for recording are rejected.
func (s *Service) Register(id string, combo key.Combination, handler Handler) error {
	if !combo.ValidForRecording() {
		return fmt.Errorf("%w: %q", ErrInvalidCombination, combo.String())
	}
	keys := make(map[string]struct{})
	for k := range combo.KeySet() {
		keys[s.reg.Normalize(k)] = struct{}{}
	}
	s.mu.Lock()
	s.hotkeys[id] = &registration{combo: combo, keys: keys, handler: handler}
	s.mu.Unlock()
	return nil
}

// Unregister removes a hotkey registration.
func (s *Service) Unregister(id string) {
	s.mu.Lock()
	delete(s.hotkeys, id)
	s.mu.Unlock()
}

// Pressed returns a snapshot of the currently pressed key names.
func (s *Service) Pressed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pressed))
	for k := range s.pressed {
		out = append(out, k)
	}
	return out
}

// IsPressed reports whether every key of the combination is down.
func (s *Service) IsPressed(combo key.Combination) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range combo.KeySet() {
		if _, ok := s.pressed[s.reg.Normalize(k)]; !ok {
			return false
		}
	}
	return true
}

type firing struct {
	combo    key.Combination
	handler  Handler
	released bool
}

// handleEvent runs on the OS callback context for every key
// transition. It must never block or panic: state mutation happens
// under the lock, handler invocation happens after it is released, and
// each handler is isolated so one failing subscriber cannot break
// delivery to the rest or crash the hook.
func (s *Service) handleEvent(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("keyboard hook handler panic: %v", r)
		}
	}()

	name := s.reg.Normalize(ev.Key)
	if name == "" {
		return
	}

	var fire []firing

	s.mu.Lock()
	switch ev.Type {
	case KeyDown:
		if _, down := s.pressed[name]; down {
			// Key repeat: no set change, no edges.
			break
		}
		s.pressed[name] = struct{}{}
		for _, r := range s.hotkeys {
			if _, member := r.keys[name]; !member {
				continue
			}
			// Edge: satisfied now, and this key completed the chord.
			if s.satisfiedLocked(r) {
				fire = append(fire, firing{combo: r.combo, handler: r.handler})
			}
		}
	case KeyUp:
		if _, down := s.pressed[name]; !down {
			break
		}
		for _, r := range s.hotkeys {
			if _, member := r.keys[name]; !member {
				continue
			}
			// Edge: was satisfied, and this release breaks the chord.
			// Any required key lifting ends the chord even if the
			// others remain down.
			if s.satisfiedLocked(r) {
				fire = append(fire, firing{combo: r.combo, handler: r.handler, released: true})
			}
		}
		delete(s.pressed, name)
	}
	s.mu.Unlock()

	for _, f := range fire {
		s.invoke(f)
	}
}

func (s *Service) satisfiedLocked(r *registration) bool {
	for k := range r.keys {
		if _, ok := s.pressed[k]; !ok {
			return false
		}
	}
	return true
}

func (s *Service) invoke(f firing) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("hotkey handler panic: %v", r)
		}
	}()
	if f.released {
		f.handler.HotkeyReleased(f.combo)
	} else {
		f.handler.HotkeyPressed(f.combo)
	}
}
