package key

import (
	"sort"
	"strings"
	"sync"
)

// RecorderState is the state of the combination-capture sub-machine.
type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
	RecorderCompleted
)

func (s RecorderState) String() string {
	switch s {
	case RecorderIdle:
		return "idle"
	case RecorderRecording:
		return "recording"
	case RecorderCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Recorder captures a new hotkey combination from live key presses.
// This is defining a combination, not using one: the caller feeds it
// every key down/up while the user types the chord they want, then
// Stop attempts to commit the result.
//
// Commit is two-phase: the current combination is only replaced once a
// full candidate has parsed and passed ValidForRecording, so a
// partially-typed chord can never become active.
type Recorder struct {
	mu       sync.Mutex
	reg      *Registry
	state    RecorderState
	current  Combination
	pressed  map[string]struct{}
	onChange func(Combination)
}

// NewRecorder creates a recorder holding an initial combination.
func NewRecorder(reg *Registry, initial Combination) *Recorder {
	return &Recorder{
		reg:     reg,
		current: initial,
		pressed: make(map[string]struct{}),
	}
}

// OnChange sets the callback fired when a new combination is committed.
func (r *Recorder) OnChange(fn func(Combination)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Start enters Recording and clears the pressed set. No-op if already
// recording.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RecorderRecording {
		return
	}
	r.state = RecorderRecording
	r.pressed = make(map[string]struct{})
}

// AddKey registers a key press while recording. Unknown key names are
// rejected; presses outside Recording are ignored.
func (r *Recorder) AddKey(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderRecording {
		return false
	}
	normalized := r.reg.Normalize(name)
	if !r.reg.Valid(normalized) {
		return false
	}
	r.pressed[normalized] = struct{}{}
	return true
}

// RemoveKey registers a key release while recording.
func (r *Recorder) RemoveKey(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderRecording {
		return false
	}
	normalized := r.reg.Normalize(name)
	if _, ok := r.pressed[normalized]; !ok {
		return false
	}
	delete(r.pressed, normalized)
	return true
}

// Stop ends recording and commits the pressed set as the new current
// combination if it parses and is valid for recording. On failure the
// prior combination is retained and Stop returns false.
func (r *Recorder) Stop() bool {
	r.mu.Lock()
	if r.state != RecorderRecording {
		r.mu.Unlock()
		return false
	}
	r.state = RecorderIdle

	if len(r.pressed) == 0 {
		r.mu.Unlock()
		return false
	}

	candidate := strings.Join(r.sortedPressed(), "+")
	combo, err := ParseCombination(r.reg, candidate)
	r.pressed = make(map[string]struct{})
	if err != nil || !combo.ValidForRecording() {
		r.mu.Unlock()
		return false
	}

	r.current = combo
	r.state = RecorderCompleted
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(combo)
	}
	return true
}

// Current returns the committed combination.
func (r *Recorder) Current() Combination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// State returns the recorder state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRecording reports whether a capture is in progress.
func (r *Recorder) IsRecording() bool {
	return r.State() == RecorderRecording
}

// Pressed returns a snapshot of the pressed set in sort-priority order.
func (r *Recorder) Pressed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedPressed()
}

// Display renders the in-progress chord for UI feedback, e.g.
// "Ctrl + Shift + R". Empty unless recording with at least one key down.
func (r *Recorder) Display() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderRecording || len(r.pressed) == 0 {
		return ""
	}
	names := r.sortedPressed()
	display := make([]string, len(names))
	for i, n := range names {
		display[i] = r.reg.Display(n)
	}
	return strings.Join(display, " + ")
}

// Reset restores the default combination and returns to Idle.
func (r *Recorder) Reset(def Combination) {
	r.mu.Lock()
	r.current = def
	r.state = RecorderIdle
	r.pressed = make(map[string]struct{})
	r.mu.Unlock()
}

func (r *Recorder) sortedPressed() []string {
	names := make([]string, 0, len(r.pressed))
	for n := range r.pressed {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.reg.SortPriority(names[i]) < r.reg.SortPriority(names[j])
	})
	return names
}
