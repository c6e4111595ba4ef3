package hook

import (
	"sync"
	"testing"

	"murmur/key"
)

type countingHandler struct {
	mu       sync.Mutex
	pressed  int
	released int
}

func (h *countingHandler) HotkeyPressed(key.Combination) {
	h.mu.Lock()
	h.pressed++
	h.mu.Unlock()
}

func (h *countingHandler) HotkeyReleased(key.Combination) {
	h.mu.Lock()
	h.released++
	h.mu.Unlock()
}

func (h *countingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pressed, h.released
}

func newTestService(t *testing.T, combo string) (*Service, *FakeBackend, *countingHandler) {
	t.Helper()
	reg := key.NewRegistry()
	backend := NewFake()
	svc := NewService(backend, reg)

	c, err := key.ParseCombination(reg, combo)
	if err != nil {
		t.Fatal(err)
	}
	h := &countingHandler{}
	if err := svc.Register("record", c, h); err != nil {
		t.Fatal(err)
	}
	if err := svc.StartHook(); err != nil {
		t.Fatal(err)
	}
	return svc, backend, h
}

func TestHookStartIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t, "CTRL+SHIFT+R")
	if err := svc.StartHook(); err != ErrAlreadyHooked {
		t.Errorf("second StartHook = %v, want ErrAlreadyHooked", err)
	}
	if err := svc.StopHook(); err != nil {
		t.Fatal(err)
	}
	if err := svc.StopHook(); err != ErrNotHooked {
		t.Errorf("second StopHook = %v, want ErrNotHooked", err)
	}
}

func TestStopHookClearsPressedSet(t *testing.T) {
	svc, backend, _ := newTestService(t, "CTRL+SHIFT+R")
	backend.Press("ctrl")
	backend.Press("shift")
	if len(svc.Pressed()) != 2 {
		t.Fatalf("pressed = %v", svc.Pressed())
	}
	svc.StopHook()
	if len(svc.Pressed()) != 0 {
		t.Errorf("pressed set not cleared on unhook: %v", svc.Pressed())
	}
}

func TestRegisterRejectsZeroModifiers(t *testing.T) {
	reg := key.NewRegistry()
	svc := NewService(NewFake(), reg)
	c, err := key.ParseCombination(reg, "R")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Register("bad", c, &countingHandler{}); err == nil {
		t.Error("Register accepted a zero-modifier combination")
	}
}

func TestChordPressAndRelease(t *testing.T) {
	svc, backend, h := newTestService(t, "CTRL+SHIFT+R")

	backend.Press("ctrl")
	backend.Press("shift")
	if p, _ := h.counts(); p != 0 {
		t.Fatalf("pressed fired before chord complete: %d", p)
	}
	backend.Press("r")
	if p, _ := h.counts(); p != 1 {
		t.Fatalf("pressed = %d, want 1", p)
	}
	if !svc.IsPressed(mustCombo(t, "CTRL+SHIFT+R")) {
		t.Error("IsPressed = false with full chord down")
	}

	backend.Release("r")
	if _, r := h.counts(); r != 1 {
		t.Fatalf("released = %d, want 1", r)
	}
}

// Releasing any one required key fires exactly one released event;
// the remaining keys going up later fire nothing.
func TestReleaseEdgeTriggeredOnce(t *testing.T) {
	_, backend, h := newTestService(t, "CTRL+SHIFT+R")

	backend.Press("ctrl")
	backend.Press("shift")
	backend.Press("r")

	backend.Release("shift") // breaks the chord
	backend.Release("ctrl")
	backend.Release("r")

	p, r := h.counts()
	if p != 1 || r != 1 {
		t.Errorf("counts = (%d pressed, %d released), want (1, 1)", p, r)
	}

	// Releasing an already-released chord fires nothing.
	backend.Release("r")
	if _, r := h.counts(); r != 1 {
		t.Errorf("released = %d after redundant key-up, want 1", r)
	}
}

func TestKeyRepeatDoesNotRefire(t *testing.T) {
	_, backend, h := newTestService(t, "CTRL+SHIFT+R")

	backend.Press("ctrl")
	backend.Press("shift")
	backend.Press("r")
	backend.Press("r") // OS auto-repeat
	backend.Press("r")

	if p, _ := h.counts(); p != 1 {
		t.Errorf("pressed = %d with key repeat, want 1", p)
	}
}

func TestChordRepressFiresAgain(t *testing.T) {
	_, backend, h := newTestService(t, "CTRL+SHIFT+R")

	backend.Press("ctrl")
	backend.Press("shift")
	backend.Press("r")
	backend.Release("r")
	backend.Press("r") // ctrl+shift still held

	p, r := h.counts()
	if p != 2 || r != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", p, r)
	}
}

func TestHandlerPanicIsolated(t *testing.T) {
	reg := key.NewRegistry()
	backend := NewFake()
	svc := NewService(backend, reg)

	panicking := HandlerFuncs{
		Pressed: func(key.Combination) { panic("bad subscriber") },
	}
	h := &countingHandler{}
	if err := svc.Register("a", mustCombo(t, "CTRL+A"), panicking); err != nil {
		t.Fatal(err)
	}
	if err := svc.Register("b", mustCombo(t, "CTRL+A"), h); err != nil {
		t.Fatal(err)
	}
	if err := svc.StartHook(); err != nil {
		t.Fatal(err)
	}

	backend.Press("ctrl")
	backend.Press("a") // must not panic the hook path

	if p, _ := h.counts(); p != 1 {
		t.Errorf("second handler not delivered after first panicked: pressed = %d", p)
	}
}

func TestAliasedModifierMatches(t *testing.T) {
	_, backend, h := newTestService(t, "META+SPACE")

	// The OS reports "cmd"; the registry folds it into META.
	backend.Press("cmd")
	backend.Press("space")
	if p, _ := h.counts(); p != 1 {
		t.Errorf("pressed = %d, want 1 (cmd should normalize to META)", p)
	}
}

func mustCombo(t *testing.T, s string) key.Combination {
	t.Helper()
	c, err := key.ParseCombination(key.NewRegistry(), s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
