package key

import (
	"errors"
	"testing"
)

func TestParseCombination(t *testing.T) {
	reg := NewRegistry()

	for _, tt := range []struct {
		input string
		want  string
	}{
		{"CTRL+SHIFT+R", "CTRL+SHIFT+R"},
		{"ctrl+shift+r", "CTRL+SHIFT+R"},
		{"shift+ctrl+r", "CTRL+SHIFT+R"}, // modifiers reordered canonically
		{"CONTROL+A", "CTRL+A"},
		{"CMD+SPACE", "META+SPACE"},
		{"WIN+F5", "META+F5"},
		{"windows+alt+tab", "ALT+META+TAB"},
		{"CTRL+CTRL+X", "CTRL+X"}, // duplicate modifiers collapse
		{"F12", "F12"},
	} {
		t.Run(tt.input, func(t *testing.T) {
			combo, err := ParseCombination(reg, tt.input)
			if err != nil {
				t.Fatalf("ParseCombination(%q): %v", tt.input, err)
			}
			if got := combo.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCombinationErrors(t *testing.T) {
	reg := NewRegistry()

	for _, tt := range []struct {
		input string
		want  error
	}{
		{"", ErrEmptyCombination},
		{"   ", ErrEmptyCombination},
		{"CTRL+BANANA", ErrUnknownKey},
		{"CTRL+SHIFT", ErrNoPrimaryKey},
		{"CTRL+A+B", ErrMultiplePrimaryKeys},
		{"CTRL++R", ErrUnknownKey}, // empty token between separators
	} {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseCombination(reg, tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// Every combination the registry accepts must survive a
// String -> ParseCombination round-trip unchanged.
func TestCombinationRoundTrip(t *testing.T) {
	reg := NewRegistry()

	for _, info := range reg.Keys() {
		if info.Type == Modifier {
			continue
		}
		for _, mods := range [][]string{
			{"CTRL"},
			{"ALT", "META"},
			{"CTRL", "ALT", "SHIFT", "META"},
		} {
			combo := Combination{Modifiers: mods, Key: info.Name}
			parsed, err := ParseCombination(reg, combo.String())
			if err != nil {
				t.Fatalf("round-trip parse of %q: %v", combo.String(), err)
			}
			if !parsed.Equal(combo) {
				t.Errorf("round-trip of %q: got %q", combo.String(), parsed.String())
			}
		}
	}
}

// A combination with zero modifiers must never be valid for recording,
// for every primary key the registry accepts.
func TestZeroModifiersInvalidForRecording(t *testing.T) {
	reg := NewRegistry()

	for _, info := range reg.Keys() {
		if info.Type == Modifier {
			continue
		}
		combo, err := ParseCombination(reg, info.Name)
		if err != nil {
			t.Fatalf("parse %q: %v", info.Name, err)
		}
		if combo.ValidForRecording() {
			t.Errorf("%q: zero-modifier combination reported valid for recording", info.Name)
		}
	}
}

func TestKeySet(t *testing.T) {
	reg := NewRegistry()
	combo, err := ParseCombination(reg, "CTRL+SHIFT+R")
	if err != nil {
		t.Fatal(err)
	}
	set := combo.KeySet()
	if len(set) != 3 {
		t.Fatalf("KeySet size = %d, want 3", len(set))
	}
	for _, k := range []string{"CTRL", "SHIFT", "R"} {
		if _, ok := set[k]; !ok {
			t.Errorf("KeySet missing %q", k)
		}
	}
}
