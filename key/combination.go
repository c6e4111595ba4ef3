package key

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCombination    = errors.New("empty key combination")
	ErrUnknownKey          = errors.New("unknown key")
	ErrNoPrimaryKey        = errors.New("combination has no primary key")
	ErrMultiplePrimaryKeys = errors.New("combination has more than one primary key")
)

// Combination is a validated hotkey: zero or more modifiers plus
// exactly one primary key. The zero value is not valid; build one with
// ParseCombination.
type Combination struct {
	Modifiers []string // canonical order: Ctrl, Alt, Shift, Meta
	Key       string
}

// ParseCombination parses a canonical "+"-separated string like
// "CTRL+SHIFT+R". Every token is normalized and validated against the
// registry; exactly one non-modifier token is required.
func ParseCombination(reg *Registry, s string) (Combination, error) {
	if strings.TrimSpace(s) == "" {
		return Combination{}, ErrEmptyCombination
	}

	var mods []string
	var primary string
	for _, tok := range strings.Split(s, "+") {
		name := reg.Normalize(tok)
		info, ok := reg.keys[name]
		if !ok {
			return Combination{}, fmt.Errorf("%w: %q", ErrUnknownKey, tok)
		}
		if info.Type == Modifier {
			mods = append(mods, name)
			continue
		}
		if primary != "" {
			return Combination{}, fmt.Errorf("%w: %q and %q", ErrMultiplePrimaryKeys, primary, name)
		}
		primary = name
	}
	if primary == "" {
		return Combination{}, ErrNoPrimaryKey
	}

	return Combination{Modifiers: canonicalModifiers(mods), Key: primary}, nil
}

// canonicalModifiers dedupes and orders modifiers Ctrl, Alt, Shift, Meta.
func canonicalModifiers(mods []string) []string {
	seen := make(map[string]struct{}, len(mods))
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return modifierOrder[out[i]] < modifierOrder[out[j]]
	})
	return out
}

// String renders the canonical form; ParseCombination(reg, c.String())
// round-trips losslessly for any combination the registry accepts.
func (c Combination) String() string {
	if len(c.Modifiers) == 0 {
		return c.Key
	}
	return strings.Join(c.Modifiers, "+") + "+" + c.Key
}

// ValidForRecording reports whether the combination may trigger
// recording. At least one modifier is required so that ordinary typing
// can never fire the hotkey.
func (c Combination) ValidForRecording() bool {
	return c.Key != "" && len(c.Modifiers) > 0
}

// KeySet returns the full chord: every key that must be down for the
// combination to be satisfied.
func (c Combination) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		set[m] = struct{}{}
	}
	if c.Key != "" {
		set[c.Key] = struct{}{}
	}
	return set
}

func (c Combination) Equal(other Combination) bool {
	if c.Key != other.Key || len(c.Modifiers) != len(other.Modifiers) {
		return false
	}
	for i := range c.Modifiers {
		if c.Modifiers[i] != other.Modifiers[i] {
			return false
		}
	}
	return true
}
