// Package key defines the hotkey domain model: the catalog of
// recognized keys, validated key combinations, and the recorder used
// to capture a new combination from live key presses.
package key

import "strings"

type KeyType int

const (
	Modifier KeyType = iota
	Function
	Special
	Regular
)

func (t KeyType) String() string {
	switch t {
	case Modifier:
		return "modifier"
	case Function:
		return "function"
	case Special:
		return "special"
	case Regular:
		return "regular"
	default:
		return "unknown"
	}
}

// Info describes one catalog entry. Immutable.
type Info struct {
	Name    string
	Type    KeyType
	Display string
}

// aliases maps common key-name variations to canonical names.
var aliases = map[string]string{
	"CONTROL": "CTRL",
	"COMMAND": "META",
	"CMD":     "META",
	"WIN":     "META",
	"WINDOWS": "META",
}

// modifierOrder is the canonical ordering of modifiers in a combination.
var modifierOrder = map[string]int{
	"CTRL":  0,
	"ALT":   1,
	"SHIFT": 2,
	"META":  3,
}

// Registry is the immutable catalog of supported keys. Construct one
// with NewRegistry and share it by reference; it is safe for concurrent
// readers and is never rebuilt after construction.
type Registry struct {
	keys  map[string]Info
	order []string
}

// NewRegistry builds the catalog: 4 modifiers, F1-F12, 4 special keys,
// A-Z and 0-9.
func NewRegistry() *Registry {
	r := &Registry{keys: make(map[string]Info)}

	add := func(name string, t KeyType, display string) {
		r.keys[name] = Info{Name: name, Type: t, Display: display}
		r.order = append(r.order, name)
	}

	add("CTRL", Modifier, "Ctrl")
	add("ALT", Modifier, "Alt")
	add("SHIFT", Modifier, "Shift")
	add("META", Modifier, "Meta")

	for i := 1; i <= 12; i++ {
		name := "F" + itoa(i)
		add(name, Function, name)
	}

	add("ESC", Special, "Escape")
	add("TAB", Special, "Tab")
	add("CAPS", Special, "Caps Lock")
	add("SPACE", Special, "Space")

	for c := byte('A'); c <= 'Z'; c++ {
		add(string(c), Regular, string(c))
	}
	for c := byte('0'); c <= '9'; c++ {
		add(string(c), Regular, string(c))
	}

	return r
}

func itoa(n int) string {
	if n >= 10 {
		return string([]byte{'1', byte('0' + n - 10)})
	}
	return string([]byte{byte('0' + n)})
}

// Normalize uppercases a key name and resolves known aliases
// (CONTROL -> CTRL, CMD/WIN/WINDOWS -> META). It does not validate;
// unknown names pass through normalized.
func (r *Registry) Normalize(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// Lookup normalizes the name and returns its catalog entry.
func (r *Registry) Lookup(name string) (Info, bool) {
	info, ok := r.keys[r.Normalize(name)]
	return info, ok
}

// Valid reports whether the name (after normalization) is in the catalog.
func (r *Registry) Valid(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// IsModifier reports whether the name is one of the four modifiers.
func (r *Registry) IsModifier(name string) bool {
	info, ok := r.Lookup(name)
	return ok && info.Type == Modifier
}

// Display returns the human-readable name for a key, falling back to
// the normalized name for keys outside the catalog.
func (r *Registry) Display(name string) string {
	if info, ok := r.Lookup(name); ok {
		return info.Display
	}
	return r.Normalize(name)
}

// SortPriority orders keys for building a combination string from a
// pressed set: modifiers (Ctrl, Alt, Shift, Meta) first, then function,
// special, and regular keys. Unknown keys sort last.
func (r *Registry) SortPriority(name string) int {
	info, ok := r.Lookup(name)
	if !ok {
		return 9999
	}
	base := int(info.Type) * 100
	if info.Type == Modifier {
		return base + modifierOrder[info.Name]
	}
	return base + int(info.Name[0])
}

// Keys returns the catalog in registry order.
func (r *Registry) Keys() []Info {
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.keys[name])
	}
	return out
}
