package ctl

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/mctl/lib/engine"
	"strconv"
	"strings"
)

// MaxDepth is the largest number of dot separated components a key may have.
const MaxDepth = engine.MaxDepth

// --------------------------------------------------------------------------
// Key
// --------------------------------------------------------------------------

// Key is a validated, NUL-terminated control name such as "stats.allocated".
// The zero Key is invalid and is rejected by every operation.
type Key struct {
	b     []byte // name bytes followed by exactly one NUL, never modified
	depth int
}

// NewKey validates path and returns its key. NewKey is lenient about the
// terminator: path may be given with or without one trailing NUL, and the key
// always stores exactly one. Any other NUL, an empty path or an empty
// component fails with KindInvalidKey. Use KeyFromBytes when the input must
// already be NUL-terminated.
func NewKey(path string) (Key, error) {
	path = strings.TrimSuffix(path, "\x00")
	if err := validatePath(path); err != nil {
		return Key{}, err
	}
	b := make([]byte, len(path)+1)
	copy(b, path)
	return Key{b: b, depth: strings.Count(path, ".") + 1}, nil
}

// KeyFromBytes is the strict form of NewKey: b must end in exactly one NUL and
// contain no other. A missing terminator fails with KindInvalidKey.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) == 0 || b[len(b)-1] != 0 {
		return Key{}, invalidKey(string(b), "missing NUL terminator")
	}
	if bytes.IndexByte(b[:len(b)-1], 0) >= 0 {
		return Key{}, invalidKey(string(b), "NUL before the terminator")
	}
	return NewKey(string(b[:len(b)-1]))
}

// MustKey is NewKey for static declarations. It panics on an invalid literal.
func MustKey(path string) Key {
	k, err := NewKey(path)
	if err != nil {
		panic(err)
	}
	return k
}

func validatePath(path string) error {
	if path == "" {
		return invalidKey(path, "empty key")
	}
	if i := strings.IndexByte(path, 0); i >= 0 {
		return invalidKey(strings.ReplaceAll(path, "\x00", `\0`), fmt.Sprintf("interior NUL at offset %d", i))
	}
	segs := strings.Split(path, ".")
	if len(segs) > MaxDepth {
		return invalidKey(path, fmt.Sprintf("%d components exceed the maximum of %d", len(segs), MaxDepth))
	}
	for _, s := range segs {
		if s == "" {
			return invalidKey(path, "empty component")
		}
	}
	return nil
}

// Bytes returns the NUL-terminated name. The slice must not be modified.
func (k Key) Bytes() []byte { return k.b }

// String returns the name without the terminator.
func (k Key) String() string {
	if len(k.b) == 0 {
		return ""
	}
	return string(k.b[:len(k.b)-1])
}

// Depth is the number of components, which is also the MIB length of the key.
func (k Key) Depth() int { return k.depth }

// Segments splits the name at its dots.
func (k Key) Segments() []string { return strings.Split(k.String(), ".") }

// Resolve translates the key into a MIB of exactly Depth components.
func (k Key) Resolve(c *Controller) (Mib, error) {
	return ResolveLen(c, k, k.depth)
}

func (k Key) valid() error {
	if k.b == nil {
		return invalidKey("", "zero key")
	}
	return nil
}

func (k Key) call(e engine.Engine, oldp, newp []byte) int {
	return e.Mallctl(k.b, oldp, newp)
}

// --------------------------------------------------------------------------
// Template
// --------------------------------------------------------------------------

// Placeholder marks an index component in a template path.
const Placeholder = "<i>"

// Template is a control name with index placeholders, for example
// "stats.arenas.<i>.pactive".
type Template struct {
	path  string
	segs  []string
	slots []int
}

// NewTemplate parses path. Components equal to Placeholder become index slots.
func NewTemplate(path string) (Template, error) {
	if err := validatePath(path); err != nil {
		return Template{}, err
	}
	t := Template{path: path, segs: strings.Split(path, ".")}
	for i, s := range t.segs {
		if s == Placeholder {
			t.slots = append(t.slots, i)
		}
	}
	return t, nil
}

// MustTemplate is NewTemplate for static declarations.
func MustTemplate(path string) Template {
	t, err := NewTemplate(path)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Template) String() string { return t.path }

// Depth is the number of components of every expansion.
func (t Template) Depth() int { return len(t.segs) }

// Slots returns the component positions holding placeholders.
func (t Template) Slots() []int { return append([]int(nil), t.slots...) }

// Expand substitutes idx for the placeholders, in order.
func (t Template) Expand(idx ...uint) (Key, error) {
	if len(idx) != len(t.slots) {
		return Key{}, invalidKey(t.path, fmt.Sprintf("need %d indices, got %d", len(t.slots), len(idx)))
	}
	if len(t.slots) == 0 {
		return NewKey(t.path)
	}
	segs := append([]string(nil), t.segs...)
	for i, slot := range t.slots {
		segs[slot] = strconv.FormatUint(uint64(idx[i]), 10)
	}
	return NewKey(strings.Join(segs, "."))
}

// Match reports whether name is an expansion of t and returns its indices.
func (t Template) Match(name string) ([]uint, bool) {
	segs := strings.Split(strings.TrimSuffix(name, "\x00"), ".")
	if len(segs) != len(t.segs) {
		return nil, false
	}
	idx := make([]uint, 0, len(t.slots))
	for i, s := range t.segs {
		if s != Placeholder {
			if segs[i] != s {
				return nil, false
			}
			continue
		}
		v, err := strconv.ParseUint(segs[i], 10, 0)
		if err != nil {
			return nil, false
		}
		idx = append(idx, uint(v))
	}
	return idx, true
}

// Resolve resolves the template with index 0 in every placeholder and marks
// those components settable on the returned MIB.
func (t Template) Resolve(c *Controller) (Mib, error) {
	k, err := t.Expand(make([]uint, len(t.slots))...)
	if err != nil {
		return Mib{}, err
	}
	m, err := k.Resolve(c)
	if err != nil {
		return Mib{}, err
	}
	for _, s := range t.slots {
		m.settable |= 1 << s
	}
	return m, nil
}
