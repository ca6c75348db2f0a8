package ctl

import (
	"fmt"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
	"strings"
)

// --------------------------------------------------------------------------
// Descriptors
// --------------------------------------------------------------------------

// Ops is the set of operations a control point supports.
type Ops uint8

const (
	OpRead Ops = 1 << iota
	OpWrite
	OpUpdate
)

// Has reports whether every operation in x is in o.
func (o Ops) Has(x Ops) bool { return o&x == x }

// String renders the set in the "rwu" notation, with "-" for missing ops.
func (o Ops) String() string {
	b := []byte("---")
	if o.Has(OpRead) {
		b[0] = 'r'
	}
	if o.Has(OpWrite) {
		b[1] = 'w'
	}
	if o.Has(OpUpdate) {
		b[2] = 'u'
	}
	return string(b)
}

// Descriptor is the static declaration of a control point.
type Descriptor struct {
	Path  string    `json:"path"`  // name or template, e.g. "stats.arenas.<i>.pactive"
	Type  ValueType `json:"type"`  // C type of the value
	Ops   Ops       `json:"ops"`   // supported operations
	Depth int       `json:"depth"` // number of name components (MIB length)
	Slots []int     `json:"slots"` // placeholder component positions
	Doc   string    `json:"doc"`
}

// Indexed reports whether the point has placeholder components.
func (d Descriptor) Indexed() bool { return len(d.Slots) > 0 }

// --------------------------------------------------------------------------
// Entries
// --------------------------------------------------------------------------

// Entry is the untyped view of a control point used by tools that only know
// names at runtime. Values are exchanged as text. idx supplies the indices of
// indexed points and must be empty otherwise.
type Entry interface {
	Descriptor() Descriptor
	ReadValue(c *Controller, idx ...uint) (string, error)
	WriteValue(c *Controller, value string, idx ...uint) error
	UpdateValue(c *Controller, value string, idx ...uint) (string, error)
}

// entry is the single generic implementation behind every control point.
type entry[T Value] struct {
	desc Descriptor
	tmpl Template
	key  Key // set for points without placeholders
}

func define[T Value](path, doc string, ops Ops) *entry[T] {
	tmpl := MustTemplate(path)
	e := &entry[T]{
		desc: Descriptor{
			Path:  path,
			Type:  TypeOf[T](),
			Ops:   ops,
			Depth: tmpl.Depth(),
			Slots: tmpl.Slots(),
			Doc:   doc,
		},
		tmpl: tmpl,
	}
	if !e.desc.Indexed() {
		e.key = MustKey(path)
	}
	register(e)
	return e
}

func (e *entry[T]) Descriptor() Descriptor {
	d := e.desc
	d.Slots = append([]int(nil), e.desc.Slots...)
	return d
}

func (e *entry[T]) target(op Ops, opName string, idx []uint) (Key, error) {
	if !e.desc.Ops.Has(op) {
		return Key{}, &Error{Kind: KindUnsupportedOperation, Op: opName, Name: e.desc.Path,
			Msg: fmt.Sprintf("supported operations are %s", e.desc.Ops)}
	}
	if !e.desc.Indexed() && len(idx) == 0 {
		return e.key, nil
	}
	return e.tmpl.Expand(idx...)
}

func (e *entry[T]) ReadValue(c *Controller, idx ...uint) (string, error) {
	k, err := e.target(OpRead, "read", idx)
	if err != nil {
		return "", err
	}
	v, err := Read[T](c, k)
	if err != nil {
		return "", err
	}
	return FormatValue(v), nil
}

func (e *entry[T]) WriteValue(c *Controller, value string, idx ...uint) error {
	k, err := e.target(OpWrite, "write", idx)
	if err != nil {
		return err
	}
	v, err := ParseValue[T](value)
	if err != nil {
		return err
	}
	return Write(c, k, v)
}

func (e *entry[T]) UpdateValue(c *Controller, value string, idx ...uint) (string, error) {
	k, err := e.target(OpUpdate, "update", idx)
	if err != nil {
		return "", err
	}
	v, err := ParseValue[T](value)
	if err != nil {
		return "", err
	}
	old, err := Update(c, k, v)
	if err != nil {
		return "", err
	}
	return FormatValue(old), nil
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

var registry = xsync.NewMapOf[string, Entry]()

// register adds e to the process-wide catalog. Declaring the same path twice
// is a programming error.
func register(e Entry) {
	path := e.Descriptor().Path
	if _, loaded := registry.LoadOrStore(path, e); loaded {
		panic(fmt.Sprintf("ctl: control point %q declared twice", path))
	}
}

// Entries returns every declared control point, sorted by path.
func Entries() []Entry {
	out := make([]Entry, 0, registry.Size())
	registry.Range(func(_ string, e Entry) bool {
		out = append(out, e)
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Descriptor().Path < out[j].Descriptor().Path
	})
	return out
}

// Catalog returns the descriptors of every declared control point, sorted by
// path.
func Catalog() []Descriptor {
	entries := Entries()
	out := make([]Descriptor, len(entries))
	for i, e := range entries {
		out[i] = e.Descriptor()
	}
	return out
}

// Lookup finds the control point for name. name is either a declared path,
// including templates, or a concrete expansion of a template such as
// "stats.arenas.3.pactive", in which case the indices are returned too.
func Lookup(name string) (Entry, []uint, bool) {
	if e, ok := registry.Load(name); ok {
		return e, nil, true
	}
	if !strings.ContainsAny(name, "0123456789") {
		return nil, nil, false
	}
	var (
		found Entry
		idx   []uint
	)
	registry.Range(func(_ string, e Entry) bool {
		d := e.Descriptor()
		if !d.Indexed() {
			return true
		}
		if i, ok := MustTemplate(d.Path).Match(name); ok {
			found, idx = e, i
			return false
		}
		return true
	})
	return found, idx, found != nil
}
