package ctl

import (
	"fmt"
	"github.com/ValentinKolb/mctl/lib/engine"
	"strings"
)

// Mib is a resolved control name: the numeric components the engine assigned
// to each name component. A Mib is a plain value; copies are independent and
// it keeps no reference to its key or engine. Statistics refreshes do not
// invalidate a Mib.
type Mib struct {
	ids      [MaxDepth]uint
	n        uint8
	settable uint8 // bit i set: component i may be replaced with With
}

// NewMib builds a Mib from raw components, for example ones printed by an
// earlier resolution. No component is settable.
func NewMib(ids ...uint) (Mib, error) {
	if len(ids) == 0 || len(ids) > MaxDepth {
		return Mib{}, &Error{Kind: KindInvalidArgument, Op: "mib", Name: fmt.Sprint(ids),
			Msg: fmt.Sprintf("length must be between 1 and %d", MaxDepth)}
	}
	var m Mib
	m.n = uint8(copy(m.ids[:], ids))
	return m, nil
}

// ResolveLen resolves key into a MIB of exactly n components. A length shorter
// than the key's depth is rejected by the engine (KindNotFound); a longer one
// is detected locally once the engine reports fewer components
// (KindInvalidArgument).
func ResolveLen(c *Controller, key Key, n int) (Mib, error) {
	if err := key.valid(); err != nil {
		return Mib{}, err
	}
	if n <= 0 || n > MaxDepth {
		return Mib{}, &Error{Kind: KindInvalidArgument, Op: "resolve", Name: key.String(),
			Msg: fmt.Sprintf("length %d out of range", n)}
	}
	var m Mib
	got, status := c.e.MallctlNameToMib(key.b, m.ids[:n])
	if err := statusError(status, "resolve", key.String()); err != nil {
		Logger.Debugf("resolve %s failed: %v", key, err)
		return Mib{}, err
	}
	if got != n {
		return Mib{}, &Error{Kind: KindInvalidArgument, Op: "resolve", Name: key.String(),
			Msg: fmt.Sprintf("length mismatch: requested %d, engine returned %d", n, got)}
	}
	m.n = uint8(n)
	Logger.Debugf("resolved %s to %s", key, m)
	return m, nil
}

// Len is the number of components.
func (m Mib) Len() int { return int(m.n) }

// At returns component i.
func (m Mib) At(i int) uint { return m.ids[i] }

// Slice returns a copy of the components.
func (m Mib) Slice() []uint { return append([]uint(nil), m.ids[:m.n]...) }

// Settable reports whether component i may be replaced with With.
func (m Mib) Settable(i int) bool { return i >= 0 && i < int(m.n) && m.settable&(1<<i) != 0 }

// With returns a copy of m with component slot set to v. Only components that
// held a placeholder when the MIB was resolved from a Template are settable.
func (m Mib) With(slot int, v uint) (Mib, error) {
	if !m.Settable(slot) {
		return Mib{}, &Error{Kind: KindInvalidArgument, Op: "mib", Name: m.String(),
			Msg: fmt.Sprintf("component %d is not settable", slot)}
	}
	m.ids[slot] = v
	return m, nil
}

// WithIndex sets the settable components in order, mirroring Template.Expand.
func (m Mib) WithIndex(idx ...uint) (Mib, error) {
	j := 0
	for i := 0; i < int(m.n); i++ {
		if !m.Settable(i) {
			continue
		}
		if j == len(idx) {
			break
		}
		m.ids[i] = idx[j]
		j++
	}
	if j != len(idx) || j != m.slotCount() {
		return Mib{}, &Error{Kind: KindInvalidArgument, Op: "mib", Name: m.String(),
			Msg: fmt.Sprintf("need %d indices, got %d", m.slotCount(), len(idx))}
	}
	return m, nil
}

func (m Mib) slotCount() int {
	n := 0
	for i := 0; i < int(m.n); i++ {
		if m.Settable(i) {
			n++
		}
	}
	return n
}

func (m Mib) String() string {
	parts := make([]string, m.n)
	for i := range parts {
		parts[i] = fmt.Sprint(m.ids[i])
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (m Mib) valid() error {
	if m.n == 0 {
		return &Error{Kind: KindInvalidArgument, Op: "mib", Name: "[]", Msg: "empty MIB"}
	}
	return nil
}

func (m Mib) call(e engine.Engine, oldp, newp []byte) int {
	return e.MallctlByMib(m.ids[:m.n], oldp, newp)
}
