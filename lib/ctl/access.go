package ctl

import "runtime"

// --------------------------------------------------------------------------
// Generic Access
// --------------------------------------------------------------------------

// Read returns the current value of t as a T.
func Read[T Value](c *Controller, t Target) (T, error) {
	var v T
	if err := c.ReadInto(t, bytesOf(&v)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Write stores v as the new value of t.
func Write[T Value](c *Controller, t Target, v T) error {
	var pin runtime.Pinner
	defer pin.Unpin()
	pinValue(&pin, &v)
	return c.WriteFrom(t, bytesOf(&v))
}

// Update stores v and returns the previous value of t in one engine call.
func Update[T Value](c *Controller, t Target, v T) (T, error) {
	var pin runtime.Pinner
	defer pin.Unpin()
	pinValue(&pin, &v)
	var old T
	if err := c.Update(t, bytesOf(&v), bytesOf(&old)); err != nil {
		var zero T
		return zero, err
	}
	return old, nil
}

// --------------------------------------------------------------------------
// Control Points
// --------------------------------------------------------------------------

// point is the part shared by every plain (non-indexed) control point.
type point[T Value] struct {
	e *entry[T]
}

// Key returns the control name.
func (p point[T]) Key() Key { return p.e.key }

// Descriptor describes the point as registered in the catalog.
func (p point[T]) Descriptor() Descriptor { return p.e.Descriptor() }

func (p point[T]) resolve(c *Controller) (Mib, error) { return p.e.key.Resolve(c) }

// mibPoint is the part shared by every resolved control point.
type mibPoint[T Value] struct {
	mib Mib
}

// Raw returns the resolved MIB.
func (m mibPoint[T]) Raw() Mib { return m.mib }

// ReadOnly is a control that can only be read.
type ReadOnly[T Value] struct{ point[T] }

// NewReadOnly declares and registers a read-only control.
func NewReadOnly[T Value](path, doc string) ReadOnly[T] {
	return ReadOnly[T]{point[T]{define[T](path, doc, OpRead)}}
}

func (p ReadOnly[T]) Read(c *Controller) (T, error) { return Read[T](c, p.e.key) }

// Mib resolves the control for repeated access.
func (p ReadOnly[T]) Mib(c *Controller) (ReadOnlyMib[T], error) {
	m, err := p.resolve(c)
	return ReadOnlyMib[T]{mibPoint[T]{m}}, err
}

// ReadOnlyMib is a resolved ReadOnly control.
type ReadOnlyMib[T Value] struct{ mibPoint[T] }

func (m ReadOnlyMib[T]) Read(c *Controller) (T, error) { return Read[T](c, m.mib) }

// WriteOnly is a control that can only be written, such as prof.dump.
type WriteOnly[T Value] struct{ point[T] }

// NewWriteOnly declares and registers a write-only control.
func NewWriteOnly[T Value](path, doc string) WriteOnly[T] {
	return WriteOnly[T]{point[T]{define[T](path, doc, OpWrite)}}
}

func (p WriteOnly[T]) Write(c *Controller, v T) error { return Write(c, p.e.key, v) }

// Mib resolves the control for repeated access.
func (p WriteOnly[T]) Mib(c *Controller) (WriteOnlyMib[T], error) {
	m, err := p.resolve(c)
	return WriteOnlyMib[T]{mibPoint[T]{m}}, err
}

// WriteOnlyMib is a resolved WriteOnly control.
type WriteOnlyMib[T Value] struct{ mibPoint[T] }

func (m WriteOnlyMib[T]) Write(c *Controller, v T) error { return Write(c, m.mib, v) }

// ReadWrite is a control supporting read, write and update.
type ReadWrite[T Value] struct{ point[T] }

// NewReadWrite declares and registers a read-write control.
func NewReadWrite[T Value](path, doc string) ReadWrite[T] {
	return ReadWrite[T]{point[T]{define[T](path, doc, OpRead|OpWrite|OpUpdate)}}
}

func (p ReadWrite[T]) Read(c *Controller) (T, error) { return Read[T](c, p.e.key) }
func (p ReadWrite[T]) Write(c *Controller, v T) error { return Write(c, p.e.key, v) }
func (p ReadWrite[T]) Update(c *Controller, v T) (T, error) { return Update(c, p.e.key, v) }

// Mib resolves the control for repeated access.
func (p ReadWrite[T]) Mib(c *Controller) (ReadWriteMib[T], error) {
	m, err := p.resolve(c)
	return ReadWriteMib[T]{mibPoint[T]{m}}, err
}

// ReadWriteMib is a resolved ReadWrite control.
type ReadWriteMib[T Value] struct{ mibPoint[T] }

func (m ReadWriteMib[T]) Read(c *Controller) (T, error) { return Read[T](c, m.mib) }
func (m ReadWriteMib[T]) Write(c *Controller, v T) error { return Write(c, m.mib, v) }
func (m ReadWriteMib[T]) Update(c *Controller, v T) (T, error) { return Update(c, m.mib, v) }

// --------------------------------------------------------------------------
// Indexed Control Points
// --------------------------------------------------------------------------

// indexed is the part shared by control points with placeholder components,
// such as per-arena statistics.
type indexed[T Value] struct {
	e *entry[T]
}

// Template returns the control's name template.
func (p indexed[T]) Template() Template { return p.e.tmpl }

// Descriptor describes the point as registered in the catalog.
func (p indexed[T]) Descriptor() Descriptor { return p.e.Descriptor() }

// Key expands the template with idx.
func (p indexed[T]) Key(idx ...uint) (Key, error) { return p.e.tmpl.Expand(idx...) }

// IndexedReadOnly is a read-only control addressed by one or more indices.
type IndexedReadOnly[T Value] struct{ indexed[T] }

// NewIndexedReadOnly declares and registers a read-only indexed control.
// path must contain at least one Placeholder component.
func NewIndexedReadOnly[T Value](path, doc string) IndexedReadOnly[T] {
	return IndexedReadOnly[T]{indexed[T]{define[T](path, doc, OpRead)}}
}

func (p IndexedReadOnly[T]) Read(c *Controller, idx ...uint) (T, error) {
	k, err := p.Key(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Read[T](c, k)
}

// Mib resolves the template once; indices are supplied per call.
func (p IndexedReadOnly[T]) Mib(c *Controller) (IndexedReadOnlyMib[T], error) {
	m, err := p.e.tmpl.Resolve(c)
	return IndexedReadOnlyMib[T]{mibPoint[T]{m}}, err
}

// IndexedReadOnlyMib is a resolved IndexedReadOnly control.
type IndexedReadOnlyMib[T Value] struct{ mibPoint[T] }

func (m IndexedReadOnlyMib[T]) Read(c *Controller, idx ...uint) (T, error) {
	mib, err := m.mib.WithIndex(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Read[T](c, mib)
}

// IndexedReadWrite is a read-write control addressed by one or more indices.
type IndexedReadWrite[T Value] struct{ indexed[T] }

// NewIndexedReadWrite declares and registers a read-write indexed control.
func NewIndexedReadWrite[T Value](path, doc string) IndexedReadWrite[T] {
	return IndexedReadWrite[T]{indexed[T]{define[T](path, doc, OpRead|OpWrite|OpUpdate)}}
}

func (p IndexedReadWrite[T]) Read(c *Controller, idx ...uint) (T, error) {
	k, err := p.Key(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Read[T](c, k)
}

func (p IndexedReadWrite[T]) Write(c *Controller, v T, idx ...uint) error {
	k, err := p.Key(idx...)
	if err != nil {
		return err
	}
	return Write(c, k, v)
}

func (p IndexedReadWrite[T]) Update(c *Controller, v T, idx ...uint) (T, error) {
	k, err := p.Key(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Update(c, k, v)
}

// Mib resolves the template once; indices are supplied per call.
func (p IndexedReadWrite[T]) Mib(c *Controller) (IndexedReadWriteMib[T], error) {
	m, err := p.e.tmpl.Resolve(c)
	return IndexedReadWriteMib[T]{mibPoint[T]{m}}, err
}

// IndexedReadWriteMib is a resolved IndexedReadWrite control.
type IndexedReadWriteMib[T Value] struct{ mibPoint[T] }

func (m IndexedReadWriteMib[T]) Read(c *Controller, idx ...uint) (T, error) {
	mib, err := m.mib.WithIndex(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Read[T](c, mib)
}

func (m IndexedReadWriteMib[T]) Write(c *Controller, v T, idx ...uint) error {
	mib, err := m.mib.WithIndex(idx...)
	if err != nil {
		return err
	}
	return Write(c, mib, v)
}

func (m IndexedReadWriteMib[T]) Update(c *Controller, v T, idx ...uint) (T, error) {
	mib, err := m.mib.WithIndex(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Update(c, mib, v)
}
