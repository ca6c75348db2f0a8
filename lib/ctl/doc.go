// Package ctl is a typed layer over an allocator's mallctl-style control
// interface.
//
// The package focuses on:
//   - Validated control names (Key) and name templates with index placeholders
//   - MIB resolution for repeated fast access to the same control
//   - A raw primitive issuing read, write and update calls on byte buffers
//   - Typed accessors that size and align those buffers from the value type
//   - A catalog of declared control points with a text based dynamic API
//
// Key Components:
//
//   - Controller: wraps one engine.Engine. All calls go through it; there is
//     no global engine. Errors are *Error values carrying a Kind and the
//     engine's errno.
//
//   - Key and Template: "stats.allocated" or "stats.arenas.<i>.pactive".
//     Keys are validated before any engine call, so a key with an interior
//     NUL never reaches the engine. NewKey appends the terminator itself;
//     KeyFromBytes takes raw engine input and requires it:
//
//	k, err := ctl.KeyFromBytes([]byte("stats.allocated\x00"))
//
//   - Mib: the resolved form of a key. Resolve once, copy freely, and set the
//     index components of template MIBs per call.
//
//   - Control points: ReadOnly, WriteOnly, ReadWrite and their indexed forms.
//     Every point is a single declaration that registers itself in the
//     catalog (Catalog, Lookup).
//
// A point is declared once:
//
//	var Allocated = ctl.NewReadOnly[uint]("stats.allocated", "...")
//
// and read either by name or through a resolved MIB:
//
//	m, _ := stats.ArenaPactive.Mib(c)
//	for i := uint(0); i < n; i++ {
//		pages, _ := m.Read(c, i)
//		...
//	}
//
// Statistics are snapshots. Call Epoch.Advance before reading them to get
// fresh values. MIBs stay valid across epochs.
//
// The sub packages arenas, config, opt, prof, profiling, stats and thread
// declare the control points of the corresponding namespaces.
package ctl
