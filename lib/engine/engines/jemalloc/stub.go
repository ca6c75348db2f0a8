//go:build !jemalloc || !cgo

package jemalloc

import "github.com/ValentinKolb/mctl/lib/engine"

// Available reports whether the cgo engine is compiled into this binary.
const Available = false

// New always fails with ErrUnavailable in this build.
func New() (engine.Engine, error) {
	return nil, ErrUnavailable
}
