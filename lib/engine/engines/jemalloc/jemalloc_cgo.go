//go:build jemalloc && cgo

package jemalloc

/*
#cgo pkg-config: jemalloc
#include <stdbool.h>
#include <stdlib.h>
#include <jemalloc/jemalloc.h>
*/
import "C"

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/mctl/lib/engine"
	"unsafe"
)

// Available reports whether the cgo engine is compiled into this binary.
const Available = true

// --------------------------------------------------------------------------
// Core Engine Structure
// --------------------------------------------------------------------------

// jemallocImpl forwards every call to the jemalloc linked into the process.
// jemalloc synchronizes its own controls, so the engine holds no lock.
//
// Buffers are copied into C memory before each call, so C never sees Go
// memory. Values that themselves hold Go pointers (strings written through
// prof.dump or prof.prefix) must be pinned by the caller.
//
// Controls under thread.* refer to the calling OS thread. Goroutines that use
// them should call runtime.LockOSThread first.
type jemallocImpl struct {
	version  string
	features engine.Feature
}

// New opens the process's jemalloc. The library must be the one serving
// malloc, otherwise statistics describe an allocator nobody uses.
func New() (engine.Engine, error) {
	e := &jemallocImpl{features: engine.FeatureArenaCreate}

	var p *C.char
	if st := e.Mallctl([]byte("version\x00"), ptrBytes(&p), nil); st != engine.StatusOK {
		return nil, fmt.Errorf("jemalloc: reading version failed with errno %d", st)
	}
	e.version = C.GoString(p)

	if e.configFlag("config.stats") {
		e.features |= engine.FeatureStats | engine.FeatureThreadCounters
	}
	if e.configFlag("config.prof") {
		e.features |= engine.FeatureProfiling
	}
	var bg C.bool
	if e.Mallctl([]byte("background_thread\x00"), ptrBytes(&bg), nil) == engine.StatusOK {
		e.features |= engine.FeatureBackgroundThreads
	}

	Logger.Infof("jemalloc %s opened (features %#x)", e.version, uint64(e.features))
	return e, nil
}

func (e *jemallocImpl) configFlag(name string) bool {
	var v C.bool
	st := e.Mallctl(append([]byte(name), 0), ptrBytes(&v), nil)
	return st == engine.StatusOK && bool(v)
}

// ptrBytes views the single C value at p as bytes of its own size.
func ptrBytes[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
}

// --------------------------------------------------------------------------
// Buffer Staging
// --------------------------------------------------------------------------

// staged holds C copies of the old and new buffers of one call.
type staged struct {
	oldp    unsafe.Pointer
	oldlen  C.size_t
	oldlenp *C.size_t
	newp    unsafe.Pointer
	newlen  C.size_t
}

func stage(oldp, newp []byte) *staged {
	s := &staged{}
	if oldp != nil {
		s.oldp = C.malloc(C.size_t(len(oldp) + 1))
		s.oldlenp = (*C.size_t)(C.malloc(C.size_t(unsafe.Sizeof(C.size_t(0)))))
		*s.oldlenp = C.size_t(len(oldp))
	}
	if newp != nil {
		s.newp = C.malloc(C.size_t(len(newp) + 1))
		copy(unsafe.Slice((*byte)(s.newp), len(newp)), newp)
		s.newlen = C.size_t(len(newp))
	}
	return s
}

// finish copies the old value back on success and frees the C memory.
func (s *staged) finish(status C.int, oldp []byte) int {
	if status == 0 && s.oldp != nil {
		if int(*s.oldlenp) != len(oldp) {
			status = C.int(engine.EINVAL)
		} else {
			copy(oldp, unsafe.Slice((*byte)(s.oldp), len(oldp)))
		}
	}
	C.free(s.oldp)
	C.free(unsafe.Pointer(s.oldlenp))
	C.free(s.newp)
	return int(status)
}

// --------------------------------------------------------------------------
// Engine Interface Methods
// --------------------------------------------------------------------------

// Mallctl calls mallctl(3).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *jemallocImpl) Mallctl(name []byte, oldp, newp []byte) int {
	if bytes.IndexByte(name, 0) != len(name)-1 {
		return engine.EINVAL
	}
	cname := C.CBytes(name)
	defer C.free(cname)

	s := stage(oldp, newp)
	st := C.mallctl((*C.char)(cname), s.oldp, s.oldlenp, s.newp, s.newlen)
	return s.finish(st, oldp)
}

// MallctlNameToMib calls mallctlnametomib(3).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *jemallocImpl) MallctlNameToMib(name []byte, mib []uint) (int, int) {
	if bytes.IndexByte(name, 0) != len(name)-1 || len(mib) == 0 {
		return 0, engine.EINVAL
	}
	cname := C.CBytes(name)
	defer C.free(cname)

	cmib := (*C.size_t)(C.malloc(C.size_t(len(mib)) * C.size_t(unsafe.Sizeof(C.size_t(0)))))
	defer C.free(unsafe.Pointer(cmib))
	n := (*C.size_t)(C.malloc(C.size_t(unsafe.Sizeof(C.size_t(0)))))
	defer C.free(unsafe.Pointer(n))
	*n = C.size_t(len(mib))

	st := int(C.mallctlnametomib((*C.char)(cname), cmib, n))
	if st != engine.StatusOK {
		return 0, st
	}
	got := int(*n)
	for i, v := range unsafe.Slice(cmib, got) {
		mib[i] = uint(v)
	}
	return got, engine.StatusOK
}

// MallctlByMib calls mallctlbymib(3).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *jemallocImpl) MallctlByMib(mib []uint, oldp, newp []byte) int {
	if len(mib) == 0 {
		return engine.ENOENT
	}
	cmib := (*C.size_t)(C.malloc(C.size_t(len(mib)) * C.size_t(unsafe.Sizeof(C.size_t(0)))))
	defer C.free(unsafe.Pointer(cmib))
	dst := unsafe.Slice(cmib, len(mib))
	for i, v := range mib {
		dst[i] = C.size_t(v)
	}

	s := stage(oldp, newp)
	st := C.mallctlbymib(cmib, C.size_t(len(mib)), s.oldp, s.oldlenp, s.newp, s.newlen)
	return s.finish(st, oldp)
}

// SupportsFeature checks if the engine supports the specified feature(s).
func (e *jemallocImpl) SupportsFeature(feature engine.Feature) bool {
	return e.features&feature == feature
}

// GetInfo returns information about the engine.
func (e *jemallocImpl) GetInfo() engine.Info {
	var supported []engine.Feature
	for _, f := range engine.AllFeatures {
		if e.SupportsFeature(f) {
			supported = append(supported, f)
		}
	}
	var narenas C.uint
	e.Mallctl([]byte("arenas.narenas\x00"), ptrBytes(&narenas), nil)
	return engine.Info{
		Impl:              engine.ImplJemalloc,
		Version:           e.version,
		SupportedFeatures: supported,
		Metadata: map[string]interface{}{
			"narenas": uint32(narenas),
		},
	}
}

// Close is a no-op; the allocator lives as long as the process.
func (e *jemallocImpl) Close() error {
	return nil
}
