package sim

import (
	"encoding/binary"
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim/internal"
	"unsafe"
)

// --------------------------------------------------------------------------
// Value Codecs
// --------------------------------------------------------------------------

// codec converts between a Go value and the native representation of the
// corresponding C type.
type codec[T any] struct {
	size int
	put  func(b []byte, v T)
	get  func(b []byte) T
}

var (
	boolCodec = codec[bool]{
		size: 1,
		put: func(b []byte, v bool) {
			b[0] = 0
			if v {
				b[0] = 1
			}
		},
		get: func(b []byte) bool { return b[0] != 0 },
	}

	u32Codec = codec[uint32]{
		size: 4,
		put:  binary.NativeEndian.PutUint32,
		get:  binary.NativeEndian.Uint32,
	}

	u64Codec = codec[uint64]{
		size: 8,
		put:  binary.NativeEndian.PutUint64,
		get:  binary.NativeEndian.Uint64,
	}

	sizeCodec = codec[uint]{
		size: int(unsafe.Sizeof(uint(0))),
		put: func(b []byte, v uint) {
			if len(b) == 8 {
				binary.NativeEndian.PutUint64(b, uint64(v))
			} else {
				binary.NativeEndian.PutUint32(b, uint32(v))
			}
		},
		get: func(b []byte) uint {
			if len(b) == 8 {
				return uint(binary.NativeEndian.Uint64(b))
			}
			return uint(binary.NativeEndian.Uint32(b))
		},
	}

	ssizeCodec = codec[int]{
		size: int(unsafe.Sizeof(int(0))),
		put:  func(b []byte, v int) { sizeCodec.put(b, uint(v)) },
		get: func(b []byte) int {
			if len(b) == 8 {
				return int(int64(binary.NativeEndian.Uint64(b)))
			}
			return int(int32(binary.NativeEndian.Uint32(b)))
		},
	}

	// Strings travel as const char *. The pointee of a string handed out by
	// the engine is owned by the engine and never modified.
	strCodec = codec[*byte]{
		size: int(unsafe.Sizeof(uintptr(0))),
		put:  func(b []byte, p *byte) { *(**byte)(unsafe.Pointer(&b[0])) = p },
		get:  func(b []byte) *byte { return *(**byte)(unsafe.Pointer(&b[0])) },
	}

	ptrCodec = codec[*uint64]{
		size: int(unsafe.Sizeof(uintptr(0))),
		put:  func(b []byte, p *uint64) { *(**uint64)(unsafe.Pointer(&b[0])) = p },
		get:  func(b []byte) *uint64 { return *(**uint64)(unsafe.Pointer(&b[0])) },
	}
)

// goString copies the NUL-terminated string at p. A nil pointer yields ok=false.
func goString(p *byte) (s string, ok bool) {
	if p == nil {
		return "", false
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n)), true
}

// cString returns an engine-owned NUL-terminated copy of s.
func cString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

// --------------------------------------------------------------------------
// Leaf Constructors
// --------------------------------------------------------------------------

// ro declares a read-only control backed by get.
func ro[T any](c codec[T], get func(idx []uint) (T, int)) *internal.Leaf {
	return &internal.Leaf{
		Size: c.size,
		Read: func(idx []uint, dst []byte) int {
			v, st := get(idx)
			if st == engine.StatusOK {
				c.put(dst, v)
			}
			return st
		},
	}
}

// wo declares a write-only control backed by set.
func wo[T any](c codec[T], set func(idx []uint, v T) int) *internal.Leaf {
	return &internal.Leaf{
		Size:  c.size,
		Write: func(idx []uint, src []byte) int { return set(idx, c.get(src)) },
	}
}

// rw declares a read-write control. The previous value is returned on update.
func rw[T any](c codec[T], get func(idx []uint) (T, int), set func(idx []uint, v T) int) *internal.Leaf {
	l := ro(c, get)
	l.Write = func(idx []uint, src []byte) int { return set(idx, c.get(src)) }
	return l
}

// constant is a read-only control with a fixed value.
func constant[T any](c codec[T], v T) *internal.Leaf {
	return ro(c, func([]uint) (T, int) { return v, engine.StatusOK })
}
