package ctl

import (
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"unsafe"
)

// All unsafe reinterpretation of values as engine buffers lives in this file.

// --------------------------------------------------------------------------
// Value Types
// --------------------------------------------------------------------------

// Value lists the Go types a control can hold:
//   - bool, uint32, uint64 for the engine's fixed width types
//   - uint and int for size_t and ssize_t
//   - CStr for const char * values
//   - ThreadLocal for uint64_t * values
type Value interface {
	bool | uint32 | uint64 | uint | int | CStr | ThreadLocal
}

// ValueType names the C type of a control value.
type ValueType uint8

const (
	TypeBool ValueType = iota
	TypeUint32
	TypeUint64
	TypeSize
	TypeSSize
	TypeString
	TypeThreadLocal
)

func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeUint32:
		return "uint32_t"
	case TypeUint64:
		return "uint64_t"
	case TypeSize:
		return "size_t"
	case TypeSSize:
		return "ssize_t"
	case TypeString:
		return "const char *"
	case TypeThreadLocal:
		return "uint64_t *"
	default:
		return "unknown"
	}
}

// TypeOf returns the ValueType of T.
func TypeOf[T Value]() ValueType {
	var v T
	switch any(v).(type) {
	case bool:
		return TypeBool
	case uint32:
		return TypeUint32
	case uint64:
		return TypeUint64
	case uint:
		return TypeSize
	case int:
		return TypeSSize
	case CStr:
		return TypeString
	default:
		return TypeThreadLocal
	}
}

// SizeOf returns the buffer size the engine expects for T.
func SizeOf[T Value]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// bytesOf views *v as its raw bytes. The slice aliases v, so it has the exact
// size and alignment of T.
func bytesOf[T Value](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// pinValue pins memory referenced by v for the duration of an engine call.
func pinValue[T Value](p *runtime.Pinner, v *T) {
	if s, ok := any(v).(*CStr); ok && s.p != nil {
		p.Pin(s.p)
	}
}

// --------------------------------------------------------------------------
// CStr
// --------------------------------------------------------------------------

// CStr is a pointer to a NUL-terminated string, laid out like const char *.
// Strings read from the engine point into engine-owned memory that stays valid
// for the engine's lifetime. Strings written to the engine must be built with
// CString or CStrFromBytes.
type CStr struct {
	p *byte
}

// CString copies s into a new NUL-terminated buffer. Everything from the first
// NUL in s on is dropped.
func CString(s string) CStr {
	if i := indexNUL(s); i >= 0 {
		s = s[:i]
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return CStr{p: &b[0]}
}

// CStrFromBytes wraps b, which must contain a NUL. It does not copy; b must
// not change while the CStr is in use.
func CStrFromBytes(b []byte) (CStr, error) {
	for i := range b {
		if b[i] == 0 {
			return CStr{p: &b[0]}, nil
		}
	}
	return CStr{}, &Error{Kind: KindInvalidArgument, Op: "cstr", Msg: "missing NUL terminator"}
}

// IsNil reports whether the pointer is NULL.
func (s CStr) IsNil() bool { return s.p == nil }

// String copies the bytes up to the terminator. A NULL pointer yields "".
func (s CStr) String() string {
	if s.p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(s.p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(s.p, n))
}

func indexNUL(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return i
		}
	}
	return -1
}

// --------------------------------------------------------------------------
// ThreadLocal
// --------------------------------------------------------------------------

// ThreadLocal points at a counter the engine maintains for one OS thread, as
// returned by thread.allocatedp. The pointer is only meaningful on the thread
// that read it; goroutines should hold runtime.LockOSThread while using it.
type ThreadLocal struct {
	p *uint64
}

// IsNil reports whether the pointer is NULL.
func (t ThreadLocal) IsNil() bool { return t.p == nil }

// Get loads the current counter value without a control call.
func (t ThreadLocal) Get() uint64 {
	if t.p == nil {
		return 0
	}
	return atomic.LoadUint64(t.p)
}

func (t ThreadLocal) String() string {
	return fmt.Sprintf("%#x", uintptr(unsafe.Pointer(t.p)))
}

// --------------------------------------------------------------------------
// Text Conversion
// --------------------------------------------------------------------------

// FormatValue renders v for display.
func FormatValue[T Value](v T) string {
	switch x := any(v).(type) {
	case bool:
		return strconv.FormatBool(x)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case int:
		return strconv.Itoa(x)
	case CStr:
		return x.String()
	case ThreadLocal:
		return x.String()
	}
	return ""
}

// ParseValue parses s as a T. Pointer values other than strings cannot be
// built from text.
func ParseValue[T Value](s string) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *bool:
		*p, err = strconv.ParseBool(s)
	case *uint32:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 32)
		*p = uint32(v)
	case *uint64:
		*p, err = strconv.ParseUint(s, 10, 64)
	case *uint:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 0)
		*p = uint(v)
	case *int:
		var v int64
		v, err = strconv.ParseInt(s, 10, 0)
		*p = int(v)
	case *CStr:
		*p = CString(s)
	case *ThreadLocal:
		err = fmt.Errorf("pointer values cannot be parsed")
	}
	if err != nil {
		var zero T
		return zero, &Error{Kind: KindInvalidArgument, Op: "parse", Name: s, Msg: err.Error()}
	}
	return out, nil
}
