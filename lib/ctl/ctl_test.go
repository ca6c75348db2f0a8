package ctl

import (
	"errors"
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync/atomic"
	"testing"
	"unsafe"
)

// countingEngine records how often the wrapped engine is called.
type countingEngine struct {
	engine.Engine
	calls atomic.Int64
}

func (e *countingEngine) Mallctl(name []byte, oldp, newp []byte) int {
	e.calls.Add(1)
	return e.Engine.Mallctl(name, oldp, newp)
}

func (e *countingEngine) MallctlNameToMib(name []byte, mib []uint) (int, int) {
	e.calls.Add(1)
	return e.Engine.MallctlNameToMib(name, mib)
}

func (e *countingEngine) MallctlByMib(mib []uint, oldp, newp []byte) int {
	e.calls.Add(1)
	return e.Engine.MallctlByMib(mib, oldp, newp)
}

func newTestController(t *testing.T) (*Controller, *countingEngine) {
	opts := sim.DefaultOptions()
	opts.NumArenas = 2
	e := &countingEngine{Engine: sim.New(opts)}
	t.Cleanup(func() { _ = e.Close() })
	return New(e), e
}

// --------------------------------------------------------------------------
// Keys
// --------------------------------------------------------------------------

func TestNewKey(t *testing.T) {
	k, err := NewKey("stats.allocated")
	require.NoError(t, err)
	assert.Equal(t, "stats.allocated", k.String())
	assert.Equal(t, []byte("stats.allocated\x00"), k.Bytes())
	assert.Equal(t, 2, k.Depth())
	assert.Equal(t, []string{"stats", "allocated"}, k.Segments())

	withNul, err := NewKey("stats.allocated\x00")
	require.NoError(t, err)
	assert.Equal(t, k.Bytes(), withNul.Bytes())
}

func TestNewKeyRejects(t *testing.T) {
	for _, path := range []string{
		"",
		"\x00",
		"stats\x00allocated",
		"stats.allocated\x00\x00",
		".stats",
		"stats..allocated",
		"stats.",
		"a.b.c.d.e.f.g.h.i",
	} {
		_, err := NewKey(path)
		assert.ErrorIs(t, err, ErrInvalidKey, "path %q", path)
	}
}

func TestKeyFromBytes(t *testing.T) {
	k, err := KeyFromBytes([]byte("epoch\x00"))
	require.NoError(t, err)
	assert.Equal(t, "epoch", k.String())

	_, err = KeyFromBytes([]byte("epoch"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = KeyFromBytes([]byte("epoch\x00\x00"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = KeyFromBytes([]byte("ep\x00och\x00"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = KeyFromBytes(nil)
	assert.ErrorIs(t, err, ErrInvalidKey)

	// NewKey takes the same name with or without its terminator
	lenient, err := NewKey("epoch")
	require.NoError(t, err)
	assert.Equal(t, k.Bytes(), lenient.Bytes())
}

func TestInvalidKeyNeverReachesEngine(t *testing.T) {
	c, e := newTestController(t)

	k, err := NewKey("stats\x00.allocated")
	require.ErrorIs(t, err, ErrInvalidKey)

	// the zero key is what a failed constructor returns
	_, err = Read[uint](c, k)
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, Write[uint](c, k, 1), ErrInvalidKey)
	_, err = Update[uint](c, k, 1)
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = k.Resolve(c)
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = c.MibFor("stats\x00.allocated")
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = Read[uint](c, Mib{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, int64(0), e.calls.Load())
}

func TestTemplate(t *testing.T) {
	tmpl, err := NewTemplate("stats.arenas.<i>.pactive")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, tmpl.Slots())
	assert.Equal(t, 4, tmpl.Depth())

	k, err := tmpl.Expand(7)
	require.NoError(t, err)
	assert.Equal(t, "stats.arenas.7.pactive", k.String())

	_, err = tmpl.Expand()
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = tmpl.Expand(1, 2)
	assert.ErrorIs(t, err, ErrInvalidKey)

	idx, ok := tmpl.Match("stats.arenas.4096.pactive")
	require.True(t, ok)
	assert.Equal(t, []uint{4096}, idx)

	_, ok = tmpl.Match("stats.arenas.x.pactive")
	assert.False(t, ok)
	_, ok = tmpl.Match("stats.arenas.1.pdirty")
	assert.False(t, ok)
	_, ok = tmpl.Match("stats.arenas.1")
	assert.False(t, ok)
}

// --------------------------------------------------------------------------
// MIBs
// --------------------------------------------------------------------------

func TestMibIsACopy(t *testing.T) {
	c, _ := newTestController(t)

	tmpl := MustTemplate("stats.arenas.<i>.pactive")
	m, err := tmpl.Resolve(c)
	require.NoError(t, err)
	assert.True(t, m.Settable(2))
	assert.False(t, m.Settable(0))
	assert.False(t, m.Settable(7))

	m1, err := m.With(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(0), m.At(2), "With must not modify the receiver")
	assert.Equal(t, uint(1), m1.At(2))

	_, err = m.With(0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s := m1.Slice()
	s[0] = 99
	assert.NotEqual(t, uint(99), m1.At(0))
}

func TestMibWithIndex(t *testing.T) {
	c, _ := newTestController(t)

	m, err := MustTemplate("arena.<i>.dirty_decay_ms").Resolve(c)
	require.NoError(t, err)

	_, err = m.WithIndex()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.WithIndex(1, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	m1, err := m.WithIndex(1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), m1.At(1))
}

func TestNewMib(t *testing.T) {
	_, err := NewMib()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewMib(make([]uint, MaxDepth+1)...)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	c, _ := newTestController(t)
	resolved, err := MustKey("arenas.page").Resolve(c)
	require.NoError(t, err)
	rebuilt, err := NewMib(resolved.Slice()...)
	require.NoError(t, err)

	a, err := Read[uint](c, resolved)
	require.NoError(t, err)
	b, err := Read[uint](c, rebuilt)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, resolved.String(), rebuilt.String())
}

func TestMibSurvivesEpoch(t *testing.T) {
	c, _ := newTestController(t)

	m, err := MustKey("stats.allocated").Resolve(c)
	require.NoError(t, err)
	_, err = Epoch.Advance(c)
	require.NoError(t, err)
	_, err = Read[uint](c, m)
	assert.NoError(t, err)
}

func TestMibFor(t *testing.T) {
	c, e := newTestController(t)

	m, err := c.MibFor("stats.resident")
	require.NoError(t, err)
	calls := e.calls.Load()

	again, err := c.MibFor("stats.resident")
	require.NoError(t, err)
	assert.Equal(t, m, again)
	assert.Equal(t, calls, e.calls.Load(), "cached resolution must not call the engine")

	_, err = c.MibFor("stats.nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --------------------------------------------------------------------------
// Raw primitive and typed access
// --------------------------------------------------------------------------

func TestRawPrimitive(t *testing.T) {
	c, _ := newTestController(t)
	k := MustKey("arenas.dirty_decay_ms")

	var v int
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	require.NoError(t, c.ReadInto(k, buf))
	orig := v

	v = 1234
	require.NoError(t, c.WriteFrom(k, buf))

	var old int
	oldBuf := unsafe.Slice((*byte)(unsafe.Pointer(&old)), unsafe.Sizeof(old))
	v = orig
	require.NoError(t, c.Update(k, buf, oldBuf))
	assert.Equal(t, 1234, old)

	got, err := Read[int](c, k)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestErrorMapping(t *testing.T) {
	cases := map[int]*Error{
		engine.ENOENT: ErrNotFound,
		engine.EPERM:  ErrPermissionDenied,
		engine.EINVAL: ErrInvalidArgument,
		engine.EAGAIN: ErrResourceExhausted,
		engine.ENOMEM: ErrResourceExhausted,
		engine.EFAULT: ErrOther,
		12345:         ErrOther,
	}
	for code, want := range cases {
		err := statusError(code, "read", "x")
		assert.ErrorIs(t, err, want, "errno %d", code)
		var cerr *Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, code, cerr.Code)
	}
	assert.NoError(t, statusError(engine.StatusOK, "read", "x"))
	assert.NotErrorIs(t, statusError(engine.ENOENT, "read", "x"), ErrPermissionDenied)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindNotFound, Code: engine.ENOENT, Op: "read", Name: "no.such"}
	assert.Contains(t, err.Error(), "read no.such: NotFound")
	assert.Contains(t, err.Error(), "errno")
}

func TestCString(t *testing.T) {
	s := CString("jeprof")
	assert.Equal(t, "jeprof", s.String())
	assert.Equal(t, "ab", CString("ab\x00cd").String())
	assert.True(t, CStr{}.IsNil())
	assert.Equal(t, "", CStr{}.String())

	_, err := CStrFromBytes([]byte("abc"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	fb, err := CStrFromBytes([]byte("abc\x00"))
	require.NoError(t, err)
	assert.Equal(t, "abc", fb.String())
}

func TestValueSizes(t *testing.T) {
	assert.Equal(t, 1, SizeOf[bool]())
	assert.Equal(t, 4, SizeOf[uint32]())
	assert.Equal(t, 8, SizeOf[uint64]())
	assert.Equal(t, int(unsafe.Sizeof(uintptr(0))), SizeOf[uint]())
	assert.Equal(t, int(unsafe.Sizeof(uintptr(0))), SizeOf[int]())
	assert.Equal(t, int(unsafe.Sizeof(uintptr(0))), SizeOf[CStr]())
	assert.Equal(t, int(unsafe.Sizeof(uintptr(0))), SizeOf[ThreadLocal]())

	assert.Equal(t, TypeSize, TypeOf[uint]())
	assert.Equal(t, TypeString, TypeOf[CStr]())
	assert.Equal(t, "ssize_t", TypeOf[int]().String())
}

func TestParseAndFormat(t *testing.T) {
	b, err := ParseValue[bool]("true")
	require.NoError(t, err)
	assert.True(t, b)

	i, err := ParseValue[int]("-1")
	require.NoError(t, err)
	assert.Equal(t, "-1", FormatValue(i))

	_, err = ParseValue[uint32]("4294967296")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseValue[uint]("-1")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseValue[ThreadLocal]("0x1")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s, err := ParseValue[CStr]("x.heap")
	require.NoError(t, err)
	assert.Equal(t, "x.heap", FormatValue(s))
}

func TestReadString(t *testing.T) {
	c, _ := newTestController(t)

	v, err := Version.Read(c)
	require.NoError(t, err)
	assert.Equal(t, sim.Version, v.String())

	m, err := Version.Mib(c)
	require.NoError(t, err)
	byMib, err := m.Read(c)
	require.NoError(t, err)
	assert.Equal(t, v.String(), byMib.String())
}

func TestUpdateReturnsPrevious(t *testing.T) {
	c, _ := newTestController(t)

	n, err := MaxBackgroundThreads.Read(c)
	require.NoError(t, err)
	require.NoError(t, MaxBackgroundThreads.Write(c, n+1))
	v, err := MaxBackgroundThreads.Read(c)
	require.NoError(t, err)
	assert.Equal(t, n+1, v)

	old, err := MaxBackgroundThreads.Update(c, n)
	require.NoError(t, err)
	assert.Equal(t, n+1, old)
	v, err = MaxBackgroundThreads.Read(c)
	require.NoError(t, err)
	assert.Equal(t, n, v)
}

func TestFailedUpdateLeavesValue(t *testing.T) {
	c, _ := newTestController(t)

	n, err := MaxBackgroundThreads.Read(c)
	require.NoError(t, err)
	old, err := MaxBackgroundThreads.Update(c, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, uint(0), old, "a failed update returns the zero value")
	v, err := MaxBackgroundThreads.Read(c)
	require.NoError(t, err)
	assert.Equal(t, n, v)
}

func TestEpochAdvance(t *testing.T) {
	c, _ := newTestController(t)

	a, err := Epoch.Advance(c)
	require.NoError(t, err)
	b, err := Epoch.Advance(c)
	require.NoError(t, err)
	assert.Equal(t, a+1, b)

	m, err := Epoch.Mib(c)
	require.NoError(t, err)
	d, err := m.Advance(c)
	require.NoError(t, err)
	assert.Equal(t, b+1, d)
}
