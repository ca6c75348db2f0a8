package ctl

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sort"
	"testing"
)

func TestOpsString(t *testing.T) {
	assert.Equal(t, "r--", OpRead.String())
	assert.Equal(t, "-w-", OpWrite.String())
	assert.Equal(t, "rwu", (OpRead | OpWrite | OpUpdate).String())
	assert.True(t, (OpRead | OpWrite).Has(OpRead))
	assert.False(t, OpRead.Has(OpRead|OpWrite))
}

func TestCatalogSorted(t *testing.T) {
	cat := Catalog()
	require.NotEmpty(t, cat)
	assert.True(t, sort.SliceIsSorted(cat, func(i, j int) bool { return cat[i].Path < cat[j].Path }))

	var epoch *Descriptor
	for i := range cat {
		if cat[i].Path == "epoch" {
			epoch = &cat[i]
		}
	}
	require.NotNil(t, epoch)
	assert.Equal(t, TypeUint64, epoch.Type)
	assert.Equal(t, OpRead|OpWrite|OpUpdate, epoch.Ops)
	assert.Equal(t, 1, epoch.Depth)
	assert.False(t, epoch.Indexed())
}

func TestDuplicateDeclarationPanics(t *testing.T) {
	assert.Panics(t, func() { NewReadOnly[CStr]("version", "again") })
}

func TestLookup(t *testing.T) {
	e, idx, ok := Lookup("max_background_threads")
	require.True(t, ok)
	assert.Nil(t, idx)
	assert.Equal(t, "max_background_threads", e.Descriptor().Path)

	_, _, ok = Lookup("no.such.control")
	assert.False(t, ok)
	_, _, ok = Lookup("no.such.7")
	assert.False(t, ok)
}

// Indexed points live in subpackages that import ctl; these stand in for them.
var (
	testBinSize    = NewIndexedReadOnly[uint]("arenas.bin.<i>.size", "Size of bin i.")
	testArenaDecay = NewIndexedReadWrite[int]("arena.<i>.dirty_decay_ms", "Dirty decay of arena i.")
)

func TestLookupTemplate(t *testing.T) {
	e, idx, ok := Lookup("arenas.bin.12.size")
	require.True(t, ok)
	assert.Equal(t, []uint{12}, idx)
	assert.Equal(t, "arenas.bin.<i>.size", e.Descriptor().Path)
	assert.Equal(t, []int{2}, e.Descriptor().Slots)
	assert.True(t, e.Descriptor().Indexed())
}

func TestIndexedPoints(t *testing.T) {
	c, _ := newTestController(t)

	byKey, err := testBinSize.Read(c, 3)
	require.NoError(t, err)
	m, err := testBinSize.Mib(c)
	require.NoError(t, err)
	byMib, err := m.Read(c, 3)
	require.NoError(t, err)
	assert.Equal(t, byKey, byMib)

	_, err = testBinSize.Read(c)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = m.Read(c)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	dm, err := testArenaDecay.Mib(c)
	require.NoError(t, err)
	require.NoError(t, dm.Write(c, 250, 1))
	old, err := dm.Update(c, 500, 1)
	require.NoError(t, err)
	assert.Equal(t, 250, old)
	v, err := testArenaDecay.Read(c, 1)
	require.NoError(t, err)
	assert.Equal(t, 500, v)
}

func TestUnsupportedOperationIsLocal(t *testing.T) {
	c, counter := newTestController(t)

	e, _, ok := Lookup("version")
	require.True(t, ok)

	err := e.WriteValue(c, "x")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	_, err = e.UpdateValue(c, "x")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	assert.Equal(t, int64(0), counter.calls.Load())

	v, err := e.ReadValue(c)
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestEntryTextValues(t *testing.T) {
	c, _ := newTestController(t)

	e, _, ok := Lookup("max_background_threads")
	require.True(t, ok)

	orig, err := e.ReadValue(c)
	require.NoError(t, err)
	require.NoError(t, e.WriteValue(c, "2"))

	old, err := e.UpdateValue(c, orig)
	require.NoError(t, err)
	assert.Equal(t, "2", old)

	err = e.WriteValue(c, "two")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEntryIndices(t *testing.T) {
	c, _ := newTestController(t)

	e, idx, ok := Lookup("arena.1.dirty_decay_ms")
	require.True(t, ok)
	require.Equal(t, []uint{1}, idx)

	require.NoError(t, e.WriteValue(c, "-1", idx...))
	v, err := e.ReadValue(c, idx...)
	require.NoError(t, err)
	assert.Equal(t, "-1", v)

	_, err = e.ReadValue(c)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
