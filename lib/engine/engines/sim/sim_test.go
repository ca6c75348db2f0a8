package sim

import (
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	_ "github.com/ValentinKolb/mctl/lib/ctl/config"
	"github.com/ValentinKolb/mctl/lib/ctl/opt"
	"github.com/ValentinKolb/mctl/lib/ctl/prof"
	"github.com/ValentinKolb/mctl/lib/ctl/profiling"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	_ "github.com/ValentinKolb/mctl/lib/ctl/thread"
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func fixedSource() Sample {
	return Sample{
		Allocated:        1 << 20,
		Active:           2 << 20,
		Metadata:         64 << 10,
		Resident:         3 << 20,
		Mapped:           4 << 20,
		Retained:         1 << 20,
		Dirty:            512 << 10,
		TotalAllocated:   10 << 20,
		TotalDeallocated: 9 << 20,
	}
}

func newFixed(t *testing.T, mutate func(o *Options)) (*ctl.Controller, *simImpl) {
	opts := DefaultOptions()
	opts.NumArenas = 4
	opts.StatsSource = fixedSource
	if mutate != nil {
		mutate(opts)
	}
	e := New(opts)
	t.Cleanup(func() { _ = e.Close() })
	return ctl.New(e), e.(*simImpl)
}

func TestStatsFromSource(t *testing.T) {
	c, _ := newFixed(t, nil)

	r, err := stats.NewReader(c)
	require.NoError(t, err)
	s, err := r.Snapshot(c)
	require.NoError(t, err)

	want := fixedSource()
	assert.Equal(t, want.Allocated, s.Allocated)
	assert.Equal(t, want.Active, s.Active)
	assert.Equal(t, want.Metadata, s.Metadata)
	assert.Equal(t, want.Resident, s.Resident)
	assert.Equal(t, want.Mapped, s.Mapped)
	assert.Equal(t, want.Retained, s.Retained)
}

func TestEpochStartsAtOne(t *testing.T) {
	c, _ := newFixed(t, nil)

	v, err := ctl.Epoch.Read(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestStatsCachedUntilRefresh(t *testing.T) {
	calls := 0
	c, _ := newFixed(t, func(o *Options) {
		o.StatsSource = func() Sample {
			calls++
			return Sample{Allocated: uint(calls) * 4096, Active: uint(calls) * 8192, Mapped: uint(calls) * 8192}
		}
	})

	first, err := stats.Allocated.Read(c)
	require.NoError(t, err)
	again, err := stats.Allocated.Read(c)
	require.NoError(t, err)
	assert.Equal(t, first, again, "statistics must not change without an epoch refresh")

	_, err = ctl.Epoch.Advance(c)
	require.NoError(t, err)
	refreshed, err := stats.Allocated.Read(c)
	require.NoError(t, err)
	assert.Greater(t, refreshed, first)
}

func TestArenaStatsDistribution(t *testing.T) {
	c, s := newFixed(t, nil)
	page := s.page

	mib, err := stats.ArenaPactive.Mib(c)
	require.NoError(t, err)

	var sum uint
	for i := uint(0); i < 4; i++ {
		v, err := mib.Read(c, i)
		require.NoError(t, err)
		sum += v
	}
	merged, err := mib.Read(c, arenas.All)
	require.NoError(t, err)
	assert.Equal(t, sum, merged)
	assert.Equal(t, fixedSource().Active/page, merged)

	threads, err := stats.ArenaNThreads.Read(c, arenas.All)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), threads)
}

func TestArenaCreateLimit(t *testing.T) {
	c, _ := newFixed(t, func(o *Options) { o.MaxArenas = 5 })

	idx, err := arenas.Create.Read(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), idx)

	_, err = arenas.Create.Read(c)
	require.ErrorIs(t, err, ctl.ErrResourceExhausted)

	n, err := arenas.NArenas.Read(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)
}

func TestDecayValidation(t *testing.T) {
	c, _ := newFixed(t, nil)

	err := arenas.ArenaMuzzyDecayMs.Write(c, -2, 0)
	require.ErrorIs(t, err, ctl.ErrOther)
	var cerr *ctl.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, engine.EFAULT, cerr.Code)

	require.NoError(t, arenas.ArenaMuzzyDecayMs.Write(c, -1, 0))
	v, err := arenas.ArenaMuzzyDecayMs.Read(c, 0)
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	// arena.<i> has no merged form
	_, err = arenas.ArenaMuzzyDecayMs.Read(c, arenas.All)
	require.ErrorIs(t, err, ctl.ErrNotFound)
}

func TestMallocConf(t *testing.T) {
	c, _ := newFixed(t, func(o *Options) {
		o.Profiling = true
		o.MallocConf = "narenas:2,dirty_decay_ms:5000,junk:alloc,lg_prof_sample:21,bogus:1,narenas:0"
	})

	n, err := opt.NArenas.Read(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n, "invalid narenas:0 must not override narenas:2")

	narenas, err := arenas.NArenas.Read(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), narenas)

	decay, err := opt.DirtyDecayMs.Read(c)
	require.NoError(t, err)
	assert.Equal(t, 5000, decay)

	junk, err := opt.Junk.Read(c)
	require.NoError(t, err)
	assert.Equal(t, "alloc", junk.String())

	sample, err := profiling.LgProfSample.Read(c)
	require.NoError(t, err)
	assert.Equal(t, uint(21), sample)
}

func TestParseConfErrors(t *testing.T) {
	set := defaultSettings(DefaultOptions())
	errs := parseConf("prof:true,novalue,max_background_threads:0,abort:true", &set, false)
	assert.Len(t, errs, 3)
	assert.False(t, set.prof)
	assert.True(t, set.abort)
}

func TestProfilingAbsentWithoutSupport(t *testing.T) {
	c, _ := newFixed(t, nil)

	_, err := profiling.Prof.Read(c)
	require.ErrorIs(t, err, ctl.ErrNotFound)
	err = prof.DumpTo(c, filepath.Join(t.TempDir(), "x.heap"))
	require.ErrorIs(t, err, ctl.ErrNotFound)
}

func TestProfDump(t *testing.T) {
	dir := t.TempDir()
	c, s := newFixed(t, func(o *Options) { o.Profiling = true })

	path := filepath.Join(dir, "explicit.heap")
	require.NoError(t, prof.DumpTo(c, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "heap_v2/")

	require.NoError(t, prof.Prefix.Write(c, ctl.CString(filepath.Join(dir, "pfx"))))
	require.NoError(t, prof.DumpDefault(c))

	dumps := s.Dumps()
	require.Len(t, dumps, 2)
	assert.Equal(t, path, dumps[0])
	assert.Equal(t, dir, filepath.Dir(dumps[1]))
	assert.Regexp(t, `^pfx\.\d+\.1\.m1\.heap$`, filepath.Base(dumps[1]))

	err = prof.DumpTo(c, filepath.Join(dir, "missing", "dir", "x.heap"))
	require.ErrorIs(t, err, ctl.ErrOther)
}

func TestProfActive(t *testing.T) {
	c, _ := newFixed(t, func(o *Options) { o.Profiling = true })

	old, err := prof.Active.Update(c, false)
	require.NoError(t, err)
	assert.True(t, old)
	v, err := prof.Active.Read(c)
	require.NoError(t, err)
	assert.False(t, v)

	c, _ = newFixed(t, func(o *Options) {
		o.Profiling = true
		o.MallocConf = "prof:false"
	})
	err = prof.Active.Write(c, true)
	require.ErrorIs(t, err, ctl.ErrOther)
}

func TestThreadLocalCounters(t *testing.T) {
	c, _ := newFixed(t, nil)

	p, err := ctl.Read[ctl.ThreadLocal](c, ctl.MustKey("thread.deallocatedp"))
	require.NoError(t, err)
	assert.Equal(t, fixedSource().TotalDeallocated, p.Get())
}

func TestInteriorNameResolves(t *testing.T) {
	_, s := newFixed(t, nil)

	mib := make([]uint, 4)
	n, st := s.MallctlNameToMib([]byte("arenas.bin\x00"), mib)
	require.Equal(t, engine.StatusOK, st)
	assert.Equal(t, 2, n)

	// complete the prefix by hand: arenas.bin.3.size
	mib[2] = 3
	mib[3] = 0
	buf := make([]byte, sizeCodec.size)
	require.Equal(t, engine.StatusOK, s.MallctlByMib(mib, buf, nil))
	assert.Equal(t, s.bins[3].size, sizeCodec.get(buf))

	// the interior node itself is not a control
	assert.Equal(t, engine.ENOENT, s.Mallctl([]byte("arenas.bin\x00"), buf, nil))
	assert.Equal(t, engine.EINVAL, s.Mallctl([]byte("epoch"), make([]byte, 8), nil))
}

func TestSmallBins(t *testing.T) {
	bins := smallBins(4096)
	require.Len(t, bins, 36)
	assert.Equal(t, bin{size: 8, nregs: 512}, bins[0])
	assert.Equal(t, bin{size: 160, nregs: 128}, bins[9])
	assert.Equal(t, uint(smallMaxClass), bins[len(bins)-1].size)
}

func TestGetInfo(t *testing.T) {
	_, s := newFixed(t, func(o *Options) { o.Profiling = true })

	info := s.GetInfo()
	assert.Equal(t, engine.ImplSim, info.Impl)
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, info.SupportedFeatures, engine.FeatureProfiling)

	controls := 0
	internal.Walk(s.tree, func(string, *internal.Leaf) { controls++ })
	assert.Equal(t, controls, info.Metadata.(map[string]interface{})["controls"])
}

func TestEveryCatalogPointExists(t *testing.T) {
	_, s := newFixed(t, func(o *Options) { o.Profiling = true })

	names := map[string]bool{}
	internal.Walk(s.tree, func(name string, _ *internal.Leaf) { names[name] = true })
	for _, d := range ctl.Catalog() {
		assert.True(t, names[d.Path], "catalog point %s has no simulated control", d.Path)
	}
}

func TestEveryControlIsDeclared(t *testing.T) {
	_, s := newFixed(t, func(o *Options) { o.Profiling = true })

	declared := map[string]bool{}
	for _, d := range ctl.Catalog() {
		declared[d.Path] = true
	}
	internal.Walk(s.tree, func(name string, _ *internal.Leaf) {
		assert.True(t, declared[name], "simulated control %s is not in the catalog", name)
	})
}

func TestMuzzyDecayDefaults(t *testing.T) {
	c, _ := newFixed(t, func(o *Options) { o.MallocConf = "muzzy_decay_ms:3000" })

	v, err := arenas.MuzzyDecayMs.Read(c)
	require.NoError(t, err)
	assert.Equal(t, 3000, v)

	old, err := arenas.MuzzyDecayMs.Update(c, 0)
	require.NoError(t, err)
	assert.Equal(t, 3000, old)

	perArena, err := stats.ArenaMuzzyDecayMs.Read(c, 0)
	require.NoError(t, err)
	assert.Equal(t, 3000, perArena)
}
