package testing

import (
	"errors"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	"github.com/ValentinKolb/mctl/lib/ctl/config"
	"github.com/ValentinKolb/mctl/lib/ctl/opt"
	"github.com/ValentinKolb/mctl/lib/ctl/prof"
	"github.com/ValentinKolb/mctl/lib/ctl/profiling"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	"github.com/ValentinKolb/mctl/lib/ctl/thread"
	"github.com/ValentinKolb/mctl/lib/engine"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// RunEngineTests runs the conformance suite for an engine implementation.
// Every test gets a fresh engine from factory.
func RunEngineTests(t *testing.T, name string, factory engine.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Version", func(t *testing.T) {
			testVersion(t, newController(t, factory))
		})

		t.Run("Epoch", func(t *testing.T) {
			testEpoch(t, newController(t, factory))
		})

		t.Run("KeyAndMibAgree", func(t *testing.T) {
			testKeyAndMibAgree(t, newController(t, factory))
		})

		t.Run("BoolRoundTrip", func(t *testing.T) {
			testBoolRoundTrip(t, newController(t, factory))
		})

		t.Run("IntRoundTrip", func(t *testing.T) {
			testIntRoundTrip(t, newController(t, factory))
		})

		t.Run("MaxBackgroundThreads", func(t *testing.T) {
			testMaxBackgroundThreads(t, newController(t, factory))
		})

		t.Run("UnknownName", func(t *testing.T) {
			testUnknownName(t, newController(t, factory))
		})

		t.Run("MibLength", func(t *testing.T) {
			testMibLength(t, newController(t, factory))
		})

		t.Run("BufferSize", func(t *testing.T) {
			testBufferSize(t, newController(t, factory))
		})

		t.Run("AccessMode", func(t *testing.T) {
			testAccessMode(t, newController(t, factory))
		})

		t.Run("Arenas", func(t *testing.T) {
			testArenas(t, newController(t, factory))
		})

		t.Run("ArenaCreate", func(t *testing.T) {
			testArenaCreate(t, newController(t, factory))
		})

		t.Run("SizeClasses", func(t *testing.T) {
			testSizeClasses(t, newController(t, factory))
		})

		t.Run("ThreadCounters", func(t *testing.T) {
			testThreadCounters(t, newController(t, factory))
		})

		t.Run("ThreadArena", func(t *testing.T) {
			testThreadArena(t, newController(t, factory))
		})

		t.Run("Stats", func(t *testing.T) {
			testStats(t, newController(t, factory))
		})

		t.Run("Profiling", func(t *testing.T) {
			testProfiling(t, newController(t, factory))
		})

		t.Run("Catalog", func(t *testing.T) {
			testCatalog(t, newController(t, factory))
		})

		t.Run("ConcurrentEpoch", func(t *testing.T) {
			testConcurrentEpoch(t, newController(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// newController creates an engine and closes it when the test ends
func newController(t testing.TB, factory engine.Factory) *ctl.Controller {
	e, err := factory()
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return ctl.New(e)
}

// Checks if the engine supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, c *ctl.Controller, feature engine.Feature) {
	if !c.Engine().SupportsFeature(feature) {
		t.Skip()
	}
}

// Fails the test if err does not match the expected error kind
func requireKind(t testing.TB, err error, kind *ctl.Error, what string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Errorf("%s: expected %s error, got %v", what, kind.Kind, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testVersion(t *testing.T, c *ctl.Controller) {
	v, err := ctl.Version.Read(c)
	if err != nil {
		t.Fatalf("Failed to read version: %v", err)
	}
	if v.String() == "" {
		t.Errorf("Expected a non-empty version string")
	}
	if info := c.Engine().GetInfo(); info.Version != v.String() {
		t.Errorf("Expected engine info version %q to match version control %q", info.Version, v)
	}
}

func testEpoch(t *testing.T, c *ctl.Controller) {
	first, err := ctl.Epoch.Advance(c)
	if err != nil {
		t.Fatalf("Failed to advance epoch: %v", err)
	}
	second, err := ctl.Epoch.Advance(c)
	if err != nil {
		t.Fatalf("Failed to advance epoch: %v", err)
	}
	if second != first+1 {
		t.Errorf("Expected consecutive advances to differ by 1, got %d and %d", first, second)
	}

	current, err := ctl.Epoch.Read(c)
	if err != nil {
		t.Fatalf("Failed to read epoch: %v", err)
	}
	if current != second {
		t.Errorf("Expected epoch %d, got %d", second, current)
	}

	// update(0) reads without refreshing
	same, err := ctl.Epoch.Update(c, 0)
	if err != nil {
		t.Fatalf("Failed to update epoch with 0: %v", err)
	}
	if same != second {
		t.Errorf("Expected update(0) to return %d, got %d", second, same)
	}

	mib, err := ctl.Epoch.Mib(c)
	if err != nil {
		t.Fatalf("Failed to resolve epoch: %v", err)
	}
	third, err := mib.Advance(c)
	if err != nil {
		t.Fatalf("Failed to advance epoch via MIB: %v", err)
	}
	if third != second+1 {
		t.Errorf("Expected MIB advance to return %d, got %d", second+1, third)
	}
}

func testKeyAndMibAgree(t *testing.T, c *ctl.Controller) {
	for _, p := range []ctl.ReadOnly[uint]{arenas.Page, arenas.Quantum, arenas.TcacheMax, opt.TcacheMax} {
		byKey, err := p.Read(c)
		if err != nil {
			t.Errorf("Failed to read %s by name: %v", p.Key(), err)
			continue
		}
		mib, err := p.Mib(c)
		if err != nil {
			t.Errorf("Failed to resolve %s: %v", p.Key(), err)
			continue
		}
		if mib.Raw().Len() != p.Key().Depth() {
			t.Errorf("Expected MIB of %s to have %d components, got %d", p.Key(), p.Key().Depth(), mib.Raw().Len())
		}
		byMib, err := mib.Read(c)
		if err != nil {
			t.Errorf("Failed to read %s by MIB: %v", p.Key(), err)
			continue
		}
		if byKey != byMib {
			t.Errorf("Expected %s to read the same by name and MIB, got %d and %d", p.Key(), byKey, byMib)
		}
	}

	stringsByKey, err := opt.Junk.Read(c)
	if err != nil {
		t.Fatalf("Failed to read opt.junk: %v", err)
	}
	mib, err := opt.Junk.Mib(c)
	if err != nil {
		t.Fatalf("Failed to resolve opt.junk: %v", err)
	}
	stringsByMib, err := mib.Read(c)
	if err != nil {
		t.Fatalf("Failed to read opt.junk by MIB: %v", err)
	}
	if stringsByKey.String() != stringsByMib.String() {
		t.Errorf("Expected opt.junk to read the same by name and MIB, got %q and %q", stringsByKey, stringsByMib)
	}
}

func testBoolRoundTrip(t *testing.T, c *ctl.Controller) {
	orig, err := thread.TcacheEnabled.Read(c)
	if err != nil {
		t.Fatalf("Failed to read thread.tcache.enabled: %v", err)
	}
	defer thread.TcacheEnabled.Write(c, orig)

	if err := thread.TcacheEnabled.Write(c, !orig); err != nil {
		t.Fatalf("Failed to write thread.tcache.enabled: %v", err)
	}
	if v, _ := thread.TcacheEnabled.Read(c); v != !orig {
		t.Errorf("Expected thread.tcache.enabled=%t after write, got %t", !orig, v)
	}
	old, err := thread.TcacheEnabled.Update(c, orig)
	if err != nil {
		t.Fatalf("Failed to update thread.tcache.enabled: %v", err)
	}
	if old != !orig {
		t.Errorf("Expected update to return the previous value %t, got %t", !orig, old)
	}
	if v, _ := thread.TcacheEnabled.Read(c); v != orig {
		t.Errorf("Expected thread.tcache.enabled=%t after update, got %t", orig, v)
	}

	requireFeature(t, c, engine.FeatureBackgroundThreads)
	bg, err := ctl.BackgroundThread.Read(c)
	if err != nil {
		t.Fatalf("Failed to read background_thread: %v", err)
	}
	old, err = ctl.BackgroundThread.Update(c, bg)
	if err != nil {
		t.Fatalf("Failed to update background_thread: %v", err)
	}
	if old != bg {
		t.Errorf("Expected background_thread update to return %t, got %t", bg, old)
	}
}

func testIntRoundTrip(t *testing.T, c *ctl.Controller) {
	orig, err := arenas.DirtyDecayMs.Read(c)
	if err != nil {
		t.Fatalf("Failed to read arenas.dirty_decay_ms: %v", err)
	}
	defer arenas.DirtyDecayMs.Write(c, orig)

	want := orig + 1000
	if err := arenas.DirtyDecayMs.Write(c, want); err != nil {
		t.Fatalf("Failed to write arenas.dirty_decay_ms: %v", err)
	}
	if v, _ := arenas.DirtyDecayMs.Read(c); v != want {
		t.Errorf("Expected arenas.dirty_decay_ms=%d, got %d", want, v)
	}

	// -1 disables decay and must survive the signed round trip
	old, err := arenas.DirtyDecayMs.Update(c, -1)
	if err != nil {
		t.Fatalf("Failed to update arenas.dirty_decay_ms: %v", err)
	}
	if old != want {
		t.Errorf("Expected update to return %d, got %d", want, old)
	}
	if v, _ := arenas.DirtyDecayMs.Read(c); v != -1 {
		t.Errorf("Expected arenas.dirty_decay_ms=-1, got %d", v)
	}

	mib, err := arenas.ArenaDirtyDecayMs.Mib(c)
	if err != nil {
		t.Fatalf("Failed to resolve arena.<i>.dirty_decay_ms: %v", err)
	}
	arenaOrig, err := mib.Read(c, 0)
	if err != nil {
		t.Fatalf("Failed to read arena.0.dirty_decay_ms: %v", err)
	}
	defer mib.Write(c, arenaOrig, 0)
	if err := mib.Write(c, arenaOrig+1, 0); err != nil {
		t.Fatalf("Failed to write arena.0.dirty_decay_ms: %v", err)
	}
	if v, _ := arenas.ArenaDirtyDecayMs.Read(c, 0); v != arenaOrig+1 {
		t.Errorf("Expected arena.0.dirty_decay_ms=%d by name after MIB write, got %d", arenaOrig+1, v)
	}
}

func testMaxBackgroundThreads(t *testing.T, c *ctl.Controller) {
	requireFeature(t, c, engine.FeatureBackgroundThreads)

	n, err := ctl.MaxBackgroundThreads.Read(c)
	if err != nil {
		t.Fatalf("Failed to read max_background_threads: %v", err)
	}
	if err := ctl.MaxBackgroundThreads.Write(c, n+1); err != nil {
		t.Fatalf("Failed to write max_background_threads: %v", err)
	}
	if v, _ := ctl.MaxBackgroundThreads.Read(c); v != n+1 {
		t.Errorf("Expected max_background_threads=%d, got %d", n+1, v)
	}
	old, err := ctl.MaxBackgroundThreads.Update(c, n)
	if err != nil {
		t.Fatalf("Failed to update max_background_threads: %v", err)
	}
	if old != n+1 {
		t.Errorf("Expected update to return %d, got %d", n+1, old)
	}
	if v, _ := ctl.MaxBackgroundThreads.Read(c); v != n {
		t.Errorf("Expected max_background_threads=%d after update, got %d", n, v)
	}
}

func testUnknownName(t *testing.T, c *ctl.Controller) {
	k := ctl.MustKey("no.such.control")

	_, err := ctl.Read[uint64](c, k)
	requireKind(t, err, ctl.ErrNotFound, "read of unknown name")

	_, err = k.Resolve(c)
	requireKind(t, err, ctl.ErrNotFound, "resolve of unknown name")

	_, err = ctl.Read[uint](c, ctl.MustKey("stats.arenas.999999.pactive"))
	requireKind(t, err, ctl.ErrNotFound, "read of arena index out of range")
}

func testMibLength(t *testing.T, c *ctl.Controller) {
	k := stats.Allocated.Key()

	_, err := ctl.ResolveLen(c, k, k.Depth()-1)
	requireKind(t, err, ctl.ErrNotFound, "resolve with a short MIB")

	_, err = ctl.ResolveLen(c, k, k.Depth()+1)
	requireKind(t, err, ctl.ErrInvalidArgument, "resolve with a long MIB")

	// the same request fails the same way every time
	_, again := ctl.ResolveLen(c, k, k.Depth()+1)
	requireKind(t, again, ctl.ErrInvalidArgument, "repeated resolve with a long MIB")

	m, err := ctl.ResolveLen(c, k, k.Depth())
	if err != nil {
		t.Fatalf("Failed to resolve %s: %v", k, err)
	}
	if m.Len() != k.Depth() {
		t.Errorf("Expected %d components, got %d", k.Depth(), m.Len())
	}
}

func testBufferSize(t *testing.T, c *ctl.Controller) {
	k := ctl.Epoch.Key()

	err := c.ReadInto(k, make([]byte, 4))
	requireKind(t, err, ctl.ErrInvalidArgument, "read into a short buffer")

	err = c.WriteFrom(ctl.MaxBackgroundThreads.Key(), make([]byte, 2))
	requireKind(t, err, ctl.ErrInvalidArgument, "write from a short buffer")

	if c.Engine().SupportsFeature(engine.FeatureBackgroundThreads) {
		err = ctl.MaxBackgroundThreads.Write(c, 0)
		requireKind(t, err, ctl.ErrInvalidArgument, "write of max_background_threads=0")
	}
}

func testAccessMode(t *testing.T, c *ctl.Controller) {
	err := ctl.Write[uint](c, arenas.Page.Key(), 1)
	requireKind(t, err, ctl.ErrPermissionDenied, "write to read-only control")

	mib, err := arenas.Page.Mib(c)
	if err != nil {
		t.Fatalf("Failed to resolve arenas.page: %v", err)
	}
	err = ctl.Write[uint](c, mib.Raw(), 1)
	requireKind(t, err, ctl.ErrPermissionDenied, "write to read-only control by MIB")

	if c.Engine().SupportsFeature(engine.FeatureProfiling) {
		_, err = ctl.Read[ctl.CStr](c, prof.Dump.Key())
		requireKind(t, err, ctl.ErrPermissionDenied, "read of write-only control")
	}
}

func testArenas(t *testing.T, c *ctl.Controller) {
	n, err := arenas.Count(c)
	if err != nil {
		t.Fatalf("Failed to read arenas.narenas: %v", err)
	}
	if n == 0 {
		t.Fatalf("Expected at least one arena")
	}
	if _, err := ctl.Epoch.Advance(c); err != nil {
		t.Fatalf("Failed to advance epoch: %v", err)
	}

	mib, err := stats.ArenaPactive.Mib(c)
	if err != nil {
		t.Fatalf("Failed to resolve stats.arenas.<i>.pactive: %v", err)
	}
	slot := stats.ArenaPactive.Template().Slots()[0]
	if !mib.Raw().Settable(slot) {
		t.Errorf("Expected component %d of the MIB to be settable", slot)
	}
	if mib.Raw().Settable(0) {
		t.Errorf("Expected component 0 of the MIB not to be settable")
	}

	merged, err := mib.Read(c, arenas.All)
	if err != nil {
		t.Fatalf("Failed to read merged pactive: %v", err)
	}
	byName, err := stats.ArenaPactive.Read(c, arenas.All)
	if err != nil {
		t.Fatalf("Failed to read merged pactive by name: %v", err)
	}
	if merged != byName {
		t.Errorf("Expected merged pactive to read the same by name and MIB, got %d and %d", byName, merged)
	}
	first, err := mib.Read(c, 0)
	if err == nil && first > merged {
		t.Errorf("Expected arena 0 pactive %d to be at most the merged %d", first, merged)
	}

	_, err = mib.Read(c, n+1)
	if n+1 != arenas.All {
		requireKind(t, err, ctl.ErrNotFound, "read of an arena past arenas.narenas")
	}
}

func testArenaCreate(t *testing.T, c *ctl.Controller) {
	requireFeature(t, c, engine.FeatureArenaCreate)

	before, err := arenas.NArenas.Read(c)
	if err != nil {
		t.Fatalf("Failed to read arenas.narenas: %v", err)
	}
	idx, err := arenas.Create.Read(c)
	if err != nil {
		t.Fatalf("Failed to create arena: %v", err)
	}
	if idx != before {
		t.Errorf("Expected new arena index %d, got %d", before, idx)
	}
	if after, _ := arenas.NArenas.Read(c); after != before+1 {
		t.Errorf("Expected %d arenas after create, got %d", before+1, after)
	}

	want, err := arenas.DirtyDecayMs.Read(c)
	if err != nil {
		t.Fatalf("Failed to read arenas.dirty_decay_ms: %v", err)
	}
	got, err := arenas.ArenaDirtyDecayMs.Read(c, uint(idx))
	if err != nil {
		t.Fatalf("Failed to read arena.%d.dirty_decay_ms: %v", idx, err)
	}
	if got != want {
		t.Errorf("Expected new arena to inherit dirty_decay_ms %d, got %d", want, got)
	}
}

func testSizeClasses(t *testing.T, c *ctl.Controller) {
	sizes, err := arenas.SizeClasses(c)
	if err != nil {
		t.Fatalf("Failed to read size classes: %v", err)
	}
	if len(sizes) == 0 {
		t.Fatalf("Expected at least one size class")
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] <= sizes[i-1] {
			t.Errorf("Expected size classes to increase, got %d after %d", sizes[i], sizes[i-1])
		}
	}
	q, err := arenas.Quantum.Read(c)
	if err != nil {
		t.Fatalf("Failed to read arenas.quantum: %v", err)
	}
	for _, s := range sizes {
		if s >= q && s%q != 0 {
			t.Errorf("Expected size class %d to be a multiple of the quantum %d", s, q)
		}
	}
	nregs, err := arenas.BinNRegs.Read(c, 0)
	if err != nil {
		t.Fatalf("Failed to read arenas.bin.0.nregs: %v", err)
	}
	if nregs == 0 {
		t.Errorf("Expected arenas.bin.0.nregs > 0")
	}
}

func testThreadCounters(t *testing.T, c *ctl.Controller) {
	requireFeature(t, c, engine.FeatureThreadCounters)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	p, err := thread.AllocatedP.Read(c)
	if err != nil {
		t.Fatalf("Failed to read thread.allocatedp: %v", err)
	}
	if p.IsNil() {
		t.Fatalf("Expected a non-nil thread.allocatedp")
	}
	before, err := thread.Allocated.Read(c)
	if err != nil {
		t.Fatalf("Failed to read thread.allocated: %v", err)
	}
	sink = make([]byte, 1<<20)
	after, err := thread.Allocated.Read(c)
	if err != nil {
		t.Fatalf("Failed to read thread.allocated: %v", err)
	}
	if after < before {
		t.Errorf("Expected thread.allocated to be monotonic, got %d after %d", after, before)
	}
	if got := p.Get(); got < before {
		t.Errorf("Expected thread.allocatedp to observe at least %d, got %d", before, got)
	}
	if _, err := thread.Deallocated.Read(c); err != nil {
		t.Errorf("Failed to read thread.deallocated: %v", err)
	}
}

// sink keeps test allocations alive
var sink []byte

func testThreadArena(t *testing.T, c *ctl.Controller) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := thread.Arena.Read(c)
	if err != nil {
		t.Fatalf("Failed to read thread.arena: %v", err)
	}
	defer thread.Arena.Write(c, orig)

	if err := thread.Arena.Write(c, 0); err != nil {
		t.Fatalf("Failed to write thread.arena: %v", err)
	}
	if v, _ := thread.Arena.Read(c); v != 0 {
		t.Errorf("Expected thread.arena=0, got %d", v)
	}

	n, err := arenas.NArenas.Read(c)
	if err != nil {
		t.Fatalf("Failed to read arenas.narenas: %v", err)
	}
	if err := thread.Arena.Write(c, n+100); err == nil {
		t.Errorf("Expected an error when binding to arena %d of %d", n+100, n)
	}
}

func testStats(t *testing.T, c *ctl.Controller) {
	requireFeature(t, c, engine.FeatureStats)

	enabled, err := config.Stats.Read(c)
	if err != nil {
		t.Fatalf("Failed to read config.stats: %v", err)
	}
	if !enabled {
		t.Skip()
	}

	r, err := stats.NewReader(c)
	if err != nil {
		t.Fatalf("Failed to create stats reader: %v", err)
	}
	s1, err := r.Snapshot(c)
	if err != nil {
		t.Fatalf("Failed to take snapshot: %v", err)
	}
	if s1.Allocated > s1.Active {
		t.Errorf("Expected allocated %d <= active %d", s1.Allocated, s1.Active)
	}
	if s1.Active > s1.Mapped {
		t.Errorf("Expected active %d <= mapped %d", s1.Active, s1.Mapped)
	}
	s2, err := r.Snapshot(c)
	if err != nil {
		t.Fatalf("Failed to take snapshot: %v", err)
	}
	if s2.Epoch != s1.Epoch+1 {
		t.Errorf("Expected snapshot epochs to be consecutive, got %d and %d", s1.Epoch, s2.Epoch)
	}
}

func testProfiling(t *testing.T, c *ctl.Controller) {
	requireFeature(t, c, engine.FeatureProfiling)

	built, err := config.Prof.Read(c)
	if err != nil {
		t.Fatalf("Failed to read config.prof: %v", err)
	}
	if !built {
		t.Errorf("Expected config.prof=true on an engine reporting profiling support")
	}
	enabled, err := profiling.Prof.Read(c)
	if err != nil {
		t.Fatalf("Failed to read opt.prof: %v", err)
	}

	path := filepath.Join(t.TempDir(), "mctl.heap")
	err = prof.DumpTo(c, path)
	if !enabled {
		requireKind(t, err, ctl.ErrOther, "prof.dump with opt.prof disabled")
		return
	}
	if err != nil {
		t.Fatalf("Failed to dump profile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected profile at %s: %v", path, err)
	}

	if err := prof.Prefix.Write(c, ctl.CString(filepath.Join(t.TempDir(), "mctl"))); err != nil {
		t.Errorf("Failed to write prof.prefix: %v", err)
	}
	if _, err := prof.Interval.Read(c); err != nil {
		t.Errorf("Failed to read prof.interval: %v", err)
	}
}

func testCatalog(t *testing.T, c *ctl.Controller) {
	e, idx, ok := ctl.Lookup("arenas.page")
	if !ok {
		t.Fatalf("Expected arenas.page in the catalog")
	}
	if len(idx) != 0 {
		t.Errorf("Expected no indices for arenas.page, got %v", idx)
	}
	if _, err := e.ReadValue(c); err != nil {
		t.Errorf("Failed to read arenas.page through the catalog: %v", err)
	}
	err := e.WriteValue(c, "1")
	requireKind(t, err, ctl.ErrUnsupportedOperation, "catalog write of a read-only point")

	e, idx, ok = ctl.Lookup("arenas.bin.0.size")
	if !ok {
		t.Fatalf("Expected arenas.bin.0.size to match a catalog template")
	}
	byCatalog, err := e.ReadValue(c, idx...)
	if err != nil {
		t.Fatalf("Failed to read arenas.bin.0.size through the catalog: %v", err)
	}
	direct, err := arenas.BinSize.Read(c, 0)
	if err != nil {
		t.Fatalf("Failed to read arenas.bin.0.size: %v", err)
	}
	if byCatalog != ctl.FormatValue(direct) {
		t.Errorf("Expected catalog value %s, got %s", ctl.FormatValue(direct), byCatalog)
	}
}

func testConcurrentEpoch(t *testing.T, c *ctl.Controller) {
	const (
		workers = 8
		rounds  = 50
	)
	start, err := ctl.Epoch.Read(c)
	if err != nil {
		t.Fatalf("Failed to read epoch: %v", err)
	}
	mib, err := ctl.Epoch.Mib(c)
	if err != nil {
		t.Fatalf("Failed to resolve epoch: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if _, err := mib.Advance(c); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent advance failed: %v", err)
	}

	end, err := ctl.Epoch.Read(c)
	if err != nil {
		t.Fatalf("Failed to read epoch: %v", err)
	}
	if end != start+workers*rounds {
		t.Errorf("Expected epoch %d after %d advances, got %d", start+workers*rounds, workers*rounds, end)
	}
}
