package sim

import (
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim/internal"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
)

var Logger = logger.GetLogger("sim")

// Version is reported by the version control.
const Version = "5.3.0-0-gsim"

// arenasAll is the arena index that addresses the merged statistics of all
// arenas.
const arenasAll = 4096

// --------------------------------------------------------------------------
// Core Engine Structure
// --------------------------------------------------------------------------

// arena holds the tunables of one arena and its statistics as of the last
// epoch refresh.
type arena struct {
	dirtyDecayMs int
	muzzyDecayMs int
	stats        arenaStats
}

type arenaStats struct {
	nthreads     uint32
	pactive      uint
	pdirty       uint
	dirtyDecayMs int
	muzzyDecayMs int
}

// simImpl is an in-memory engine with jemalloc's control namespace. All state
// is guarded by mu, so each call is indivisible.
type simImpl struct {
	mu       sync.Mutex
	tree     *internal.Node
	source   StatsSource
	opts     Options
	opt      settings
	features engine.Feature
	page     uint
	bins     []bin

	// statistics snapshot
	epoch uint64
	snap  Sample

	// arenas
	arenas       *xsync.MapOf[uint32, *arena]
	narenas      uint32
	defaultDirty int
	defaultMuzzy int

	// background threads
	backgroundThread     bool
	maxBackgroundThreads uint

	// profiling
	profActive bool
	profPrefix string
	dumpSeq    uint64
	dumps      []string

	// the calling thread; the simulation has exactly one
	threadArena   uint32
	tcacheEnabled bool
	counters      *[2]uint64 // allocated, deallocated

	// engine-owned strings
	strVersion    *byte
	strMallocConf *byte
	strJunk       *byte
	strPercpu     *byte
	strProfPrefix *byte
}

// New creates a simulated engine with the specified options (optional).
// Invalid MallocConf pairs are logged and ignored, like jemalloc does.
func New(opts *Options) engine.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.NumArenas == 0 {
		o.NumArenas = DefaultOptions().NumArenas
	}
	if o.MaxArenas == 0 || o.MaxArenas > maxArenaLimit {
		o.MaxArenas = maxArenaLimit
	}
	if o.StatsSource == nil {
		o.StatsSource = RuntimeStats
	}

	set := defaultSettings(&o)
	for _, err := range parseConf(o.MallocConf, &set, o.Profiling) {
		Logger.Warningf("malloc_conf: %v", err)
	}
	if set.narenas > o.MaxArenas {
		set.narenas = o.MaxArenas
	}

	s := &simImpl{
		source:               o.StatsSource,
		opts:                 o,
		opt:                  set,
		features:             engine.FeatureStats | engine.FeatureBackgroundThreads | engine.FeatureArenaCreate | engine.FeatureThreadCounters,
		page:                 uint(os.Getpagesize()),
		arenas:               xsync.NewMapOf[uint32, *arena](),
		defaultDirty:         set.dirtyDecayMs,
		defaultMuzzy:         set.muzzyDecayMs,
		backgroundThread:     set.backgroundThread,
		maxBackgroundThreads: uint(runtime.NumCPU()),
		profActive:           set.prof && set.profActive,
		profPrefix:           set.profPrefix,
		tcacheEnabled:        set.tcache,
		counters:             new([2]uint64),
		strVersion:           cString(Version),
		strMallocConf:        cString(o.MallocConf),
		strJunk:              cString(set.junk),
		strPercpu:            cString(set.percpuArena),
		strProfPrefix:        cString(set.profPrefix),
	}
	if o.Profiling {
		s.features |= engine.FeatureProfiling
	}
	if s.maxBackgroundThreads > set.maxBackgroundThreads {
		s.maxBackgroundThreads = set.maxBackgroundThreads
	}
	s.bins = smallBins(s.page)
	for i := uint32(0); i < set.narenas; i++ {
		s.addArena()
	}
	s.tree = s.buildTree()
	s.refresh()

	Logger.Infof("simulated engine ready: %d arenas, profiling=%t, background_thread=%t",
		s.narenas, set.prof, s.backgroundThread)
	return s
}

// addArena appends an arena initialized from the current defaults.
// Must be called with mu held (or during construction).
func (s *simImpl) addArena() uint32 {
	i := s.narenas
	s.arenas.Store(i, &arena{dirtyDecayMs: s.defaultDirty, muzzyDecayMs: s.defaultMuzzy})
	s.narenas++
	return i
}

// refresh takes a new statistics snapshot and advances the epoch.
// Must be called with mu held (or during construction).
func (s *simImpl) refresh() {
	s.snap = s.source()
	s.epoch++
	s.storeCounters(s.snap)

	n := uint(s.narenas)
	active, dirty := s.snap.Active/s.page, s.snap.Dirty/s.page
	s.arenas.Range(func(i uint32, a *arena) bool {
		a.stats = arenaStats{
			pactive:      active / n,
			pdirty:       dirty / n,
			dirtyDecayMs: a.dirtyDecayMs,
			muzzyDecayMs: a.muzzyDecayMs,
		}
		if i == 0 {
			a.stats.pactive += active % n
			a.stats.pdirty += dirty % n
		}
		if i == s.threadArena {
			a.stats.nthreads = 1
		}
		return true
	})
	Logger.Debugf("epoch %d: allocated=%d active=%d resident=%d", s.epoch, s.snap.Allocated, s.snap.Active, s.snap.Resident)
}

func (s *simImpl) storeCounters(sample Sample) {
	atomic.StoreUint64(&s.counters[0], sample.TotalAllocated)
	atomic.StoreUint64(&s.counters[1], sample.TotalDeallocated)
}

// mergedStats sums the statistics of every arena, for stats.arenas.4096.
func (s *simImpl) mergedStats() arenaStats {
	m := arenaStats{dirtyDecayMs: s.defaultDirty, muzzyDecayMs: s.defaultMuzzy}
	s.arenas.Range(func(_ uint32, a *arena) bool {
		m.nthreads += a.stats.nthreads
		m.pactive += a.stats.pactive
		m.pdirty += a.stats.pdirty
		return true
	})
	return m
}

// --------------------------------------------------------------------------
// Engine Interface Methods
// --------------------------------------------------------------------------

// Mallctl looks up name and performs the operation on its control.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *simImpl) Mallctl(name []byte, oldp, newp []byte) int {
	segs, ok := internal.SplitName(name)
	if !ok {
		return engine.EINVAL
	}
	var mib [engine.MaxDepth]uint
	s.mu.Lock()
	defer s.mu.Unlock()
	_, node, idx, st := internal.NameToMib(s.tree, segs, mib[:])
	if st != engine.StatusOK {
		return st
	}
	if node.Leaf == nil {
		return engine.ENOENT
	}
	return internal.Call(node.Leaf, idx, oldp, newp)
}

// MallctlNameToMib translates name into MIB components. Interior names such
// as "arenas.bin" resolve to a prefix MIB.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *simImpl) MallctlNameToMib(name []byte, mib []uint) (int, int) {
	segs, ok := internal.SplitName(name)
	if !ok {
		return 0, engine.EINVAL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, _, st := internal.NameToMib(s.tree, segs, mib)
	return n, st
}

// MallctlByMib performs the operation on the control addressed by mib.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *simImpl) MallctlByMib(mib []uint, oldp, newp []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	leaf, idx, st := internal.ByMib(s.tree, mib)
	if st != engine.StatusOK {
		return st
	}
	return internal.Call(leaf, idx, oldp, newp)
}

// SupportsFeature checks if the engine supports the specified feature(s).
func (s *simImpl) SupportsFeature(feature engine.Feature) bool {
	return s.features&feature == feature
}

// GetInfo returns information about the engine.
func (s *simImpl) GetInfo() engine.Info {
	var supported []engine.Feature
	for _, f := range engine.AllFeatures {
		if s.SupportsFeature(f) {
			supported = append(supported, f)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	controls := 0
	internal.Walk(s.tree, func(string, *internal.Leaf) { controls++ })
	return engine.Info{
		Impl:              engine.ImplSim,
		Version:           Version,
		SupportedFeatures: supported,
		Metadata: map[string]interface{}{
			"controls":    controls,
			"narenas":     s.narenas,
			"epoch":       s.epoch,
			"malloc_conf": s.opts.MallocConf,
			"dumps":       len(s.dumps),
		},
	}
}

// Close releases the engine. The simulated engine holds no external
// resources.
func (s *simImpl) Close() error {
	Logger.Debugf("simulated engine closed")
	return nil
}

// Dumps returns the paths of all profiles written through prof.dump.
func (s *simImpl) Dumps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dumps...)
}
