package sim

import (
	"fmt"
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim/internal"
	"os"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Control Tree
// --------------------------------------------------------------------------

// ok wraps a value that cannot fail.
func ok[T any](v T) (T, int) { return v, engine.StatusOK }

// buildTree declares every control of the simulated engine. Handlers run with
// mu held. The tree itself is never modified after construction; index
// ranges (arenas, bins) are checked against the live state.
func (s *simImpl) buildTree() *internal.Node {
	epoch := rw(u64Codec,
		func([]uint) (uint64, int) { return ok(s.epoch) },
		func(_ []uint, v uint64) int {
			if v != 0 {
				s.refresh()
			}
			return engine.StatusOK
		})
	epoch.WriteFirst = true

	root := []*internal.Node{
		internal.Ctl("version", ro(strCodec, func([]uint) (*byte, int) { return ok(s.strVersion) })),
		internal.Ctl("epoch", epoch),
		internal.Ctl("background_thread", rw(boolCodec,
			func([]uint) (bool, int) { return ok(s.backgroundThread) },
			s.setBackgroundThread)),
		internal.Ctl("max_background_threads", rw(sizeCodec,
			func([]uint) (uint, int) { return ok(s.maxBackgroundThreads) },
			s.setMaxBackgroundThreads)),
		s.configTree(),
		s.optTree(),
		s.threadTree(),
		s.arenasTree(),
		s.arenaTree(),
		s.statsTree(),
	}
	if s.opts.Profiling {
		root = append(root, s.profTree())
	}
	return internal.Named("", root...)
}

func (s *simImpl) configTree() *internal.Node {
	return internal.Named("config",
		internal.Ctl("malloc_conf", constant(strCodec, s.strMallocConf)),
		internal.Ctl("prof", constant(boolCodec, s.opts.Profiling)),
		internal.Ctl("stats", constant(boolCodec, true)),
		internal.Ctl("debug", constant(boolCodec, false)),
	)
}

func (s *simImpl) optTree() *internal.Node {
	o := s.opt
	nodes := []*internal.Node{
		internal.Ctl("abort", constant(boolCodec, o.abort)),
		internal.Ctl("background_thread", constant(boolCodec, o.backgroundThread)),
		internal.Ctl("max_background_threads", constant(sizeCodec, o.maxBackgroundThreads)),
		internal.Ctl("dirty_decay_ms", constant(ssizeCodec, o.dirtyDecayMs)),
		internal.Ctl("muzzy_decay_ms", constant(ssizeCodec, o.muzzyDecayMs)),
		internal.Ctl("junk", constant(strCodec, s.strJunk)),
		internal.Ctl("narenas", constant(u32Codec, o.narenas)),
		internal.Ctl("percpu_arena", constant(strCodec, s.strPercpu)),
		internal.Ctl("tcache", constant(boolCodec, o.tcache)),
		internal.Ctl("tcache_max", constant(sizeCodec, o.tcacheMax)),
	}
	if s.opts.Profiling {
		nodes = append(nodes,
			internal.Ctl("prof", constant(boolCodec, o.prof)),
			internal.Ctl("prof_active", constant(boolCodec, o.profActive)),
			internal.Ctl("prof_leak", constant(boolCodec, o.profLeak)),
			internal.Ctl("prof_final", constant(boolCodec, o.profFinal)),
			internal.Ctl("lg_prof_interval", constant(ssizeCodec, o.lgProfInterval)),
			internal.Ctl("lg_prof_sample", constant(sizeCodec, o.lgProfSample)),
			internal.Ctl("prof_prefix", constant(strCodec, s.strProfPrefix)),
		)
	}
	return internal.Named("opt", nodes...)
}

func (s *simImpl) profTree() *internal.Node {
	return internal.Named("prof",
		internal.Ctl("dump", wo(strCodec, s.dump)),
		internal.Ctl("prefix", wo(strCodec, s.setProfPrefix)),
		internal.Ctl("active", rw(boolCodec,
			func([]uint) (bool, int) { return ok(s.profActive) },
			s.setProfActive)),
		internal.Ctl("interval", ro(u64Codec, func([]uint) (uint64, int) {
			if !s.opt.prof || s.opt.lgProfInterval < 0 {
				return ok(uint64(0))
			}
			return ok(uint64(1) << uint(s.opt.lgProfInterval))
		})),
	)
}

func (s *simImpl) threadTree() *internal.Node {
	counter := func(i int) func([]uint) (uint64, int) {
		return func([]uint) (uint64, int) {
			s.storeCounters(s.source())
			return ok(atomic.LoadUint64(&s.counters[i]))
		}
	}
	pointer := func(i int) func([]uint) (*uint64, int) {
		return func([]uint) (*uint64, int) {
			s.storeCounters(s.source())
			return ok(&s.counters[i])
		}
	}
	return internal.Named("thread",
		internal.Ctl("allocated", ro(u64Codec, counter(0))),
		internal.Ctl("allocatedp", ro(ptrCodec, pointer(0))),
		internal.Ctl("deallocated", ro(u64Codec, counter(1))),
		internal.Ctl("deallocatedp", ro(ptrCodec, pointer(1))),
		internal.Ctl("arena", rw(u32Codec,
			func([]uint) (uint32, int) { return ok(s.threadArena) },
			s.setThreadArena)),
		internal.Named("tcache",
			internal.Ctl("enabled", rw(boolCodec,
				func([]uint) (bool, int) { return ok(s.tcacheEnabled) },
				func(_ []uint, v bool) int {
					s.tcacheEnabled = v
					return engine.StatusOK
				})),
		),
	)
}

func (s *simImpl) arenasTree() *internal.Node {
	binOK := func(i uint) bool { return i < uint(len(s.bins)) }
	return internal.Named("arenas",
		internal.Ctl("narenas", ro(u32Codec, func([]uint) (uint32, int) { return ok(s.narenas) })),
		internal.Ctl("page", constant(sizeCodec, s.page)),
		internal.Ctl("quantum", constant(sizeCodec, uint(quantum))),
		internal.Ctl("tcache_max", constant(sizeCodec, s.opt.tcacheMax)),
		internal.Ctl("nbins", constant(u32Codec, uint32(len(s.bins)))),
		internal.Ctl("create", ro(u32Codec, s.createArena)),
		internal.Ctl("dirty_decay_ms", rw(ssizeCodec,
			func([]uint) (int, int) { return ok(s.defaultDirty) },
			func(_ []uint, v int) int { return setDecay(&s.defaultDirty, v) })),
		internal.Ctl("muzzy_decay_ms", rw(ssizeCodec,
			func([]uint) (int, int) { return ok(s.defaultMuzzy) },
			func(_ []uint, v int) int { return setDecay(&s.defaultMuzzy, v) })),
		internal.Index("bin", binOK, internal.Named("",
			internal.Ctl("size", ro(sizeCodec, func(idx []uint) (uint, int) { return ok(s.bins[idx[0]].size) })),
			internal.Ctl("nregs", ro(u32Codec, func(idx []uint) (uint32, int) { return ok(s.bins[idx[0]].nregs) })),
		)),
	)
}

func (s *simImpl) arenaTree() *internal.Node {
	arenaOK := func(i uint) bool { return i < uint(s.narenas) }
	decay := func(field func(a *arena) *int) *internal.Leaf {
		return rw(ssizeCodec,
			func(idx []uint) (int, int) {
				a, _ := s.arenas.Load(uint32(idx[0]))
				return ok(*field(a))
			},
			func(idx []uint, v int) int {
				a, _ := s.arenas.Load(uint32(idx[0]))
				return setDecay(field(a), v)
			})
	}
	return internal.Index("arena", arenaOK, internal.Named("",
		internal.Ctl("dirty_decay_ms", decay(func(a *arena) *int { return &a.dirtyDecayMs })),
		internal.Ctl("muzzy_decay_ms", decay(func(a *arena) *int { return &a.muzzyDecayMs })),
	))
}

func (s *simImpl) statsTree() *internal.Node {
	global := func(field func(*Sample) uint) *internal.Leaf {
		return ro(sizeCodec, func([]uint) (uint, int) { return ok(field(&s.snap)) })
	}
	arenaOK := func(i uint) bool { return i < uint(s.narenas) || i == arenasAll }
	stats := func(i uint) arenaStats {
		if i == arenasAll {
			return s.mergedStats()
		}
		a, _ := s.arenas.Load(uint32(i))
		return a.stats
	}
	return internal.Named("stats",
		internal.Ctl("allocated", global(func(x *Sample) uint { return x.Allocated })),
		internal.Ctl("active", global(func(x *Sample) uint { return x.Active })),
		internal.Ctl("metadata", global(func(x *Sample) uint { return x.Metadata })),
		internal.Ctl("resident", global(func(x *Sample) uint { return x.Resident })),
		internal.Ctl("mapped", global(func(x *Sample) uint { return x.Mapped })),
		internal.Ctl("retained", global(func(x *Sample) uint { return x.Retained })),
		internal.Index("arenas", arenaOK, internal.Named("",
			internal.Ctl("nthreads", ro(u32Codec, func(idx []uint) (uint32, int) { return ok(stats(idx[0]).nthreads) })),
			internal.Ctl("pactive", ro(sizeCodec, func(idx []uint) (uint, int) { return ok(stats(idx[0]).pactive) })),
			internal.Ctl("pdirty", ro(sizeCodec, func(idx []uint) (uint, int) { return ok(stats(idx[0]).pdirty) })),
			internal.Ctl("dirty_decay_ms", ro(ssizeCodec, func(idx []uint) (int, int) { return ok(stats(idx[0]).dirtyDecayMs) })),
			internal.Ctl("muzzy_decay_ms", ro(ssizeCodec, func(idx []uint) (int, int) { return ok(stats(idx[0]).muzzyDecayMs) })),
		)),
	)
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (s *simImpl) setBackgroundThread(_ []uint, v bool) int {
	if v != s.backgroundThread {
		Logger.Debugf("background_thread: %t -> %t", s.backgroundThread, v)
	}
	s.backgroundThread = v
	return engine.StatusOK
}

func (s *simImpl) setMaxBackgroundThreads(_ []uint, v uint) int {
	if v == 0 || v > s.opt.maxBackgroundThreads {
		return engine.EINVAL
	}
	s.maxBackgroundThreads = v
	return engine.StatusOK
}

func (s *simImpl) setThreadArena(_ []uint, v uint32) int {
	if v >= s.narenas {
		return engine.EFAULT
	}
	s.threadArena = v
	return engine.StatusOK
}

func (s *simImpl) createArena([]uint) (uint32, int) {
	if s.narenas >= s.opts.MaxArenas {
		Logger.Warningf("arenas.create: limit of %d arenas reached", s.opts.MaxArenas)
		return 0, engine.EAGAIN
	}
	i := s.addArena()
	Logger.Debugf("created arena %d", i)
	return ok(i)
}

func setDecay(dst *int, v int) int {
	if v < -1 {
		return engine.EFAULT
	}
	*dst = v
	return engine.StatusOK
}

func (s *simImpl) setProfActive(_ []uint, v bool) int {
	if !s.opt.prof {
		return engine.EFAULT
	}
	s.profActive = v
	return engine.StatusOK
}

func (s *simImpl) setProfPrefix(_ []uint, p *byte) int {
	if !s.opt.prof {
		return engine.EFAULT
	}
	prefix, ok := goString(p)
	if !ok {
		return engine.EINVAL
	}
	s.profPrefix = prefix
	return engine.StatusOK
}

// dump writes a heap profile. A NULL or empty path uses a name derived from
// the current prefix: <prefix>.<pid>.<seq>.m<seq>.heap.
func (s *simImpl) dump(_ []uint, p *byte) int {
	if !s.opt.prof {
		return engine.EFAULT
	}
	path, _ := goString(p)
	seq := s.dumpSeq
	s.dumpSeq++
	if path == "" {
		path = fmt.Sprintf("%s.%d.%d.m%d.heap", s.profPrefix, os.Getpid(), seq, seq)
	}

	sample := s.source()
	header := fmt.Sprintf("heap_v2/%d\n  t*: %d: %d [0: 0]\n\nMAPPED_LIBRARIES:\n",
		uint64(1)<<s.opt.lgProfSample, sample.Allocated/quantum, sample.Allocated)
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		Logger.Warningf("prof.dump to %s failed: %v", path, err)
		return engine.EFAULT
	}
	s.dumps = append(s.dumps, path)
	Logger.Infof("heap profile written to %s", path)
	return engine.StatusOK
}
