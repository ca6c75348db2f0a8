// Package sim implements an in-memory engine.Engine that behaves like
// jemalloc's mallctl namespace without linking the native allocator. It is
// the default engine of the mctl tool and the reference engine of the
// conformance suite.
//
// The package focuses on:
//   - The control names, value sizes and error codes of jemalloc 5
//   - Name to MIB translation with the same component numbering rules
//   - Statistics that only change when the epoch is advanced
//   - Heap profiling controls that write real (minimal) profile files
//
// Key Components:
//
//   - simImpl: the engine. It owns an immutable control tree built at
//     construction, the arena table and the current statistics snapshot.
//     One mutex makes every Mallctl/MallctlByMib call indivisible, so an
//     update is atomic in the same sense as with jemalloc.
//
//   - Control tree (internal): named nodes, indexed nodes and leaves.
//     A MIB component is the position of a child among its siblings, or the
//     index itself for indexed nodes such as arenas.bin.<i> and arena.<i>.
//     Leaves carry a codec for their value size and read/write functions.
//
//   - Options: NumArenas, MaxArenas, Profiling, BackgroundThreads,
//     MallocConf (MALLOC_CONF syntax, e.g. "narenas:2,dirty_decay_ms:5000")
//     and StatsSource. Invalid malloc_conf entries are logged and skipped,
//     as jemalloc does.
//
//   - StatsSource: produces a Sample on every epoch refresh. The default,
//     RuntimeStats, derives the values from runtime.ReadMemStats. Tests plug
//     in fixed samples.
//
// Error Semantics:
//
//   - ENOENT: unknown name, out of range index or a MIB that stops at an
//     interior node
//   - EPERM: writing a read-only control or reading a write-only one
//   - EINVAL: a buffer whose size differs from the value size, or a value
//     the control rejects
//   - EAGAIN: arenas.create beyond MaxArenas
//   - EFAULT: profiling operations while opt.prof is off or a dump that
//     could not be written
//   - EFAULT: decay times below -1 and thread.arena beyond narenas
//
// Arenas:
//
// Arenas 0..narenas-1 are created at start. arenas.create appends one and
// returns its index. In stats.arenas.<i>.* the index 4096 addresses the sum
// over all arenas. All callers are treated as one thread: thread.arena and
// thread.tcache.enabled are process wide, and thread.allocated reports the
// process totals of the last snapshot.
//
// Usage:
//
//	opts := sim.DefaultOptions()
//	opts.NumArenas = 2
//	opts.MallocConf = "dirty_decay_ms:5000"
//	c := ctl.New(sim.New(opts))
//
//	n, err := ctl.Epoch.Advance(c)
package sim
