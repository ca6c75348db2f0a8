// Package opt declares the opt.* controls: the run-time options the allocator
// was started with. All of them are read-only.
package opt

import "github.com/ValentinKolb/mctl/lib/ctl"

var (
	Abort = ctl.NewReadOnly[bool]("opt.abort",
		"Abort-on-warning enabled/disabled.")

	BackgroundThread = ctl.NewReadOnly[bool]("opt.background_thread",
		"Whether background threads were enabled at startup.")

	MaxBackgroundThreads = ctl.NewReadOnly[uint]("opt.max_background_threads",
		"Maximum number of background threads at startup.")

	// DirtyDecayMs is the time in milliseconds after which unused dirty pages
	// are purged. -1 disables purging, 0 purges immediately.
	DirtyDecayMs = ctl.NewReadOnly[int]("opt.dirty_decay_ms",
		"Approximate time in ms from the creation of a set of unused dirty pages until an equivalent set is purged.")

	MuzzyDecayMs = ctl.NewReadOnly[int]("opt.muzzy_decay_ms",
		"Approximate time in ms from the creation of a set of unused muzzy pages until an equivalent set is purged.")

	// Junk is one of "true", "false", "alloc" or "free".
	Junk = ctl.NewReadOnly[ctl.CStr]("opt.junk",
		"Junk filling of allocated and/or deallocated memory.")

	NArenas = ctl.NewReadOnly[uint32]("opt.narenas",
		"Maximum number of arenas to use for automatic multiplexing of threads and arenas.")

	// PercpuArena is one of "disabled", "percpu" or "phycpu".
	PercpuArena = ctl.NewReadOnly[ctl.CStr]("opt.percpu_arena",
		"Per CPU arena mode.")

	Tcache = ctl.NewReadOnly[bool]("opt.tcache",
		"Thread-local allocation caching enabled/disabled.")

	TcacheMax = ctl.NewReadOnly[uint]("opt.tcache_max",
		"Maximum size class to cache in the thread-specific cache.")
)
