package sim

import (
	"os"
	"runtime"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the simulated engine during initialization
type Options struct {
	NumArenas         uint32      // Number of automatic arenas (0 = 4 * NumCPU)
	MaxArenas         uint32      // Upper bound for arenas.create (0 = 4095)
	Profiling         bool        // Build with heap profiling support and enable opt.prof
	BackgroundThreads bool        // Start with background threads enabled
	MallocConf        string      // Configuration string, same syntax as MALLOC_CONF
	StatsSource       StatsSource // Source of statistics snapshots (nil = RuntimeStats)
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return &Options{
		NumArenas:   uint32(4 * runtime.NumCPU()),
		MaxArenas:   maxArenaLimit,
		StatsSource: RuntimeStats,
	}
}

// --------------------------------------------------------------------------
// Statistics Source
// --------------------------------------------------------------------------

// Sample is one reading of allocator statistics in bytes.
type Sample struct {
	Allocated uint
	Active    uint
	Metadata  uint
	Resident  uint
	Mapped    uint
	Retained  uint
	Dirty     uint // unused pages that have not been returned to the OS

	TotalAllocated   uint64 // cumulative bytes allocated
	TotalDeallocated uint64 // cumulative bytes freed
}

// StatsSource produces statistics samples. It is called on every epoch
// refresh and when the per-thread counters are read.
type StatsSource func() Sample

// RuntimeStats samples the Go runtime's heap, so the simulated numbers move
// with the memory use of the hosting process.
func RuntimeStats() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	page := uint64(os.Getpagesize())
	roundUp := func(v uint64) uint { return uint((v + page - 1) / page * page) }

	metadata := ms.MSpanInuse + ms.MCacheInuse + ms.GCSys + ms.BuckHashSys
	active := roundUp(ms.HeapInuse)
	s := Sample{
		Allocated:        uint(ms.HeapAlloc),
		Active:           active,
		Metadata:         uint(metadata),
		Resident:         active + roundUp(ms.StackInuse+metadata),
		Mapped:           roundUp(ms.HeapSys - ms.HeapReleased + ms.StackSys),
		Retained:         uint(ms.HeapReleased),
		Dirty:            uint(ms.HeapIdle - ms.HeapReleased),
		TotalAllocated:   ms.TotalAlloc,
		TotalDeallocated: ms.TotalAlloc - ms.HeapAlloc,
	}
	if s.Mapped < s.Active {
		s.Mapped = s.Active
	}
	return s
}
