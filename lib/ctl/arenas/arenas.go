// Package arenas declares the arenas.* and arena.<i>.* controls.
package arenas

import "github.com/ValentinKolb/mctl/lib/ctl"

// All is the arena index addressing every arena at once, for example in
// arena.<i>.* controls or the merged stats.arenas.<i>.* statistics.
const All uint = 4096

var (
	NArenas = ctl.NewReadOnly[uint32]("arenas.narenas",
		"Current limit on number of arenas.")

	Page = ctl.NewReadOnly[uint]("arenas.page",
		"Page size.")

	Quantum = ctl.NewReadOnly[uint]("arenas.quantum",
		"Quantum size.")

	TcacheMax = ctl.NewReadOnly[uint]("arenas.tcache_max",
		"Maximum thread-cached size class.")

	NBins = ctl.NewReadOnly[uint32]("arenas.nbins",
		"Number of bin size classes.")

	// Create adds a new arena and returns its index.
	Create = ctl.NewReadOnly[uint32]("arenas.create",
		"Explicitly create a new arena outside the range of automatically managed arenas, and return its index.")

	// DirtyDecayMs is the default decay time for arenas created later.
	DirtyDecayMs = ctl.NewReadWrite[int]("arenas.dirty_decay_ms",
		"Current default per-arena dirty decay time in ms, used to initialize arena.<i>.dirty_decay_ms for newly created arenas.")

	MuzzyDecayMs = ctl.NewReadWrite[int]("arenas.muzzy_decay_ms",
		"Current default per-arena muzzy decay time in ms, used to initialize arena.<i>.muzzy_decay_ms for newly created arenas.")

	BinSize = ctl.NewIndexedReadOnly[uint]("arenas.bin.<i>.size",
		"Maximum size supported by size class <i>.")

	BinNRegs = ctl.NewIndexedReadOnly[uint32]("arenas.bin.<i>.nregs",
		"Number of regions per slab for size class <i>.")

	// ArenaDirtyDecayMs is the dirty decay time of arena <i>.
	ArenaDirtyDecayMs = ctl.NewIndexedReadWrite[int]("arena.<i>.dirty_decay_ms",
		"Current per-arena approximate time in ms from the creation of a set of unused dirty pages until an equivalent set is purged.")

	ArenaMuzzyDecayMs = ctl.NewIndexedReadWrite[int]("arena.<i>.muzzy_decay_ms",
		"Current per-arena approximate time in ms from the creation of a set of unused muzzy pages until an equivalent set is purged.")
)

// Count returns the number of arenas.
func Count(c *ctl.Controller) (uint, error) {
	n, err := NArenas.Read(c)
	return uint(n), err
}

// SizeClasses returns the region size of every bin, using a single resolved
// MIB for all reads.
func SizeClasses(c *ctl.Controller) ([]uint, error) {
	n, err := NBins.Read(c)
	if err != nil {
		return nil, err
	}
	mib, err := BinSize.Mib(c)
	if err != nil {
		return nil, err
	}
	sizes := make([]uint, n)
	for i := range sizes {
		if sizes[i], err = mib.Read(c, uint(i)); err != nil {
			return nil, err
		}
	}
	return sizes, nil
}
