// Package stats declares the stats.* controls.
//
// Statistics are cached by the allocator. Call ctl.Epoch.Advance to refresh
// the snapshot before reading; a Snapshot does this for you.
package stats

import "github.com/ValentinKolb/mctl/lib/ctl"

// --------------------------------------------------------------------------
// Global Statistics
// --------------------------------------------------------------------------

var (
	// Allocated is the number of bytes allocated by the application.
	Allocated = ctl.NewReadOnly[uint]("stats.allocated",
		"Total number of bytes allocated by the application.")

	// Active is the number of bytes in active pages. It is a multiple of the
	// page size and at least Allocated.
	Active = ctl.NewReadOnly[uint]("stats.active",
		"Total number of bytes in active pages allocated by the application.")

	Metadata = ctl.NewReadOnly[uint]("stats.metadata",
		"Total number of bytes dedicated to metadata.")

	// Resident is the number of bytes in physically resident data pages.
	Resident = ctl.NewReadOnly[uint]("stats.resident",
		"Maximum number of bytes in physically resident data pages mapped by the allocator.")

	Mapped = ctl.NewReadOnly[uint]("stats.mapped",
		"Total number of bytes in active extents mapped by the allocator.")

	// Retained is the number of bytes in virtual memory mappings that were
	// retained rather than returned to the operating system.
	Retained = ctl.NewReadOnly[uint]("stats.retained",
		"Total number of bytes in virtual memory mappings that were retained rather than being returned to the operating system.")
)

// --------------------------------------------------------------------------
// Per-Arena Statistics
// --------------------------------------------------------------------------

var (
	ArenaNThreads = ctl.NewIndexedReadOnly[uint32]("stats.arenas.<i>.nthreads",
		"Number of threads currently assigned to arena <i>.")

	ArenaPactive = ctl.NewIndexedReadOnly[uint]("stats.arenas.<i>.pactive",
		"Number of pages in active extents of arena <i>.")

	ArenaPdirty = ctl.NewIndexedReadOnly[uint]("stats.arenas.<i>.pdirty",
		"Number of pages within unused extents of arena <i> that are potentially dirty.")

	ArenaDirtyDecayMs = ctl.NewIndexedReadOnly[int]("stats.arenas.<i>.dirty_decay_ms",
		"Approximate time in ms from the creation of a set of unused dirty pages until an equivalent set is purged.")

	ArenaMuzzyDecayMs = ctl.NewIndexedReadOnly[int]("stats.arenas.<i>.muzzy_decay_ms",
		"Approximate time in ms from the creation of a set of unused muzzy pages until an equivalent set is purged.")
)

// --------------------------------------------------------------------------
// Snapshot
// --------------------------------------------------------------------------

// Snapshot holds one consistent reading of the global statistics.
type Snapshot struct {
	Epoch     uint64 `json:"epoch"`
	Allocated uint   `json:"allocated"`
	Active    uint   `json:"active"`
	Metadata  uint   `json:"metadata"`
	Resident  uint   `json:"resident"`
	Mapped    uint   `json:"mapped"`
	Retained  uint   `json:"retained"`
}

// Reader reads snapshots through MIBs resolved once at construction.
type Reader struct {
	epoch  ctl.EpochMib
	fields [6]ctl.ReadOnlyMib[uint]
}

// NewReader resolves every statistic read by Snapshot.
func NewReader(c *ctl.Controller) (*Reader, error) {
	r := &Reader{}
	var err error
	if r.epoch, err = ctl.Epoch.Mib(c); err != nil {
		return nil, err
	}
	for i, p := range []ctl.ReadOnly[uint]{Allocated, Active, Metadata, Resident, Mapped, Retained} {
		if r.fields[i], err = p.Mib(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Snapshot advances the epoch and reads all global statistics.
func (r *Reader) Snapshot(c *ctl.Controller) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Epoch, err = r.epoch.Advance(c); err != nil {
		return Snapshot{}, err
	}
	dst := []*uint{&s.Allocated, &s.Active, &s.Metadata, &s.Resident, &s.Mapped, &s.Retained}
	for i, m := range r.fields {
		if *dst[i], err = m.Read(c); err != nil {
			return Snapshot{}, err
		}
	}
	return s, nil
}

// ArenaPages reads the active and dirty page counts of arena i. The epoch is
// not advanced.
func ArenaPages(c *ctl.Controller, i uint) (active, dirty uint, err error) {
	if active, err = ArenaPactive.Read(c, i); err != nil {
		return 0, 0, err
	}
	if dirty, err = ArenaPdirty.Read(c, i); err != nil {
		return 0, 0, err
	}
	return active, dirty, nil
}
