package ctl

// --------------------------------------------------------------------------
// Root Control Points
// --------------------------------------------------------------------------

var (
	// Version is the engine's version string.
	Version = NewReadOnly[CStr]("version", "Allocator version string.")

	// Epoch refreshes the cached statistics. See EpochPoint.
	Epoch = EpochPoint{NewReadWrite[uint64]("epoch",
		"Writing any non-zero value refreshes the statistics snapshot; reads return the current epoch.")}

	// BackgroundThread enables or disables the background purge threads.
	BackgroundThread = NewReadWrite[bool]("background_thread",
		"Whether background worker threads are enabled.")

	// MaxBackgroundThreads caps the number of background worker threads.
	MaxBackgroundThreads = NewReadWrite[uint]("max_background_threads",
		"Maximum number of background worker threads.")
)

// EpochPoint is the epoch control. Most statistics are cached by the engine
// and only change when the epoch advances.
//
// Its update operation differs from other controls: writing v != 0 refreshes
// the snapshot and the returned value is the epoch after the refresh, not the
// one before it.
type EpochPoint struct {
	ReadWrite[uint64]
}

// Advance refreshes the statistics and returns the new epoch.
func (p EpochPoint) Advance(c *Controller) (uint64, error) {
	return p.Update(c, 1)
}

// Mib resolves the epoch control.
func (p EpochPoint) Mib(c *Controller) (EpochMib, error) {
	m, err := p.ReadWrite.Mib(c)
	return EpochMib{m}, err
}

// EpochMib is the resolved epoch control.
type EpochMib struct {
	ReadWriteMib[uint64]
}

// Advance refreshes the statistics and returns the new epoch.
func (m EpochMib) Advance(c *Controller) (uint64, error) {
	return m.Update(c, 1)
}
