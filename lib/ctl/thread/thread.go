// Package thread declares the thread.* controls, which act on the calling OS
// thread. Goroutines using them should hold runtime.LockOSThread so that
// consecutive calls observe the same thread.
package thread

import "github.com/ValentinKolb/mctl/lib/ctl"

var (
	// Allocated is the total number of bytes ever allocated by the calling
	// thread.
	Allocated = ctl.NewReadOnly[uint64]("thread.allocated",
		"Get the total number of bytes ever allocated by the calling thread.")

	// AllocatedP returns a pointer to the value behind Allocated, so it can
	// be sampled without further control calls.
	AllocatedP = ctl.NewReadOnly[ctl.ThreadLocal]("thread.allocatedp",
		"Get a pointer to the value that is returned by the thread.allocated control.")

	Deallocated = ctl.NewReadOnly[uint64]("thread.deallocated",
		"Get the total number of bytes ever deallocated by the calling thread.")

	DeallocatedP = ctl.NewReadOnly[ctl.ThreadLocal]("thread.deallocatedp",
		"Get a pointer to the value that is returned by the thread.deallocated control.")

	// Arena is the arena the calling thread allocates from.
	Arena = ctl.NewReadWrite[uint32]("thread.arena",
		"Get or set the arena associated with the calling thread.")

	TcacheEnabled = ctl.NewReadWrite[bool]("thread.tcache.enabled",
		"Enable/disable calling thread's tcache.")
)
