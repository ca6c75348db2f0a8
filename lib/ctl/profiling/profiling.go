// Package profiling declares the heap profiling options (opt.prof*). They are
// read-only and only meaningful when config.prof is true.
package profiling

import "github.com/ValentinKolb/mctl/lib/ctl"

var (
	// Prof reports whether memory profiling was enabled at startup.
	Prof = ctl.NewReadOnly[bool]("opt.prof",
		"Memory profiling enabled/disabled.")

	// ProfActive is the initial value of prof.active.
	ProfActive = ctl.NewReadOnly[bool]("opt.prof_active",
		"Whether profiling starts out active.")

	// ProfLeak reports whether a leak report is printed at exit.
	ProfLeak = ctl.NewReadOnly[bool]("opt.prof_leak",
		"Leak reporting enabled/disabled.")

	// ProfFinal reports whether a final profile is dumped at exit.
	ProfFinal = ctl.NewReadOnly[bool]("opt.prof_final",
		"Use an atexit function to dump the final memory usage.")

	// LgProfInterval is the base 2 log of the average number of bytes
	// allocated between interval dumps. -1 disables interval dumps.
	LgProfInterval = ctl.NewReadOnly[int]("opt.lg_prof_interval",
		"Average interval (log base 2) between memory profile dumps, as measured in bytes of allocation activity.")

	// LgProfSample is the base 2 log of the average sampling interval in
	// bytes of allocation activity.
	LgProfSample = ctl.NewReadOnly[uint]("opt.lg_prof_sample",
		"Average interval (log base 2) between allocation samples, as measured in bytes of allocation activity.")

	ProfPrefix = ctl.NewReadOnly[ctl.CStr]("opt.prof_prefix",
		"Filename prefix for profile dumps.")
)
