// Package prof declares the runtime profiling controls (prof.*). All of them
// fail with an engine error unless the allocator runs with opt.prof enabled.
package prof

import "github.com/ValentinKolb/mctl/lib/ctl"

var (
	// Dump writes a memory profile to the given file. Writing an empty
	// string dumps to a file named after prof.prefix.
	Dump = ctl.NewWriteOnly[ctl.CStr]("prof.dump",
		"Dump a memory profile to the specified file, or a prefix based name if empty.")

	// Prefix sets the filename prefix used for subsequent dumps.
	Prefix = ctl.NewWriteOnly[ctl.CStr]("prof.prefix",
		"Set the filename prefix for profile dumps.")

	// Active toggles sampling for all threads.
	Active = ctl.NewReadWrite[bool]("prof.active",
		"Control whether sampling is currently active.")

	// Interval is the average number of bytes allocated between interval
	// based dumps, 0 when interval dumps are disabled.
	Interval = ctl.NewReadOnly[uint64]("prof.interval",
		"Average number of bytes allocated between interval-based profile dumps.")
)

// DumpTo writes a profile to path. Use DumpDefault to let the engine choose
// the file name.
func DumpTo(c *ctl.Controller, path string) error {
	return Dump.Write(c, ctl.CString(path))
}

// DumpDefault writes a profile to a file named after the current prefix.
func DumpDefault(c *ctl.Controller) error {
	return Dump.Write(c, ctl.CStr{})
}
