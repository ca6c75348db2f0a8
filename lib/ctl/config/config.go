// Package config declares the config.* controls, which describe how the
// allocator was built. They never change at runtime.
package config

import "github.com/ValentinKolb/mctl/lib/ctl"

var (
	// MallocConf is the default configuration string embedded at build time.
	MallocConf = ctl.NewReadOnly[ctl.CStr]("config.malloc_conf",
		"Embedded configure-time-specified run-time options string, empty unless specified at build time.")

	// Prof reports whether heap profiling support was compiled in.
	Prof = ctl.NewReadOnly[bool]("config.prof", "Heap profiling support was built in.")

	// Stats reports whether statistics support was compiled in.
	Stats = ctl.NewReadOnly[bool]("config.stats", "Statistics support was built in.")

	// Debug reports whether the allocator is a debug build.
	Debug = ctl.NewReadOnly[bool]("config.debug", "Debugging checks were built in.")
)
