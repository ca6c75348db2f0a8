// Package cmd implements the command-line interface of mctl. It provides a
// hierarchical command structure for reading and writing allocator controls,
// printing statistics and exporting them as metrics.
//
// The package is organized into several subpackages:
//
//   - mallctl: The ctl command group (list, get, set, swap, mib, epoch, exec, perf)
//   - stats: Statistics summary with per-arena and watch modes
//   - serve: Prometheus exporter
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every command accepts the engine flags (--engine, --narenas, --profiling,
// --background-threads, --malloc-conf, --log-level) or the matching MCTL_*
// environment variables.
//
// See mctl -help for a list of all commands.
package cmd
