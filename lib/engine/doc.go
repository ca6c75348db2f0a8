// Package engine defines the boundary between mctl and a native allocator's
// control interface (jemalloc's mallctl family).
//
// The package focuses on:
//   - A single Engine interface mirroring mallctl, mallctlnametomib and mallctlbymib
//   - Feature discovery through capability flags
//   - Engine information reporting (implementation, version, features)
//
// Key Components:
//
//   - Engine Interface: three byte-buffer calls plus feature and info queries.
//     Buffers are untyped; value typing happens in the ctl package.
//
//   - Feature Flags: the Feature type lets callers detect optional subsystems
//     (profiling, background threads, per-thread counters) before touching the
//     corresponding control points.
//
//   - Status Codes: every call returns 0 on success or an errno value. The
//     ctl package maps those codes to typed errors.
//
// Implementations:
//
//   - engines/sim: an in-memory engine with jemalloc's namespace and error
//     semantics. Statistics are derived from the Go runtime.
//   - engines/jemalloc: a cgo binding to libjemalloc (build tag "jemalloc").
//   - instrument: a decorator that records call timings with go-metrics.
//
// The testing package (github.com/ValentinKolb/mctl/lib/engine/testing) provides
// a conformance suite and benchmarks every implementation runs.
package engine
