// Package testing provides standardised tests and benchmarks for engine
// implementations that satisfy the engine.Engine interface.
//
// The package contains:
//   - RunEngineTests: a conformance suite covering name and MIB access, the
//     round-trip and update laws, epoch refresh, error codes and the catalog
//   - RunEngineBenchmarks: the cost of reads by name and by MIB, resolution,
//     updates and statistics snapshots
//
// The suite talks to the engine through a ctl.Controller, so it checks the
// typed layer and the engine together. Optional subsystems are only tested
// when the engine reports the matching engine.Feature.
//
// Example usage:
//
//	factory := func() (engine.Engine, error) {
//		return NewMyEngine(), nil
//	}
//
//	// Running the standard test suite
//	enginetesting.RunEngineTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	enginetesting.RunEngineBenchmarks(b, "MyEngine", factory)
package testing
