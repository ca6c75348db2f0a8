// Package instrument decorates an engine with call timers and failure counters
// kept in a go-metrics registry.
//
// Calls are classified by what they do with their buffers: read (output
// only), write (input only), update (both) and resolve (name to MIB). Each
// mode gets a timer named "engine.calls.<mode>" and a counter named
// "engine.failures.<mode>". Summarize reads them back in Modes order, which
// is how the exporter publishes them.
//
//	reg := metrics.NewRegistry()
//	c := ctl.New(instrument.Wrap(sim.New(nil), reg))
package instrument
