// Package exporter publishes allocator statistics in the Prometheus text
// format.
//
// An Exporter resolves the MIBs of every statistic it reports once, then on
// each Collect advances the epoch and reads the fresh values. The values are
// exposed as VictoriaMetrics gauges:
//
//	jemalloc_stats_{allocated,active,metadata,resident,mapped,retained}_bytes
//	jemalloc_arenas
//	jemalloc_epoch
//	jemalloc_background_thread
//	jemalloc_arena_pages{arena="<i>",state="active|dirty"}
//
// When the engine is wrapped with lib/engine/instrument, the registry can be
// handed to the exporter to publish mctl_engine_calls_total and
// mctl_engine_failures_total per call mode.
//
// Serve runs an HTTP server with /metrics on top of Handler.
package exporter
