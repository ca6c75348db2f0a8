package exporter

import (
	"fmt"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/instrument"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"sync"
)

var Logger = logger.GetLogger("exporter")

// --------------------------------------------------------------------------
// Exporter
// --------------------------------------------------------------------------

// Options control what an Exporter reports.
type Options struct {
	// PerArena adds jemalloc_arena_pages for every arena.
	PerArena bool
	// Calls is the registry an instrumented engine records into (optional).
	Calls gometrics.Registry
	// ProcessMetrics appends the Go process metrics to every scrape.
	ProcessMetrics bool
}

// DefaultOptions returns the options used by the serve command.
func DefaultOptions() *Options {
	return &Options{PerArena: true, ProcessMetrics: true}
}

// Exporter turns allocator statistics into metrics.
//
// Thread-safety: Collect and WritePrometheus may be called concurrently.
type Exporter struct {
	c    *ctl.Controller
	opts Options
	set  *metrics.Set

	reader  *stats.Reader
	narenas ctl.ReadOnlyMib[uint32]
	bg      *ctl.ReadWriteMib[bool] // nil when the engine has no background threads
	pactive ctl.IndexedReadOnlyMib[uint]
	pdirty  ctl.IndexedReadOnlyMib[uint]

	mu       sync.Mutex
	last     stats.Snapshot
	arenas   uint32
	bgOn     bool
	pages    map[uint32][2]uint // arena -> active, dirty
	perArena map[uint32]bool    // arenas whose gauges are registered

	scrapes *metrics.Counter
	errors  *metrics.Counter
	calls   map[instrument.Mode][2]*metrics.Counter
}

// New resolves every reported control and registers the gauges.
func New(c *ctl.Controller, opts *Options) (*Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	e := &Exporter{
		c:        c,
		opts:     *opts,
		set:      metrics.NewSet(),
		pages:    map[uint32][2]uint{},
		perArena: map[uint32]bool{},
	}

	var err error
	if e.reader, err = stats.NewReader(c); err != nil {
		return nil, fmt.Errorf("exporter: resolving statistics: %w", err)
	}
	if e.narenas, err = arenas.NArenas.Mib(c); err != nil {
		return nil, fmt.Errorf("exporter: resolving arenas.narenas: %w", err)
	}
	if c.Engine().SupportsFeature(engine.FeatureBackgroundThreads) {
		bg, err := ctl.BackgroundThread.Mib(c)
		if err != nil {
			return nil, fmt.Errorf("exporter: resolving background_thread: %w", err)
		}
		e.bg = &bg
	}
	if e.opts.PerArena {
		if e.pactive, err = stats.ArenaPactive.Mib(c); err != nil {
			return nil, fmt.Errorf("exporter: resolving arena statistics: %w", err)
		}
		if e.pdirty, err = stats.ArenaPdirty.Mib(c); err != nil {
			return nil, fmt.Errorf("exporter: resolving arena statistics: %w", err)
		}
	}

	e.registerGauges()
	return e, nil
}

func (e *Exporter) gauge(name string, read func() float64) {
	e.set.NewGauge(name, func() float64 {
		e.mu.Lock()
		defer e.mu.Unlock()
		return read()
	})
}

func (e *Exporter) registerGauges() {
	e.gauge("jemalloc_stats_allocated_bytes", func() float64 { return float64(e.last.Allocated) })
	e.gauge("jemalloc_stats_active_bytes", func() float64 { return float64(e.last.Active) })
	e.gauge("jemalloc_stats_metadata_bytes", func() float64 { return float64(e.last.Metadata) })
	e.gauge("jemalloc_stats_resident_bytes", func() float64 { return float64(e.last.Resident) })
	e.gauge("jemalloc_stats_mapped_bytes", func() float64 { return float64(e.last.Mapped) })
	e.gauge("jemalloc_stats_retained_bytes", func() float64 { return float64(e.last.Retained) })
	e.gauge("jemalloc_epoch", func() float64 { return float64(e.last.Epoch) })
	e.gauge("jemalloc_arenas", func() float64 { return float64(e.arenas) })
	if e.bg != nil {
		e.gauge("jemalloc_background_thread", func() float64 {
			if e.bgOn {
				return 1
			}
			return 0
		})
	}

	e.scrapes = e.set.NewCounter("mctl_scrapes_total")
	e.errors = e.set.NewCounter("mctl_scrape_errors_total")

	if e.opts.Calls != nil {
		e.calls = make(map[instrument.Mode][2]*metrics.Counter, len(instrument.Modes))
		for _, m := range instrument.Modes {
			e.calls[m] = [2]*metrics.Counter{
				e.set.NewCounter(fmt.Sprintf(`mctl_engine_calls_total{mode=%q}`, m)),
				e.set.NewCounter(fmt.Sprintf(`mctl_engine_failures_total{mode=%q}`, m)),
			}
		}
	}
}

// registerArena adds the page gauges of arena i. Arenas created after start
// are picked up by the first Collect that sees them.
// Must be called with mu held.
func (e *Exporter) registerArena(i uint32) {
	if e.perArena[i] {
		return
	}
	e.perArena[i] = true
	for state, slot := range map[string]int{"active": 0, "dirty": 1} {
		e.gauge(fmt.Sprintf(`jemalloc_arena_pages{arena="%d",state=%q}`, i, state), func() float64 {
			return float64(e.pages[i][slot])
		})
	}
}

// Collect advances the epoch and reads every reported statistic.
func (e *Exporter) Collect() error {
	snap, err := e.reader.Snapshot(e.c)
	if err != nil {
		return err
	}
	n, err := e.narenas.Read(e.c)
	if err != nil {
		return err
	}
	var bgOn bool
	if e.bg != nil {
		if bgOn, err = e.bg.Read(e.c); err != nil {
			return err
		}
	}
	pages := make(map[uint32][2]uint, n)
	if e.opts.PerArena {
		for i := uint32(0); i < n; i++ {
			active, err := e.pactive.Read(e.c, uint(i))
			if err != nil {
				return err
			}
			dirty, err := e.pdirty.Read(e.c, uint(i))
			if err != nil {
				return err
			}
			pages[i] = [2]uint{active, dirty}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.last, e.arenas, e.bgOn, e.pages = snap, n, bgOn, pages
	if e.opts.PerArena {
		for i := uint32(0); i < n; i++ {
			e.registerArena(i)
		}
	}
	if e.calls != nil {
		for _, s := range instrument.Summarize(e.opts.Calls) {
			e.calls[s.Mode][0].Set(uint64(s.Calls))
			e.calls[s.Mode][1].Set(uint64(s.Failures))
		}
	}
	Logger.Debugf("collected epoch %d: allocated=%d resident=%d arenas=%d", snap.Epoch, snap.Allocated, snap.Resident, n)
	return nil
}

// Snapshot returns the statistics of the last successful Collect.
func (e *Exporter) Snapshot() stats.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// WritePrometheus collects fresh values and writes them to w. A failed
// collection is counted and the previous values are written.
func (e *Exporter) WritePrometheus(w io.Writer) {
	e.scrapes.Inc()
	if err := e.Collect(); err != nil {
		e.errors.Inc()
		Logger.Warningf("collect failed: %v", err)
	}
	e.set.WritePrometheus(w)
	if e.opts.ProcessMetrics {
		metrics.WriteProcessMetrics(w)
	}
}
