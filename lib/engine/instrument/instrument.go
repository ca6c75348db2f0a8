package instrument

import (
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/rcrowley/go-metrics"
	"time"
)

// Mode classifies an engine call by what it did with its buffers.
type Mode string

const (
	ModeRead    Mode = "read"    // oldp only
	ModeWrite   Mode = "write"   // newp only
	ModeUpdate  Mode = "update"  // oldp and newp
	ModeResolve Mode = "resolve" // MallctlNameToMib
)

// Modes lists every mode in a stable order.
var Modes = []Mode{ModeRead, ModeWrite, ModeUpdate, ModeResolve}

func modeOf(oldp, newp []byte) Mode {
	switch {
	case oldp != nil && newp != nil:
		return ModeUpdate
	case newp != nil:
		return ModeWrite
	default:
		return ModeRead
	}
}

// TimerName is the registry name of the call timer for m.
func TimerName(m Mode) string { return "engine.calls." + string(m) }

// FailureName is the registry name of the failure counter for m.
func FailureName(m Mode) string { return "engine.failures." + string(m) }

// --------------------------------------------------------------------------
// Instrumented Engine
// --------------------------------------------------------------------------

// instrumented wraps an engine. Every call is timed, every non-zero status is
// counted.
type instrumented struct {
	engine.Engine
	timers   map[Mode]metrics.Timer
	failures map[Mode]metrics.Counter
}

// Wrap returns an engine that records calls to e in r. A nil registry uses
// metrics.DefaultRegistry.
func Wrap(e engine.Engine, r metrics.Registry) engine.Engine {
	if r == nil {
		r = metrics.DefaultRegistry
	}
	w := &instrumented{
		Engine:   e,
		timers:   make(map[Mode]metrics.Timer, len(Modes)),
		failures: make(map[Mode]metrics.Counter, len(Modes)),
	}
	for _, m := range Modes {
		w.timers[m] = metrics.GetOrRegisterTimer(TimerName(m), r)
		w.failures[m] = metrics.GetOrRegisterCounter(FailureName(m), r)
	}
	return w
}

func (w *instrumented) record(m Mode, start time.Time, status int) {
	w.timers[m].UpdateSince(start)
	if status != engine.StatusOK {
		w.failures[m].Inc(1)
	}
}

func (w *instrumented) Mallctl(name []byte, oldp, newp []byte) int {
	start := time.Now()
	st := w.Engine.Mallctl(name, oldp, newp)
	w.record(modeOf(oldp, newp), start, st)
	return st
}

func (w *instrumented) MallctlNameToMib(name []byte, mib []uint) (int, int) {
	start := time.Now()
	n, st := w.Engine.MallctlNameToMib(name, mib)
	w.record(ModeResolve, start, st)
	return n, st
}

func (w *instrumented) MallctlByMib(mib []uint, oldp, newp []byte) int {
	start := time.Now()
	st := w.Engine.MallctlByMib(mib, oldp, newp)
	w.record(modeOf(oldp, newp), start, st)
	return st
}

// --------------------------------------------------------------------------
// Reporting
// --------------------------------------------------------------------------

// Summary is the state of one mode's metrics.
type Summary struct {
	Mode     Mode
	Calls    int64
	Failures int64
	Mean     time.Duration
	P99      time.Duration
}

// Summarize reads the metrics Wrap registered in r.
func Summarize(r metrics.Registry) []Summary {
	if r == nil {
		r = metrics.DefaultRegistry
	}
	out := make([]Summary, 0, len(Modes))
	for _, m := range Modes {
		s := Summary{Mode: m}
		if t, ok := r.Get(TimerName(m)).(metrics.Timer); ok {
			snap := t.Snapshot()
			s.Calls = snap.Count()
			s.Mean = time.Duration(snap.Mean())
			s.P99 = time.Duration(snap.Percentile(0.99))
		}
		if c, ok := r.Get(FailureName(m)).(metrics.Counter); ok {
			s.Failures = c.Count()
		}
		out = append(out, s)
	}
	return out
}
