package sim

import (
	"github.com/ValentinKolb/mctl/lib/engine"
	enginetesting "github.com/ValentinKolb/mctl/lib/engine/testing"
	"testing"
)

func Test(t *testing.T) {
	enginetesting.RunEngineTests(t, "Sim", func() (engine.Engine, error) {
		return New(nil), nil
	})
}

func TestWithProfiling(t *testing.T) {
	enginetesting.RunEngineTests(t, "SimProfiling", func() (engine.Engine, error) {
		opts := DefaultOptions()
		opts.Profiling = true
		opts.BackgroundThreads = true
		return New(opts), nil
	})
}

func TestWithProfilingDisabled(t *testing.T) {
	enginetesting.RunEngineTests(t, "SimProfilingOff", func() (engine.Engine, error) {
		opts := DefaultOptions()
		opts.Profiling = true
		opts.MallocConf = "prof:false"
		return New(opts), nil
	})
}

func Benchmark(b *testing.B) {
	enginetesting.RunEngineBenchmarks(b, "Sim", func() (engine.Engine, error) {
		return New(nil), nil
	})
}
