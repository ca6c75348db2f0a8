//go:build jemalloc && cgo

package jemalloc

import (
	"github.com/ValentinKolb/mctl/lib/engine"
	enginetesting "github.com/ValentinKolb/mctl/lib/engine/testing"
	"testing"
)

func Test(t *testing.T) {
	enginetesting.RunEngineTests(t, "Jemalloc", func() (engine.Engine, error) {
		return New()
	})
}

func Benchmark(b *testing.B) {
	enginetesting.RunEngineBenchmarks(b, "Jemalloc", func() (engine.Engine, error) {
		return New()
	})
}
