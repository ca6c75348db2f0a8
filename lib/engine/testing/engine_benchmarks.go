package testing

import (
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	"github.com/ValentinKolb/mctl/lib/engine"
	"testing"
)

// RunEngineBenchmarks runs all benchmarks for an engine implementation
func RunEngineBenchmarks(b *testing.B, name string, factory engine.Factory) {

	b.Run("ReadByName", func(b *testing.B) {
		benchmarkReadByName(b, newController(b, factory))
	})

	b.Run("ReadByMib", func(b *testing.B) {
		benchmarkReadByMib(b, newController(b, factory))
	})

	b.Run("ReadIndexedByMib", func(b *testing.B) {
		benchmarkReadIndexedByMib(b, newController(b, factory))
	})

	b.Run("Resolve", func(b *testing.B) {
		benchmarkResolve(b, newController(b, factory))
	})

	b.Run("ResolveCached", func(b *testing.B) {
		benchmarkResolveCached(b, newController(b, factory))
	})

	b.Run("Update", func(b *testing.B) {
		benchmarkUpdate(b, newController(b, factory))
	})

	b.Run("Snapshot", func(b *testing.B) {
		benchmarkSnapshot(b, newController(b, factory))
	})

	b.Run("ParallelRead", func(b *testing.B) {
		benchmarkParallelRead(b, newController(b, factory))
	})
}

func benchmarkReadByName(b *testing.B, c *ctl.Controller) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := arenas.Page.Read(c); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkReadByMib(b *testing.B, c *ctl.Controller) {
	mib, err := arenas.Page.Mib(c)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := mib.Read(c); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkReadIndexedByMib(b *testing.B, c *ctl.Controller) {
	n, err := arenas.NBins.Read(c)
	if err != nil {
		b.Fatal(err)
	}
	mib, err := arenas.BinSize.Mib(c)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := mib.Read(c, uint(i)%uint(n)); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkResolve(b *testing.B, c *ctl.Controller) {
	k := stats.Allocated.Key()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := k.Resolve(c); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkResolveCached(b *testing.B, c *ctl.Controller) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.MibFor("stats.allocated"); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkUpdate(b *testing.B, c *ctl.Controller) {
	mib, err := arenas.DirtyDecayMs.Mib(c)
	if err != nil {
		b.Fatal(err)
	}
	v, err := mib.Read(c)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if v, err = mib.Update(c, v); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkSnapshot(b *testing.B, c *ctl.Controller) {
	r, err := stats.NewReader(c)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Snapshot(c); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkParallelRead(b *testing.B, c *ctl.Controller) {
	mib, err := arenas.Quantum.Mib(c)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := mib.Read(c); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
