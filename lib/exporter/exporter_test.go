package exporter

import (
	"bytes"
	"context"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/arenas"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim"
	"github.com/ValentinKolb/mctl/lib/engine/instrument"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fixedSource() sim.Sample {
	return sim.Sample{Allocated: 1 << 20, Active: 2 << 20, Resident: 3 << 20, Mapped: 4 << 20}
}

func newSim(t *testing.T, mutate func(o *sim.Options)) *ctl.Controller {
	opts := sim.DefaultOptions()
	opts.NumArenas = 2
	opts.StatsSource = fixedSource
	if mutate != nil {
		mutate(opts)
	}
	e := sim.New(opts)
	t.Cleanup(func() { _ = e.Close() })
	return ctl.New(e)
}

func scrape(t *testing.T, e *Exporter) string {
	var buf bytes.Buffer
	e.WritePrometheus(&buf)
	return buf.String()
}

func TestExporterGauges(t *testing.T) {
	c := newSim(t, func(o *sim.Options) { o.BackgroundThreads = true })
	e, err := New(c, &Options{PerArena: true})
	require.NoError(t, err)

	out := scrape(t, e)
	assert.Contains(t, out, "jemalloc_stats_allocated_bytes 1048576\n")
	assert.Contains(t, out, "jemalloc_stats_resident_bytes 3145728\n")
	assert.Contains(t, out, "jemalloc_arenas 2\n")
	assert.Contains(t, out, "jemalloc_background_thread 1\n")
	assert.Contains(t, out, `jemalloc_arena_pages{arena="1",state="active"}`)
	assert.Contains(t, out, "mctl_scrapes_total 1\n")
	assert.NotContains(t, out, "mctl_engine_calls_total")
	assert.NotContains(t, out, "go_goroutines")
}

func TestExporterAdvancesEpoch(t *testing.T) {
	c := newSim(t, nil)
	e, err := New(c, &Options{})
	require.NoError(t, err)

	require.NoError(t, e.Collect())
	first := e.Snapshot().Epoch
	require.NoError(t, e.Collect())
	assert.Equal(t, first+1, e.Snapshot().Epoch)
}

func TestExporterPicksUpNewArenas(t *testing.T) {
	c := newSim(t, nil)
	e, err := New(c, &Options{PerArena: true})
	require.NoError(t, err)
	require.NoError(t, e.Collect())

	idx, err := arenas.Create.Read(c)
	require.NoError(t, err)
	out := scrape(t, e)
	assert.Contains(t, out, "jemalloc_arenas 3\n")
	assert.Contains(t, out, `jemalloc_arena_pages{arena="`+ctl.FormatValue(uint(idx))+`",state="dirty"}`)
}

func TestExporterCallCounters(t *testing.T) {
	r := gometrics.NewRegistry()
	opts := sim.DefaultOptions()
	opts.NumArenas = 1
	c := ctl.New(instrument.Wrap(sim.New(opts), r))

	e, err := New(c, &Options{Calls: r})
	require.NoError(t, err)
	out := scrape(t, e)
	assert.Contains(t, out, `mctl_engine_calls_total{mode="resolve"}`)
	assert.Contains(t, out, `mctl_engine_failures_total{mode="read"} 0`)
	assert.NotContains(t, out, `mctl_engine_calls_total{mode="update"} 0`)
}

func TestHandler(t *testing.T) {
	c := newSim(t, nil)
	e, err := New(c, DefaultOptions())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "jemalloc_epoch")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServeShutsDown(t *testing.T) {
	c := newSim(t, nil)
	e, err := New(c, &Options{})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Serve(ctx, addr, true) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "jemalloc_stats_allocated_bytes")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
