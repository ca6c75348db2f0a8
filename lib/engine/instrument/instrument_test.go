package instrument

import (
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func summaryOf(t *testing.T, r metrics.Registry, m Mode) Summary {
	for _, s := range Summarize(r) {
		if s.Mode == m {
			return s
		}
	}
	t.Fatalf("no summary for mode %s", m)
	return Summary{}
}

func TestWrapCountsCalls(t *testing.T) {
	r := metrics.NewRegistry()
	c := ctl.New(Wrap(sim.New(nil), r))

	_, err := ctl.Version.Read(c)
	require.NoError(t, err)
	_, err = ctl.Epoch.Advance(c)
	require.NoError(t, err)
	require.NoError(t, ctl.Epoch.Write(c, 1))
	m, err := ctl.Version.Mib(c)
	require.NoError(t, err)
	_, err = m.Read(c)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summaryOf(t, r, ModeRead).Calls)
	assert.Equal(t, int64(1), summaryOf(t, r, ModeWrite).Calls)
	assert.Equal(t, int64(1), summaryOf(t, r, ModeUpdate).Calls)
	assert.Equal(t, int64(1), summaryOf(t, r, ModeResolve).Calls)
	for _, s := range Summarize(r) {
		assert.Zero(t, s.Failures, "mode %s", s.Mode)
	}
}

func TestWrapCountsFailures(t *testing.T) {
	r := metrics.NewRegistry()
	c := ctl.New(Wrap(sim.New(nil), r))

	_, err := ctl.Read[uint](c, ctl.MustKey("no.such.control"))
	require.ErrorIs(t, err, ctl.ErrNotFound)
	_, err = ctl.MustKey("no.such.control").Resolve(c)
	require.ErrorIs(t, err, ctl.ErrNotFound)
	require.ErrorIs(t, ctl.Write(c, ctl.MustKey("version"), ctl.CString("x")), ctl.ErrPermissionDenied)

	assert.Equal(t, int64(1), summaryOf(t, r, ModeRead).Failures)
	assert.Equal(t, int64(1), summaryOf(t, r, ModeResolve).Failures)
	assert.Equal(t, int64(1), summaryOf(t, r, ModeWrite).Failures)
}

func TestSummarizeEmptyRegistry(t *testing.T) {
	out := Summarize(metrics.NewRegistry())
	require.Len(t, out, len(Modes))
	for _, s := range out {
		assert.Zero(t, s.Calls)
	}
}
