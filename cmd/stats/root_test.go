package stats

import (
	"bytes"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/ctl/stats"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newSim(t *testing.T) *ctl.Controller {
	opts := sim.DefaultOptions()
	opts.NumArenas = 2
	opts.StatsSource = func() sim.Sample {
		return sim.Sample{Allocated: 1234567, Active: 2 << 20, Resident: 3 << 20}
	}
	e := sim.New(opts)
	t.Cleanup(func() { _ = e.Close() })
	return ctl.New(e)
}

func TestPrintSnapshot(t *testing.T) {
	var out bytes.Buffer
	printSnapshot(&out, stats.Snapshot{Epoch: 2, Allocated: 1234567, Active: 2469134})
	assert.Contains(t, out.String(), "1,234,567 bytes")
	assert.Contains(t, out.String(), "50.0%")
}

func TestPrintArenas(t *testing.T) {
	c := newSim(t)
	var out bytes.Buffer
	require.NoError(t, printArenas(c, &out))
	assert.Contains(t, out.String(), "arenas (2)")
	assert.Contains(t, out.String(), "balance")
}

func TestWatch(t *testing.T) {
	c := newSim(t)
	r, err := stats.NewReader(c)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, watch(c, r, &out, 3, 0))
	assert.Contains(t, out.String(), "1,234,567")
	assert.Contains(t, out.String(), "delta")
}

func TestBindFlags(t *testing.T) {
	require.NoError(t, StatsCmd.ParseFlags([]string{"--watch", "4", "--interval", "250ms"}))
	require.NoError(t, StatsCmd.PreRunE(StatsCmd, nil))
	assert.Equal(t, 4, viper.GetInt("watch"))
	assert.Equal(t, 250*time.Millisecond, viper.GetDuration("interval"))
}
