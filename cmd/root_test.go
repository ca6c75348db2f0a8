package cmd

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})
	require.NoError(t, RootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version", "--engine", "sim")
	assert.Contains(t, out, "mctl v"+Version)
	assert.Contains(t, out, "engine sim")
}

func TestStatsCommand(t *testing.T) {
	out := execute(t, "stats", "--engine", "sim", "--narenas", "3", "--arenas")
	assert.Contains(t, out, "arenas (3)")
}

func TestControlCommand(t *testing.T) {
	out := execute(t, "ctl", "get", "max_background_threads", "--engine", "sim")
	assert.Contains(t, out, "max_background_threads:")
}
