package mallctl

import (
	"bytes"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func newSimController(t *testing.T) *ctl.Controller {
	opts := sim.DefaultOptions()
	opts.NumArenas = 2
	opts.Profiling = true
	e := sim.New(opts)
	t.Cleanup(func() { _ = e.Close() })
	return ctl.New(e)
}

func TestGetSetSwap(t *testing.T) {
	c := newSimController(t)
	var out bytes.Buffer

	require.NoError(t, set(c, &out, "arena.1.dirty_decay_ms", "2500"))
	require.NoError(t, get(c, &out, "arena.1.dirty_decay_ms"))
	require.NoError(t, swap(c, &out, "arena.1.dirty_decay_ms", "-1"))

	assert.Equal(t, strings.Join([]string{
		"arena.1.dirty_decay_ms: set to 2500",
		"arena.1.dirty_decay_ms: 2500",
		"arena.1.dirty_decay_ms: 2500 -> -1",
		"",
	}, "\n"), out.String())
}

func TestUnknownControl(t *testing.T) {
	c := newSimController(t)
	err := get(c, &bytes.Buffer{}, "stats.nothing")
	assert.ErrorContains(t, err, "unknown control")
}

func TestReadOnlyControlRejectsWrite(t *testing.T) {
	c := newSimController(t)
	err := set(c, &bytes.Buffer{}, "arenas.page", "1")
	assert.ErrorIs(t, err, ctl.ErrUnsupportedOperation)
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	list(&out, "arenas.bin.")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "arenas.bin.<i>.nregs"))
	assert.Contains(t, lines[1], "size_t")
	assert.Contains(t, lines[1], "r--")
}

func TestExecScript(t *testing.T) {
	c := newSimController(t)
	script := `
# tune and inspect
get max_background_threads
set max_background_threads 3
swap max_background_threads 2
get max_background_threads
mib stats.arenas.1.pactive
epoch
set prof.active false
get prof.active
`
	var out bytes.Buffer
	require.NoError(t, execScript(c, strings.NewReader(script), &out))

	s := out.String()
	assert.Contains(t, s, "max_background_threads: set to 3\n")
	assert.Contains(t, s, "max_background_threads: 3 -> 2\n")
	assert.Contains(t, s, "max_background_threads: 2\n")
	assert.Regexp(t, `stats\.arenas\.1\.pactive: \[\d+ \d+ 1 \d+\]`, s)
	assert.Contains(t, s, "epoch: 2\n")
	assert.Contains(t, s, "prof.active: false\n")
}

func TestExecScriptReportsFailures(t *testing.T) {
	c := newSimController(t)
	script := "get version\nfrobnicate\nset max_background_threads 0\nget\n"

	var out bytes.Buffer
	err := execScript(c, strings.NewReader(script), &out)
	assert.EqualError(t, err, "3 of 4 commands failed")
	assert.Contains(t, out.String(), "line 2: unknown command")
	assert.Contains(t, out.String(), "line 3: ")
	assert.Contains(t, out.String(), "line 4: get takes 1 argument(s), got 0")
	assert.Contains(t, out.String(), "version: "+sim.Version)
}
