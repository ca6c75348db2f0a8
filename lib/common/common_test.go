package common

import (
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, logger.WARNING, lvl)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
	assert.Error(t, InitLoggers("loud"))
}

func TestParseEngineType(t *testing.T) {
	e, err := ParseEngineType("Sim")
	require.NoError(t, err)
	assert.Equal(t, EngineSim, e)

	_, err = ParseEngineType("tcmalloc")
	assert.Error(t, err)
}

func TestConfigString(t *testing.T) {
	c := &Config{
		Engine:          EngineSim,
		NumArenas:       4,
		MallocConf:      "narenas:4",
		Endpoint:        ":9464",
		RefreshInterval: 10 * time.Second,
		LogLevel:        "info",
	}
	s := c.String()
	assert.Contains(t, s, "ENGINE")
	assert.Contains(t, s, "EXPORTER")
	assert.Contains(t, s, `"narenas:4"`)
	assert.Contains(t, s, "10s")

	c = &Config{Engine: EngineJemalloc, LogLevel: "warn"}
	s = c.String()
	assert.NotContains(t, s, "EXPORTER")
	assert.NotContains(t, s, "Arenas")
}
