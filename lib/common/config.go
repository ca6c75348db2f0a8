package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Engine selection
// --------------------------------------------------------------------------

type EngineType string

const (
	EngineSim      EngineType = "sim"
	EngineJemalloc EngineType = "jemalloc"
)

// ParseEngineType validates an engine name from flags or the environment.
func ParseEngineType(s string) (EngineType, error) {
	switch EngineType(strings.ToLower(s)) {
	case EngineSim:
		return EngineSim, nil
	case EngineJemalloc:
		return EngineJemalloc, nil
	default:
		return "", fmt.Errorf("unknown engine %q: must be one of sim, jemalloc", s)
	}
}

// --------------------------------------------------------------------------
// Configuration struct
// --------------------------------------------------------------------------

// Config holds everything the command line tools need to open an engine and
// serve metrics.
type Config struct {
	// engine selection and simulated engine options
	Engine            EngineType
	NumArenas         uint32
	Profiling         bool
	BackgroundThreads bool
	MallocConf        string

	// exporter settings
	Endpoint        string
	RefreshInterval time.Duration

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Engine")
	addField("Implementation", string(c.Engine))
	if c.Engine == EngineSim {
		narenas := "default"
		if c.NumArenas > 0 {
			narenas = strconv.FormatUint(uint64(c.NumArenas), 10)
		}
		addField("Arenas", narenas)
		addField("Profiling", strconv.FormatBool(c.Profiling))
		addField("Background Threads", strconv.FormatBool(c.BackgroundThreads))
		addField("malloc_conf", fmt.Sprintf("%q", c.MallocConf))
	}

	if c.Endpoint != "" {
		addSection("Exporter")
		addField("Endpoint", c.Endpoint)
		addField("Refresh Interval", c.RefreshInterval.String())
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
