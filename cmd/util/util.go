package util

import (
	"fmt"
	"github.com/ValentinKolb/mctl/lib/common"
	"github.com/ValentinKolb/mctl/lib/ctl"
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/ValentinKolb/mctl/lib/engine/engines/jemalloc"
	"github.com/ValentinKolb/mctl/lib/engine/engines/sim"
	"github.com/ValentinKolb/mctl/lib/engine/instrument"
	"github.com/joho/godotenv"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupEngineFlags adds the flags that select and configure the engine
func SetupEngineFlags(cmd *cobra.Command) {
	key := "engine"
	cmd.PersistentFlags().String(key, "sim", WrapString("Engine to use: sim (simulated allocator) or jemalloc (requires a build with -tags jemalloc)"))

	key = "narenas"
	cmd.PersistentFlags().Uint32(key, 0, WrapString("(sim) Number of arenas at start, 0 uses the default of four per CPU"))

	key = "profiling"
	cmd.PersistentFlags().Bool(key, false, WrapString("(sim) Simulate an allocator built with heap profiling support"))

	key = "background-threads"
	cmd.PersistentFlags().Bool(key, false, WrapString("(sim) Start with background threads enabled"))

	key = "malloc-conf"
	cmd.PersistentFlags().String(key, "", WrapString("(sim) Option string in malloc_conf syntax, e.g. 'narenas:2,dirty_decay_ms:5000'"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig loads .env files and binds MCTL_* environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("mctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConfig reads the configuration from viper and initializes the loggers
func GetConfig() (*common.Config, error) {
	e, err := common.ParseEngineType(viper.GetString("engine"))
	if err != nil {
		return nil, err
	}
	conf := &common.Config{
		Engine:            e,
		NumArenas:         viper.GetUint32("narenas"),
		Profiling:         viper.GetBool("profiling"),
		BackgroundThreads: viper.GetBool("background-threads"),
		MallocConf:        viper.GetString("malloc-conf"),
		Endpoint:          viper.GetString("endpoint"),
		RefreshInterval:   viper.GetDuration("refresh-interval"),
		LogLevel:          viper.GetString("log-level"),
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return nil, err
	}
	return conf, nil
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// OpenEngine creates the engine described by conf. With a registry, every
// engine call is recorded in it.
func OpenEngine(conf *common.Config, calls gometrics.Registry) (engine.Engine, error) {
	var (
		e   engine.Engine
		err error
	)
	switch conf.Engine {
	case common.EngineSim:
		opts := sim.DefaultOptions()
		if conf.NumArenas > 0 {
			opts.NumArenas = conf.NumArenas
		}
		opts.Profiling = conf.Profiling
		opts.BackgroundThreads = conf.BackgroundThreads
		opts.MallocConf = conf.MallocConf
		e = sim.New(opts)
	case common.EngineJemalloc:
		if e, err = jemalloc.New(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown engine %q", conf.Engine)
	}
	if calls != nil {
		e = instrument.Wrap(e, calls)
	}
	return e, nil
}

// OpenController reads the configuration and returns a controller for the
// configured engine. The caller closes the engine.
func OpenController() (*ctl.Controller, *common.Config, error) {
	conf, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	e, err := OpenEngine(conf, nil)
	if err != nil {
		return nil, nil, err
	}
	return ctl.New(e), conf, nil
}
