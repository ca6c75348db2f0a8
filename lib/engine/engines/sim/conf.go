package sim

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

const (
	maxArenaLimit         = 4095 // largest number of arenas, arenas.create fails beyond it
	maxBackgroundThreads  = 4095
	defaultDirtyDecayMs   = 10000
	defaultLgProfSample   = 19
	defaultLgProfInterval = -1
	defaultTcacheMax      = 32768
	quantum               = 16
	smallMaxClass         = 14336
)

// settings are the run-time options reported under opt.*.
type settings struct {
	abort                bool
	backgroundThread     bool
	maxBackgroundThreads uint
	dirtyDecayMs         int
	muzzyDecayMs         int
	junk                 string
	narenas              uint32
	percpuArena          string
	tcache               bool
	tcacheMax            uint
	prof                 bool
	profActive           bool
	profLeak             bool
	profFinal            bool
	lgProfInterval       int
	lgProfSample         uint
	profPrefix           string
}

func defaultSettings(opts *Options) settings {
	return settings{
		backgroundThread:     opts.BackgroundThreads,
		maxBackgroundThreads: maxBackgroundThreads,
		dirtyDecayMs:         defaultDirtyDecayMs,
		junk:                 "false",
		narenas:              opts.NumArenas,
		percpuArena:          "disabled",
		tcache:               true,
		tcacheMax:            defaultTcacheMax,
		prof:                 opts.Profiling,
		profActive:           true,
		lgProfInterval:       defaultLgProfInterval,
		lgProfSample:         defaultLgProfSample,
		profPrefix:           "jeprof",
	}
}

// parseConf applies a MALLOC_CONF style string ("key:value,key:value") to s.
// Invalid pairs are skipped and reported. Profiling options only take effect
// when profiling support is built in (profAvailable).
func parseConf(conf string, s *settings, profAvailable bool) (errs []error) {
	if conf == "" {
		return nil
	}
	for _, pair := range strings.Split(conf, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok || k == "" {
			errs = append(errs, fmt.Errorf("invalid conf pair %q", pair))
			continue
		}
		if strings.HasPrefix(k, "prof") || strings.HasPrefix(k, "lg_prof") {
			if !profAvailable {
				errs = append(errs, fmt.Errorf("conf %q requires profiling support", k))
				continue
			}
		}
		next := *s
		if err := applyConf(&next, k, v); err != nil {
			errs = append(errs, fmt.Errorf("invalid conf value %s:%s: %w", k, v, err))
			continue
		}
		*s = next
	}
	return errs
}

func applyConf(s *settings, k, v string) error {
	var err error
	switch k {
	case "abort":
		s.abort, err = strconv.ParseBool(v)
	case "background_thread":
		s.backgroundThread, err = strconv.ParseBool(v)
	case "max_background_threads":
		var n uint64
		n, err = strconv.ParseUint(v, 10, 0)
		if err == nil && (n == 0 || n > maxBackgroundThreads) {
			err = fmt.Errorf("out of range")
		}
		s.maxBackgroundThreads = uint(n)
	case "dirty_decay_ms":
		s.dirtyDecayMs, err = parseDecay(v)
	case "muzzy_decay_ms":
		s.muzzyDecayMs, err = parseDecay(v)
	case "junk":
		switch v {
		case "true", "false", "alloc", "free":
			s.junk = v
		default:
			err = fmt.Errorf("unknown junk mode")
		}
	case "narenas":
		var n uint64
		n, err = strconv.ParseUint(v, 10, 32)
		if err == nil && (n == 0 || n > maxArenaLimit) {
			err = fmt.Errorf("out of range")
		}
		s.narenas = uint32(n)
	case "percpu_arena":
		switch v {
		case "disabled", "percpu", "phycpu":
			s.percpuArena = v
			if v != "disabled" {
				s.narenas = uint32(runtime.NumCPU())
			}
		default:
			err = fmt.Errorf("unknown percpu_arena mode")
		}
	case "tcache":
		s.tcache, err = strconv.ParseBool(v)
	case "tcache_max":
		var n uint64
		n, err = strconv.ParseUint(v, 10, 0)
		s.tcacheMax = uint(n)
	case "prof":
		s.prof, err = strconv.ParseBool(v)
	case "prof_active":
		s.profActive, err = strconv.ParseBool(v)
	case "prof_leak":
		s.profLeak, err = strconv.ParseBool(v)
	case "prof_final":
		s.profFinal, err = strconv.ParseBool(v)
	case "lg_prof_interval":
		s.lgProfInterval, err = strconv.Atoi(v)
		if err == nil && (s.lgProfInterval < -1 || s.lgProfInterval > 63) {
			err = fmt.Errorf("out of range")
		}
	case "lg_prof_sample":
		var n uint64
		n, err = strconv.ParseUint(v, 10, 0)
		if err == nil && n > 63 {
			err = fmt.Errorf("out of range")
		}
		s.lgProfSample = uint(n)
	case "prof_prefix":
		s.profPrefix = v
	default:
		return fmt.Errorf("unknown option")
	}
	return err
}

func parseDecay(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err == nil && n < -1 {
		return 0, fmt.Errorf("out of range")
	}
	return n, err
}
