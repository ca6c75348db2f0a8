package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// mctlLogger implements the ILogger interface with custom formatting
type mctlLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *mctlLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *mctlLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *mctlLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *mctlLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *mctlLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *mctlLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

func (l *mctlLogger) log(levelStr string, format string, args ...interface{}) {
	l.logger.Printf("%-5s | %-9s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// LogOutput receives every log line. Commands that print results to stdout
// keep logs on stderr.
var LogOutput io.Writer = os.Stderr

// CreateLogger is the logger.Factory installed by InitLoggers.
func CreateLogger(pkgName string) logger.ILogger {
	return &mctlLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: log.New(LogOutput, "", log.Ldate|log.Ltime),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a level name to logger.LogLevel.
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// Loggers names every package logger of the module.
var Loggers = []string{"ctl", "engine", "sim", "jemalloc", "exporter", "cmd"}

var factoryOnce sync.Once

// InitLoggers installs the custom format and sets the level of every package
// logger.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	factoryOnce.Do(func() { logger.SetLoggerFactory(CreateLogger) })
	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
