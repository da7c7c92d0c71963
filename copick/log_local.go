package copick

import (
	"fmt"
	"log"

	"github.com/natefinch/lumberjack"
)

// LogConfig is the [logging] section of the server TOML file.  An empty
// Logfile sends messages to stderr.
type LogConfig struct {
	Logfile string
	Level   string
	MaxSize int `toml:"max_log_size"` // megabytes
	MaxAge  int `toml:"max_log_age"`  // days
}

// prefixLogger writes through the standard log package with a severity tag.
type prefixLogger struct {
	file *lumberjack.Logger
}

var logger Logger = prefixLogger{}

// SetLogger applies the configured level and, if a log file is named, routes
// all output to it with size and age based rotation.
func (c *LogConfig) SetLogger() {
	if c == nil {
		return
	}
	if c.Level != "" {
		m, err := ParseModeFlag(c.Level)
		if err != nil {
			Warningf("Ignoring [logging] level: %v\n", err)
		} else {
			SetLogMode(m)
		}
	}
	if c.Logfile == "" {
		Infof("No log file configured; logging to stderr.\n")
		return
	}
	fmt.Printf("Logging to %s (max %d MB, %d days)\n", c.Logfile, c.MaxSize, c.MaxAge)
	f := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(f)
	logger = prefixLogger{f}
}

func (p prefixLogger) Debugf(format string, args ...interface{}) {
	log.Printf(" DEBUG "+format, args...)
}

func (p prefixLogger) Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

func (p prefixLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

func (p prefixLogger) Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

func (p prefixLogger) Criticalf(format string, args ...interface{}) {
	log.Printf(" CRITICAL "+format, args...)
}

func (p prefixLogger) Shutdown() {
	if p.file == nil {
		return
	}
	log.Printf(" INFO closing log file %s\n", p.file.Filename)
	p.file.Close()
}
