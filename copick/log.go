package copick

import (
	"fmt"
	"strings"
	"time"
)

// ModeFlag is a logging severity.  Messages below the current mode are dropped.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var modeNames = [...]string{"debug", "info", "warning", "error", "critical", "silent"}

func (m ModeFlag) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint(m))
}

// ParseModeFlag returns the mode for a level name such as "info" or "WARNING".
func ParseModeFlag(s string) (ModeFlag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return ModeFlag(i), nil
		}
	}
	return InfoMode, fmt.Errorf("unknown log level %q", s)
}

var (
	// Verbose forces debug messages regardless of the mode.
	Verbose bool

	mode = InfoMode
)

// Logger is the sink for leveled messages.  Each method takes a format
// analogous to fmt.Printf.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	// Shutdown flushes and closes any log file.
	Shutdown()
}

// SetLogMode sets the minimum severity that is printed, e.g.,
// SetLogMode(copick.WarningMode) keeps warnings, errors and critical messages.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

// LogMode returns the current severity threshold.
func LogMode() ModeFlag {
	return mode
}

func enabled(level ModeFlag) bool {
	if level == DebugMode && Verbose {
		return true
	}
	return mode <= level
}

func logTo(l Logger, level ModeFlag, format string, args ...interface{}) {
	if !enabled(level) {
		return
	}
	switch level {
	case DebugMode:
		l.Debugf(format, args...)
	case InfoMode:
		l.Infof(format, args...)
	case WarningMode:
		l.Warningf(format, args...)
	case ErrorMode:
		l.Errorf(format, args...)
	default:
		l.Criticalf(format, args...)
	}
}

func Debugf(format string, args ...interface{})    { logTo(logger, DebugMode, format, args...) }
func Infof(format string, args ...interface{})     { logTo(logger, InfoMode, format, args...) }
func Warningf(format string, args ...interface{})  { logTo(logger, WarningMode, format, args...) }
func Errorf(format string, args ...interface{})    { logTo(logger, ErrorMode, format, args...) }
func Criticalf(format string, args ...interface{}) { logTo(logger, CriticalMode, format, args...) }

// Shutdown closes any log file in use.
func Shutdown() {
	logger.Shutdown()
}

// TimeLog appends the time elapsed since its creation to every message:
//
//	timedLog := copick.NewTimeLog()
//	...
//	timedLog.Infof("PUT %s", path)   // "PUT /TS_001/Picks/...: 1.2ms"
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{time.Now()}
}

// Elapsed returns the time since the TimeLog was created.
func (t TimeLog) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t TimeLog) logf(level ModeFlag, format string, args ...interface{}) {
	if !enabled(level) {
		return
	}
	logTo(logger, level, format+": %s\n", append(args, t.Elapsed())...)
}

func (t TimeLog) Debugf(format string, args ...interface{})    { t.logf(DebugMode, format, args...) }
func (t TimeLog) Infof(format string, args ...interface{})     { t.logf(InfoMode, format, args...) }
func (t TimeLog) Warningf(format string, args ...interface{})  { t.logf(WarningMode, format, args...) }
func (t TimeLog) Errorf(format string, args ...interface{})    { t.logf(ErrorMode, format, args...) }
func (t TimeLog) Criticalf(format string, args ...interface{}) { t.logf(CriticalMode, format, args...) }
