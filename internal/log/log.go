// Package log is a small leveled-logging helper, reconstructed from the
// call surface saferwall/pe exercises against its own log sub-package
// (NewStdLogger, NewHelper, NewFilter, FilterLevel) since that package's
// source was not part of the retrieval pack.
package log

import (
	"fmt"
	"io"
	"sync"
)

// Level is a logging severity.
type Level int

// Levels, lowest to highest severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes a single leveled, keyvals-style log line.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes plain lines to an io.Writer.
type stdLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdLogger returns a Logger that writes to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{w: w}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, "[%s] %s\n", level, formatKeyvals(keyvals))
	return err
}

func formatKeyvals(keyvals []interface{}) string {
	s := ""
	for i := 0; i < len(keyvals); i += 2 {
		if i > 0 {
			s += " "
		}
		if i+1 < len(keyvals) {
			s += fmt.Sprintf("%v=%v", keyvals[i], keyvals[i+1])
		} else {
			s += fmt.Sprintf("%v", keyvals[i])
		}
	}
	return s
}

// filter wraps a Logger and drops entries below a minimum level.
type filter struct {
	Logger
	level Level
}

// FilterOption configures a Filter.
type FilterOption func(*filter)

// FilterLevel sets the minimum level that passes through the filter.
func FilterLevel(level Level) FilterOption {
	return func(f *filter) {
		f.level = level
	}
}

// NewFilter wraps logger with level filtering.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filter{Logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.Logger.Log(level, keyvals...)
}

// Helper provides leveled convenience methods over a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper. A nil logger is a valid, silent Helper.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, keyvals ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	_ = h.logger.Log(level, keyvals...)
}

// Debugf logs a formatted debug message.
func (h *Helper) Debugf(format string, args ...interface{}) {
	h.log(LevelDebug, "msg", fmt.Sprintf(format, args...))
}

// Infof logs a formatted info message.
func (h *Helper) Infof(format string, args ...interface{}) {
	h.log(LevelInfo, "msg", fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning message.
func (h *Helper) Warnf(format string, args ...interface{}) {
	h.log(LevelWarn, "msg", fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error message.
func (h *Helper) Errorf(format string, args ...interface{}) {
	h.log(LevelError, "msg", fmt.Sprintf(format, args...))
}
