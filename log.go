package evdvk

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is the diagnostic sink the backend reports through. Validation
// layer messages, skipped adapters and surface rebuilds all land here.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// CoreLog keeps one stdlib logger per severity.
type CoreLog struct {
	info_log  *log.Logger
	warn_log  *log.Logger
	error_log *log.Logger
}

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

// NewCoreLog writes every severity to w with INFO/WARNING/ERROR prefixes.
func NewCoreLog(w io.Writer) *CoreLog {
	return &CoreLog{
		info_log:  log.New(w, "INFO: ", logFlags),
		warn_log:  log.New(w, "WARNING: ", logFlags),
		error_log: log.New(w, "ERROR: ", logFlags),
	}
}

// NewFileLog appends each severity to its own file under dir
// (info_log.txt, warn_log.txt, error_log.txt).
func NewFileLog(dir string) (*CoreLog, error) {
	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	}
	info_file, err := open("info_log.txt")
	if err != nil {
		return nil, err
	}
	warn_file, err := open("warn_log.txt")
	if err != nil {
		info_file.Close()
		return nil, err
	}
	error_file, err := open("error_log.txt")
	if err != nil {
		info_file.Close()
		warn_file.Close()
		return nil, err
	}
	return &CoreLog{
		info_log:  log.New(info_file, "INFO: ", logFlags),
		warn_log:  log.New(warn_file, "WARNING: ", logFlags),
		error_log: log.New(error_file, "ERROR: ", logFlags),
	}, nil
}

func (c *CoreLog) Infof(format string, args ...interface{}) {
	c.info_log.Output(2, fmt.Sprintf(format, args...))
}

func (c *CoreLog) Warnf(format string, args ...interface{}) {
	c.warn_log.Output(2, fmt.Sprintf(format, args...))
}

func (c *CoreLog) Errorf(format string, args ...interface{}) {
	c.error_log.Output(2, fmt.Sprintf(format, args...))
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger routes backend diagnostics into a structured logger.
// A nil logger yields NopLogger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return slogLogger{l: l}
}

func (s slogLogger) log(level slog.Level, format string, args []interface{}) {
	if !s.l.Enabled(context.Background(), level) {
		return
	}
	s.l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (s slogLogger) Infof(format string, args ...interface{})  { s.log(slog.LevelInfo, format, args) }
func (s slogLogger) Warnf(format string, args ...interface{})  { s.log(slog.LevelWarn, format, args) }
func (s slogLogger) Errorf(format string, args ...interface{}) { s.log(slog.LevelError, format, args) }

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NopLogger discards everything.
func NopLogger() Logger { return nopLogger{} }
