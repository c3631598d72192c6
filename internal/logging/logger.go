package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "?"
	}
}

// Logger defines a minimal, printf-style logging contract so packages can
// depend on this interface without caring where output lands.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

var (
	rootInstance *fileLogger
	rootOnce     sync.Once
)

// fileLogger writes formatted records to supervisor-debug.log in the user's
// home directory. All component loggers share the same file handle.
type fileLogger struct {
	file      *os.File
	out       *log.Logger
	component string

	mu    sync.Mutex
	level Level
}

func root() *fileLogger {
	rootOnce.Do(func() {
		rootInstance = newFileLogger()
	})
	return rootInstance
}

func newFileLogger() *fileLogger {
	l := &fileLogger{level: INFO}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("logging: no home directory: %v", err)
		return l
	}
	path := filepath.Join(home, "supervisor-debug.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("logging: open %s: %v", path, err)
		return l
	}
	l.file = file
	l.out = log.New(file, "", 0)
	return l
}

// NewComponentLogger returns the shared file logger scoped to a component.
func NewComponentLogger(component string) Logger {
	base := root()
	return &fileLogger{
		file:      base.file,
		out:       base.out,
		level:     base.level,
		component: component,
	}
}

// SetLevel sets the minimum level for the shared logger. Component loggers
// created afterwards inherit it.
func SetLevel(level Level) {
	l := root()
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Close closes the shared log file.
func Close() error {
	l := root()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *fileLogger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	min := l.level
	l.mu.Unlock()
	if level < min || l.out == nil {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	msg := fmt.Sprintf(format, args...)
	prefix := ""
	if l.component != "" {
		prefix = "[" + l.component + "] "
	}
	l.out.Printf("%s %-5s %s:%d %s%s",
		time.Now().Format("2006-01-02 15:04:05.000"), level, file, line, prefix, msg)
}

func (l *fileLogger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.log(ERROR, format, args...) }
