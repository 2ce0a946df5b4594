// Package logger is the printf-style logging facade the portal client,
// the dashboard and the ssh helpers write through. Everything is backed by
// zap. The dashboard owns the terminal while it runs, so the real sink is
// a JSON-lines file rather than stderr.
package logger

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// DebugEnv turns on debug-level output when set to anything.
const DebugEnv = "PORTALCTL_DEBUG"

// Logger takes fmt-style format strings.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type sugared struct{ s *zap.SugaredLogger }

func (l sugared) Debug(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l sugared) Info(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l sugared) Warn(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l sugared) Error(format string, args ...interface{}) { l.s.Errorf(format, args...) }

// NewZap adapts a zap logger.
func NewZap(l *zap.Logger) Logger { return sugared{s: l.Sugar()} }

// Noop discards everything.
func Noop() Logger { return NewZap(zap.NewNop()) }

func fileLevel() zapcore.Level {
	if os.Getenv(DebugEnv) != "" {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// NewFile appends JSON lines to path, creating its directory. The close
// function syncs and closes the file.
func NewFile(path, name string) (Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	zl := zap.New(
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(f), fileLevel()),
		zap.AddCaller(), zap.AddCallerSkip(1),
	).Named(name)

	return NewZap(zl), func() error {
		_ = zl.Sync()
		return f.Close()
	}, nil
}

// LogMessage is one captured entry.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger keeps every entry in memory for tests. It records at debug
// level and is safe to use from tea.Cmd goroutines.
type BufferLogger struct {
	Logger
	logs *observer.ObservedLogs
}

// NewBufferLogger returns an empty BufferLogger.
func NewBufferLogger() *BufferLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &BufferLogger{Logger: NewZap(zap.New(core)), logs: logs}
}

// Messages returns the captured entries, oldest first.
func (b *BufferLogger) Messages() []LogMessage {
	entries := b.logs.All()
	out := make([]LogMessage, len(entries))
	for i, e := range entries {
		out[i] = LogMessage{Level: e.Level.String(), Message: e.Message}
	}
	return out
}

// HasLevel reports whether anything was logged at level ("debug", "warn", ...).
func (b *BufferLogger) HasLevel(level string) bool {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return false
	}
	return b.logs.FilterLevelExact(lvl).Len() > 0
}

// Clear drops the captured entries.
func (b *BufferLogger) Clear() { b.logs.TakeAll() }

var current atomic.Pointer[Logger]

// Default is the process-wide logger used where no logger is injected,
// such as ssh_config parsing. It discards until SetDefault is called.
func Default() Logger {
	if l := current.Load(); l != nil {
		return *l
	}
	return Noop()
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) { current.Store(&l) }
