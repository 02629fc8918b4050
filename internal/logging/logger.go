// Package logging provides the leveled, named logger used across mqipc.
//
// The level is read from MQIPC_LOG_LEVEL (0=trace .. 5=silent) at startup and can be changed
// with SetLevel. Output goes to stderr so stdout stays reserved for protocol lines.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level orders log severities; NoPrint silences everything.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNoPrint
)

// EnvLevel is the environment variable consulted for the initial level.
const EnvLevel = "MQIPC_LOG_LEVEL"

var levelNames = []string{"trace", "debug", "info", "warn", "error", "silent"}

func (l Level) String() string {
	if l < LevelTrace || l > LevelNoPrint {
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// ParseLevel accepts a level name or its number.
func ParseLevel(s string) (Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(LevelTrace) || n > int(LevelNoPrint) {
			return LevelWarn, false
		}
		return Level(n), true
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return LevelWarn, false
}

// Config defines logger configuration.
type Config struct {
	Level       Level
	Development bool
}

// DefaultConfig starts at warn unless MQIPC_LOG_LEVEL says otherwise.
func DefaultConfig() Config {
	cfg := Config{Level: LevelWarn}
	if v := os.Getenv(EnvLevel); v != "" {
		if l, ok := ParseLevel(v); ok {
			cfg.Level = l
		}
	}
	return cfg
}

// Logger is a named logger sharing a level with its parent.
type Logger struct {
	name  string
	level *levelHolder
	sugar *zap.SugaredLogger
}

type levelHolder struct {
	v atomic.Int32
}

func (h *levelHolder) enabled(lvl Level) bool {
	return lvl >= Level(h.v.Load())
}

// New builds a stderr logger.
func New(cfg Config) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encCfg)
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return NewWithCore(core, cfg.Level)
}

// NewWithCore wraps an existing zap core, mostly for tests.
func NewWithCore(core zapcore.Core, lvl Level) *Logger {
	l := &Logger{
		level: &levelHolder{},
		sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}
	l.SetLevel(lvl)
	return l
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithCore(zapcore.NewNopCore(), LevelNoPrint)
}

// Named returns a child logger whose entries carry name.
func (l *Logger) Named(name string) *Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &Logger{name: full, level: l.level, sugar: l.sugar.Named(name)}
}

// Name is the dotted name of the logger.
func (l *Logger) Name() string {
	return l.name
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Logger) SetLevel(lvl Level) {
	if lvl < LevelTrace {
		lvl = LevelTrace
	}
	if lvl > LevelNoPrint {
		lvl = LevelNoPrint
	}
	l.level.v.Store(int32(lvl))
}

// Level reports the current level.
func (l *Logger) Level() Level {
	return Level(l.level.v.Load())
}

// Enabled reports whether entries at lvl are written.
func (l *Logger) Enabled(lvl Level) bool {
	return lvl < LevelNoPrint && l.level.enabled(lvl)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	if l.Enabled(LevelError) {
		l.sugar.Errorf(format, a...)
	}
}

func (l *Logger) Warnf(format string, a ...interface{}) {
	if l.Enabled(LevelWarn) {
		l.sugar.Warnf(format, a...)
	}
}

func (l *Logger) Infof(format string, a ...interface{}) {
	if l.Enabled(LevelInfo) {
		l.sugar.Infof(format, a...)
	}
}

func (l *Logger) Debugf(format string, a ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.sugar.Debugf(format, a...)
	}
}

// Tracef is written at zap's debug level with a trace marker field.
func (l *Logger) Tracef(format string, a ...interface{}) {
	if l.Enabled(LevelTrace) {
		l.sugar.With("trace", true).Debugf(format, a...)
	}
}

// Infow logs a message with structured key/value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	if l.Enabled(LevelInfo) {
		l.sugar.Infow(msg, keysAndValues...)
	}
}

// Warnw logs a message with structured key/value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	if l.Enabled(LevelWarn) {
		l.sugar.Warnw(msg, keysAndValues...)
	}
}
