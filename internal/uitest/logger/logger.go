// Package logger provides the leveled, categorised log used by page objects.
// Messages are filtered by Level and by InfoType before reaching zap.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the verbosity threshold. Higher values log more.
type Level int

const (
	Off     Level = -1
	Fatal   Level = 0
	Error   Level = 3
	Warning Level = 4
	Info    Level = 6
	Debug   Level = 7
	All     Level = 100
)

// Allows reports whether a message at msg passes the threshold l.
func (l Level) Allows(msg Level) bool {
	return l != Off && msg <= l
}

func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Fatal:
		return "fatal"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case All:
		return "all"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel reads a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return Off, nil
	case "fatal":
		return Fatal, nil
	case "error":
		return Error, nil
	case "warning", "warn":
		return Warning, nil
	case "info", "":
		return Info, nil
	case "debug":
		return Debug, nil
	case "all", "trace":
		return All, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

// InfoType is the audience of a message. Values combine as a bit set.
type InfoType int

const (
	Business  InfoType = 1
	Framework InfoType = 2
	Technical InfoType = 4

	AllInfoTypes = Business | Framework | Technical
)

func (t InfoType) String() string {
	var names []string
	if t&Business != 0 {
		names = append(names, "business")
	}
	if t&Framework != 0 {
		names = append(names, "framework")
	}
	if t&Technical != 0 {
		names = append(names, "technical")
	}
	return strings.Join(names, "|")
}

// ParseInfoTypes combines info type names into a set.
func ParseInfoTypes(names ...string) (InfoType, error) {
	var set InfoType
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "business":
			set |= Business
		case "framework":
			set |= Framework
		case "technical":
			set |= Technical
		case "":
		default:
			return 0, fmt.Errorf("unknown log info type %q", n)
		}
	}
	return set, nil
}

// BusinessKind tags business messages by test lifecycle stage.
type BusinessKind string

const (
	KindInit BusinessKind = "init"
	KindSuit BusinessKind = "suit"
	KindTest BusinessKind = "test"
	KindStep BusinessKind = "step"
)

// Logger filters messages by level and info type and writes them to zap.
type Logger struct {
	z     *zap.Logger
	level Level
	types InfoType
}

// New wraps z. With no types given, all info types are logged.
func New(z *zap.Logger, level Level, types ...InfoType) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	l := &Logger{z: z, level: level}
	l.SetInfoTypes(types...)
	return l
}

// NewDevelopment builds a console logger at the given level.
func NewDevelopment(level Level) (*Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("create zap logger: %w", err)
	}
	return New(z, level), nil
}

// NewProduction builds a JSON logger at the given level.
func NewProduction(level Level) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("create zap logger: %w", err)
	}
	return New(z, level), nil
}

// Nop discards everything.
func Nop() *Logger {
	return New(zap.NewNop(), Off)
}

func (l *Logger) Level() Level        { return l.level }
func (l *Logger) InfoTypes() InfoType { return l.types }
func (l *Logger) Zap() *zap.Logger    { return l.z }

func (l *Logger) SetLevel(level Level) *Logger {
	l.level = level
	return l
}

// SetInfoTypes replaces the set of info types that are logged.
func (l *Logger) SetInfoTypes(types ...InfoType) *Logger {
	if len(types) == 0 {
		l.types = AllInfoTypes
		return l
	}
	l.types = 0
	for _, t := range types {
		l.types |= t
	}
	return l
}

// With returns a logger that adds fields to every message.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...), level: l.level, types: l.types}
}

func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) Init(msg string, args ...any) { l.business(KindInit, msg, args...) }
func (l *Logger) Suit(msg string, args ...any) { l.business(KindSuit, msg, args...) }
func (l *Logger) Test(msg string, args ...any) { l.business(KindTest, msg, args...) }
func (l *Logger) Step(msg string, args ...any) { l.business(KindStep, msg, args...) }

// Fatal logs a failure that ends the current test. It does not exit.
func (l *Logger) Fatal(msg string, args ...any) {
	l.write(Fatal, Business, zapcore.ErrorLevel, msg, args, zap.Bool("fatal", true))
}

func (l *Logger) Error(t InfoType, msg string, args ...any) {
	l.write(Error, t, zapcore.ErrorLevel, msg, args)
}

func (l *Logger) Warning(t InfoType, msg string, args ...any) {
	l.write(Warning, t, zapcore.WarnLevel, msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.write(Info, Framework, zapcore.InfoLevel, msg, args)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.write(Debug, Technical, zapcore.DebugLevel, msg, args)
}

// business messages pass any level but Off.
func (l *Logger) business(kind BusinessKind, msg string, args ...any) {
	l.write(Fatal, Business, zapcore.InfoLevel, msg, args, zap.String("kind", string(kind)))
}

// Enabled reports whether a message at level for any type in t would be
// written.
func (l *Logger) Enabled(level Level, t InfoType) bool {
	return l.level.Allows(level) && l.types&t != 0
}

func (l *Logger) write(level Level, t InfoType, zl zapcore.Level, msg string, args []any, extra ...zap.Field) {
	if !l.Enabled(level, t) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	fields := append([]zap.Field{zap.Stringer("info_type", t&l.types)}, extra...)
	if ce := l.z.Check(zl, msg); ce != nil {
		ce.Write(fields...)
	}
}
