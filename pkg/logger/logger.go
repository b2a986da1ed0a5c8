// Package logger 提供基于 zap 的日志工具
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level 日志级别
//
// zap 在 Info 和 Warn 之间没有空位，因此整个刻度整体下移一格，
// NOTIFY 占用 zap 的 Info 位置，由自定义的级别编码器输出本引擎的级别名。
type Level int8

const (
	DebugLevel  = Level(zapcore.DebugLevel - 1)
	InfoLevel   = Level(zapcore.DebugLevel)
	NotifyLevel = Level(zapcore.InfoLevel)
	WarnLevel   = Level(zapcore.WarnLevel)
	ErrorLevel  = Level(zapcore.ErrorLevel)
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case NotifyLevel:
		return "notify"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// CapitalString returns the upper-case level name used in log output.
func (l Level) CapitalString() string {
	return strings.ToUpper(l.String())
}

// ZapLevel returns the zap level l is written at. Because the scale is
// shifted, InfoLevel.ZapLevel() is zapcore.DebugLevel and NotifyLevel.ZapLevel()
// is zapcore.InfoLevel; gate foreign cores with this, not zap's level names.
func (l Level) ZapLevel() zapcore.Level {
	return zapcore.Level(l)
}

// ParseLevel 从字符串解析日志级别
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "", "notify":
		return NotifyLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return NotifyLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Config 日志配置，进程启动时显式传给 New。
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console 或 json
	Output string `yaml:"output"` // stderr, stdout 或文件路径
}

// DefaultConfig returns the configuration used by the CLI when nothing is set.
func DefaultConfig() Config {
	return Config{
		Level:  "notify",
		Format: "console",
		Output: "stderr",
	}
}

// Logger wraps a zap logger and adds the NOTIFY level.
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

// New 根据配置创建日志记录器
func New(cfg Config) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("open log output %s: %w", output, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = encodeLevel

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	atom := zap.NewAtomicLevelAt(lvl.ZapLevel())
	core := zapcore.NewCore(enc, sink, atom)
	return &Logger{z: zap.New(core), level: atom}, nil
}

// NewFromCore builds a Logger on top of an existing zap core.
// Tests use it with zaptest/observer.
//
// The core sees entries at the shifted zap levels (see Level): a core built
// with zapcore.InfoLevel drops everything below NotifyLevel. Build the core
// with lvl.ZapLevel() or an all-levels enabler.
func NewFromCore(core zapcore.Core, lvl Level) *Logger {
	atom := zap.NewAtomicLevelAt(lvl.ZapLevel())
	return &Logger{z: zap.New(&levelCore{Core: core, level: atom}), level: atom}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop(), level: zap.NewAtomicLevelAt(ErrorLevel.ZapLevel())}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(Level(l).CapitalString())
}

// levelCore gates an arbitrary core by the logger's own threshold.
type levelCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *levelCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l) && c.Core.Enabled(l)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

// Level 返回当前日志级别
func (l *Logger) Level() Level {
	return Level(l.level.Level())
}

// SetLevel 修改该记录器及其派生记录器的级别
func (l *Logger) SetLevel(lvl Level) {
	l.level.SetLevel(lvl.ZapLevel())
}

// Enabled reports whether lvl would be written.
func (l *Logger) Enabled(lvl Level) bool {
	return l.level.Enabled(lvl.ZapLevel())
}

func (l *Logger) log(lvl Level, msg string, fields []zap.Field) {
	if ce := l.z.Check(lvl.ZapLevel(), msg); ce != nil {
		ce.Write(fields...)
	}
}

// Debug 输出调试日志
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.log(DebugLevel, msg, fields) }

// Info 输出信息日志
func (l *Logger) Info(msg string, fields ...zap.Field) { l.log(InfoLevel, msg, fields) }

// Notify 输出 NOTIFY 级别日志，用于面向用户的流水线进度信息
func (l *Logger) Notify(msg string, fields ...zap.Field) { l.log(NotifyLevel, msg, fields) }

// Warn 输出警告日志
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.log(WarnLevel, msg, fields) }

// Error 输出错误日志
func (l *Logger) Error(msg string, fields ...zap.Field) { l.log(ErrorLevel, msg, fields) }

// Named returns a child logger with the given name segment appended.
func (l *Logger) Named(name string) *Logger {
	return &Logger{z: l.z.Named(name), level: l.level}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...), level: l.level}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
