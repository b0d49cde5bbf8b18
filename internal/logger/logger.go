package logger

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init installs the process-wide JSON logger at the given level
// ("debug", "info", "warn", "error"). An empty level means info.
func Init(level string) error {
	if level == "" {
		level = "info"
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger: invalid level %q: %w", level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		lvl,
	)

	global.Store(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	Info("logger initialized", map[string]any{"level": lvl.String()})
	return nil
}

// Set replaces the global logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	global.Store(l)
}

func Debug(msg string, fields map[string]any) {
	global.Load().Debug(msg, toFields(fields)...)
}

func Info(msg string, fields map[string]any) {
	global.Load().Info(msg, toFields(fields)...)
}

func Warn(msg string, fields map[string]any) {
	global.Load().Warn(msg, toFields(fields)...)
}

func Error(msg string, fields map[string]any) {
	global.Load().Error(msg, toFields(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	global.Load().Fatal(msg, toFields(fields)...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = global.Load().Sync()
}

func toFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
