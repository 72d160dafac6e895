package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() {
	encCfg := zap.NewDevelopmentEncoderConfig()
	global.Store(zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel,
	)))
}

// L returns the process logger. Until the logger service starts it writes
// to stderr.
func L() *zap.Logger {
	return global.Load()
}

// SetGlobal replaces the process logger.
func SetGlobal(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// Audit records an operator-relevant event on the audit channel.
func Audit(msg string, fields ...zap.Field) {
	L().Named("audit").Info(msg, fields...)
}
