package jni

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// Logger returns the package logger. It is a no-op logger by default.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger installs a logger used for diagnostics, most importantly
// the context dumped immediately before a contract-violation panic.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// fatal reports a programmer-contract violation. These never propagate
// as error values: the runtime is in an unspecified state, so after
// best-effort diagnostics the operation terminates the program.
func fatal(msg string, fields ...zap.Field) {
	Logger().Error(msg, fields...)
	panic("jni: " + msg)
}
