// Package logger holds the process-wide zap logger used by the bake pipeline.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the shared logger. It discards everything until Init or InitDebug runs.
var Log = zap.NewNop()

var once sync.Once

// Init builds the production logger. Subsequent calls are no-ops.
func Init() {
	initWith(zap.NewProductionConfig())
}

// InitDebug builds a development logger with debug level enabled.
func InitDebug() {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	initWith(config)
}

func initWith(config zap.Config) {
	once.Do(func() {
		built, err := config.Build()
		if err != nil {
			// Keep the no-op logger, the pipeline never depends on log output
			return
		}
		Log = built
	})
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}
