package observe

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap logs events with the given zap.Logger.
// Computed results are logged at info, cache hits and shared flights at debug,
// failures and rejected keys at warn.
func NewZap(logger *zap.Logger) Observer {
	return zapObserver{logger: logger}
}

// NewTest returns a zap observer writing human readable lines to stdout.
func NewTest() Observer {
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)
	return NewZap(zap.New(consoleCore))
}

type zapObserver struct {
	logger *zap.Logger
}

func (z zapObserver) On(e Event) {
	fields := []zap.Field{
		zap.String("memoizer", e.Name),
		zap.String("memoizer_id", e.MemoizerID),
		zap.String("key", e.Key),
		zap.Duration("duration", e.Duration),
	}

	switch e.Kind {
	case KindComputed:
		z.logger.Info("computed result", fields...)
	case KindCached:
		z.logger.Debug("served from cache", fields...)
	case KindShared:
		z.logger.Debug("shared in-flight result", fields...)
	case KindFailed:
		z.logger.Warn("operation failed", append(fields, zap.Error(e.Err))...)
	case KindRejected:
		z.logger.Warn("cannot derive key", append(fields, zap.Error(e.Err))...)
	default:
		z.logger.Info("memoized call", append(fields, zap.String("kind", string(e.Kind)))...)
	}
}

// Close flushes the logger. A failed sync is logged, not returned: syncing a
// terminal fails on most platforms and callers cannot act on it.
func (z zapObserver) Close() error {
	if err := z.logger.Sync(); err != nil {
		z.logger.Warn("failed to sync logger", zap.Error(err))
	}
	return nil
}
