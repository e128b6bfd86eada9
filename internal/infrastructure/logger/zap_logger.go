package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	// Parse level
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		l = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(l)

	return config.Build()
}

// NewStrategyLogger builds a logger that writes to stderr and to the given
// strategy log file. The file uses console encoding so the watchdog's
// keyword scan sees plain text lines.
func NewStrategyLogger(level, logFile string) (*zap.Logger, error) {
	if logFile == "" {
		return NewLogger(level)
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	config := zap.NewProductionConfig()
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		l = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(l)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr", logFile}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// StrategyLogPath returns the per-strategy daily log file name the watchdog
// globs for: <dir>/<id>_<YYYY-MM-DD>_IST.log.
func StrategyLogPath(dir, strategyID string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_IST.log", strategyID, now.Format("2006-01-02")))
}
