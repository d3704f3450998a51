package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(true) returned nil logger")
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("development logger should enable debug")
		}
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(false) returned nil logger")
		}
		_ = logger.Sync()
	})
}

func TestNewLoggerLevel(t *testing.T) {
	logger, err := NewLoggerLevel(false, "warn")
	if err != nil {
		t.Fatalf("NewLoggerLevel(warn) error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("warn logger should not enable info")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn logger should enable warn")
	}
	if _, err := NewLoggerLevel(false, "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
