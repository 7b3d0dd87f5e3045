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

func TestNewQuietLogger(t *testing.T) {
	logger, err := NewQuietLogger()
	if err != nil {
		t.Fatalf("NewQuietLogger() error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("quiet logger should not log info")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("quiet logger should log warnings")
	}
}
