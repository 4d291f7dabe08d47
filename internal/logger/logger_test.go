package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("local", "loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewLoggerWithFile_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "loader.log")

	l, err := NewLoggerWithFile("prod", "info", FileOptions{Path: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Info("run finished", zap.Int("loaded", 3))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"run finished"`) {
		t.Errorf("log file missing entry: %s", data)
	}
	if !strings.Contains(string(data), `"loaded":3`) {
		t.Errorf("log file missing field: %s", data)
	}
}

func TestForTransaction(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Named("base")

	ForTransaction(context.Background(), base, "").Info("no request")
	ForTransaction(context.Background(), base, "tx-1").Info("direct")
	reqCtx := WithRequestLogger(context.Background(), zap.New(core).Named("http"))
	ForTransaction(reqCtx, base, "tx-2").Info("over http")

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].LoggerName != "base" || len(entries[0].Context) != 0 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].LoggerName != "base" || entries[1].ContextMap()["transaction_id"] != "tx-1" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if entries[2].LoggerName != "http" || entries[2].ContextMap()["transaction_id"] != "tx-2" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
}
