package main

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("TOKYO_SERVER_HOST", "")
	t.Setenv("TOKYO_API_KEY", "")
	t.Setenv("TOKYO_USER_NAME", "")

	core, logs := observer.New(zapcore.DebugLevel)
	err := run(options{Period: time.Second}, zap.New(core).Sugar())
	if err == nil {
		t.Fatalf("expected config error")
	}
	if !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("expected config error, got %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no logs before connecting, got %d", logs.Len())
	}
}

func TestRunRejectsInvalidPeriod(t *testing.T) {
	t.Setenv("TOKYO_SERVER_HOST", "127.0.0.1:1")
	t.Setenv("TOKYO_API_KEY", "k")
	t.Setenv("TOKYO_USER_NAME", "bot")
	t.Setenv("TOKYO_SECURE", "false")

	err := run(options{}, zap.NewNop().Sugar())
	if err == nil || !strings.HasPrefix(err.Error(), "game plan: ") {
		t.Fatalf("expected game plan error, got %v", err)
	}
}
