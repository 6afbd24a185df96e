package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&buf, "warn", "cli-test")

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	slog.Error("via default")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.Contains(out, "component=cli-test") || !strings.Contains(out, "k=v") {
		t.Errorf("missing attributes: %s", out)
	}
	if !strings.Contains(out, "via default") {
		t.Errorf("default logger not installed: %s", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Errorf("default logger should not carry the binary component: %s", out)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("PORT", "9000")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9000" || cfg.StoreBackend != "memory" {
		t.Errorf("LoadConfig() = %+v", cfg)
	}

	t.Setenv("PORT", "nope")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected validation error")
	}
}

func TestShutdown(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&buf, "info", "cli-test")

	called := false
	Shutdown(logger, time.Second, func(ctx context.Context) error {
		called = true
		if _, ok := ctx.Deadline(); !ok {
			t.Error("stop context has no deadline")
		}
		return nil
	})
	if !called {
		t.Fatal("stop not called")
	}
	if !strings.Contains(buf.String(), "Shutdown complete") {
		t.Errorf("log = %s", buf.String())
	}
}
