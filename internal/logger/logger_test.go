package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"mole/internal/config"
	"mole/internal/logger"
)

func TestBuild_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.Build(config.LogSettings{Level: "warn", Encoding: "json"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected json warn entry, got: %s", out)
	}
}

func TestBuild_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.Build(config.LogSettings{Level: "info", Encoding: "console"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("hello")

	if !strings.Contains(buf.String(), "INFO\thello") {
		t.Errorf("expected console entry, got: %q", buf.String())
	}
}

func TestBuild_InvalidLevel(t *testing.T) {
	_, err := logger.Build(config.LogSettings{Level: "loud", Encoding: "json"}, zapcore.AddSync(&bytes.Buffer{}))
	if err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.Build(config.LogSettings{Level: "info", Encoding: "json"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := log.SetLevel("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("now visible")

	if log.Level() != zapcore.DebugLevel {
		t.Errorf("expected debug level, got %v", log.Level())
	}
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("expected debug entry after SetLevel, got: %s", buf.String())
	}
	if err := log.SetLevel("nope"); err == nil {
		t.Error("expected error for unknown level")
	}
}
