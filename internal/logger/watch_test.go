package logger

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

func TestOnConfigChange(t *testing.T) {
	l := Nop()
	v := viper.New()
	v.Set("log.level", "error")

	l.onConfigChange(v)(fsnotify.Event{Name: "config.yaml", Op: fsnotify.Create})
	if l.Level() != zapcore.InfoLevel {
		t.Errorf("create events must be ignored, level is %v", l.Level())
	}

	l.onConfigChange(v)(fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write})
	if l.Level() != zapcore.ErrorLevel {
		t.Errorf("expected error level after write, got %v", l.Level())
	}

	v.Set("log.level", "garbage")
	l.onConfigChange(v)(fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write})
	if l.Level() != zapcore.ErrorLevel {
		t.Errorf("invalid level must leave level unchanged, got %v", l.Level())
	}
}
