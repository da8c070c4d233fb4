// Package logger builds the zap logger shared by every component.
package logger

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mole/internal/config"
)

// Logger is a zap logger whose level can change while it runs.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Build creates a logger writing to w with the configured level and encoding.
func Build(s config.LogSettings, w zapcore.WriteSyncer) (*Logger, error) {
	level, err := zap.ParseAtomicLevel(s.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)
	if s.Encoding == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, w, level)
	return &Logger{Logger: zap.New(core), level: level}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// SetLevel changes the level dynamically.
func (l *Logger) SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	if lvl != l.level.Level() {
		l.level.SetLevel(lvl)
		l.Info("log level updated", zap.String("value", level))
	}
	return nil
}

// Watch reloads log.level whenever the settings file behind v changes.
func (l *Logger) Watch(v *viper.Viper) {
	v.OnConfigChange(l.onConfigChange(v))
	v.WatchConfig()
}

func (l *Logger) onConfigChange(v *viper.Viper) func(fsnotify.Event) {
	return func(in fsnotify.Event) {
		if in.Op&fsnotify.Create != 0 {
			return
		}
		if err := l.SetLevel(v.GetString("log.level")); err != nil {
			l.Error("couldn't parse level", zap.Error(err))
		}
	}
}
