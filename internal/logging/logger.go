// Package logging provides categorized zap loggers for leafcheck.
// The TUI owns the terminal, so interactive sessions log to
// .leafcheck/logs/ and only when debug_mode is on; CLI commands install a
// stderr logger with Replace.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"leafcheck/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config loading
	CategorySession   Category = "session"   // Submission lifecycle
	CategoryTransport Category = "transport" // HTTP calls to the classifier
	CategoryUI        Category = "ui"        // TUI events
)

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	filter  *config.LoggingConfig // nil enables every category
	loggers = make(map[Category]*zap.SugaredLogger)
	logsDir string
)

// Initialize builds the file logger under dir/logs when cfg.DebugMode is set.
// Without debug mode every category stays a no-op.
func Initialize(dir string, cfg config.LoggingConfig) error {
	if dir == "" {
		return fmt.Errorf("log directory required")
	}
	if !cfg.DebugMode {
		return nil
	}

	logs := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logs, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	path := filepath.Join(logs, fmt.Sprintf("%s_leafcheck.log", time.Now().Format("2006-01-02")))

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zcfg.Encoding = "console"
	if cfg.Format == "json" {
		zcfg.Encoding = "json"
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Replace(l)

	mu.Lock()
	filter = &cfg
	logsDir = logs
	mu.Unlock()

	boot := Get(CategoryBoot)
	boot.Infow("logging initialized", "dir", logs, "level", cfg.Level)
	return nil
}

// Replace installs l as the root logger and enables every category.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	filter = nil
	logsDir = ""
	loggers = make(map[Category]*zap.SugaredLogger)
}

// Get returns the logger for a category. Disabled categories get a no-op logger.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	l, ok := loggers[category]
	enabled := isEnabled(category)
	mu.RUnlock()
	if ok {
		return l
	}
	if !enabled {
		return zap.NewNop().Sugar()
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l = base.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

// isEnabled must be called with mu held.
func isEnabled(category Category) bool {
	return filter == nil || filter.IsCategoryEnabled(string(category))
}

// LogsDir returns the directory log files are written to, if any.
func LogsDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return logsDir
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	l := base
	mu.RUnlock()
	return l.Sync()
}

// ParseLevel maps a config level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
