// Package logging provides config-driven categorized logging for gen1.
// Every category is a named child of one zap logger. Until Configure or
// SetLogger is called all categories write to a no-op core, so library code
// can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot         Category = "boot"         // Boot/initialization
	CategorySession      Category = "session"      // Project session load/commit
	CategoryStore        Category = "store"        // SQLite key-value persistence
	CategoryVFS          Category = "vfs"          // Virtual file store mutations
	CategoryArticulation Category = "articulation" // Assistant output -> segments
	CategoryActions      Category = "actions"      // Schema registry and validation
	CategoryExecutor     Category = "executor"     // Action dispatch
	CategoryRemote       Category = "remote"       // GitHub REST calls, push/pull
	CategoryDocgen       Category = "docgen"       // Document generation
	CategoryConfig       Category = "config"       // Config loading
	CategoryCLI          Category = "cli"          // Command line front end
	CategoryPerformance  Category = "performance"  // Slow operations
)

// Options mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // empty means stderr
	DebugMode  bool            // forces debug level
	Categories map[string]bool // missing categories are enabled
}

// Logger wraps a named sugared zap logger for one category.
type Logger struct {
	category Category
	zl       *zap.Logger
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
)

// Configure builds the process logger from opts.
func Configure(o Options) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(o.Format, "console") || strings.EqualFold(o.Format, "text") {
		cfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if o.Level != "" {
		parsed, err := zapcore.ParseLevel(o.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", o.Level, err)
		}
		level = parsed
	}
	if o.DebugMode {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if o.File != "" {
		if err := os.MkdirAll(filepath.Dir(o.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{o.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	setLogger(l, o)

	Boot("logging configured: level=%s format=%s file=%q", level, cfg.Encoding, o.File)
	return nil
}

// SetLogger installs an existing zap logger, e.g. the CLI root logger or a
// zaptest logger. All categories are enabled.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	setLogger(l, Options{})
}

func setLogger(l *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	opts = o
	loggers = make(map[Category]*Logger)
}

// Reset returns to the no-op logger.
func Reset() {
	SetLogger(nil)
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	l := base
	mu.RUnlock()
	return l.Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	enabled := IsCategoryEnabled(category)

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	zl := zap.NewNop()
	if enabled {
		zl = base.Named(string(category))
	}
	l := &Logger{category: category, zl: zl, sugar: zl.Sugar()}
	loggers[category] = l
	return l
}

// Zap exposes the structured logger for call sites that want typed fields.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// With returns a structured logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *zap.Logger {
	return l.zl.With(fields...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// =============================================================================
// Category helpers
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Session(format string, args ...interface{})      { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }
func SessionWarn(format string, args ...interface{})  { Get(CategorySession).Warn(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})  { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

func VFS(format string, args ...interface{})      { Get(CategoryVFS).Info(format, args...) }
func VFSDebug(format string, args ...interface{}) { Get(CategoryVFS).Debug(format, args...) }

func Articulation(format string, args ...interface{})      { Get(CategoryArticulation).Info(format, args...) }
func ArticulationDebug(format string, args ...interface{}) { Get(CategoryArticulation).Debug(format, args...) }
func ArticulationWarn(format string, args ...interface{})  { Get(CategoryArticulation).Warn(format, args...) }

func ActionsDebug(format string, args ...interface{}) { Get(CategoryActions).Debug(format, args...) }

func Executor(format string, args ...interface{})      { Get(CategoryExecutor).Info(format, args...) }
func ExecutorDebug(format string, args ...interface{}) { Get(CategoryExecutor).Debug(format, args...) }
func ExecutorWarn(format string, args ...interface{})  { Get(CategoryExecutor).Warn(format, args...) }
func ExecutorError(format string, args ...interface{}) { Get(CategoryExecutor).Error(format, args...) }

func Remote(format string, args ...interface{})      { Get(CategoryRemote).Info(format, args...) }
func RemoteDebug(format string, args ...interface{}) { Get(CategoryRemote).Debug(format, args...) }
func RemoteWarn(format string, args ...interface{})  { Get(CategoryRemote).Warn(format, args...) }
func RemoteError(format string, args ...interface{}) { Get(CategoryRemote).Error(format, args...) }

func Docgen(format string, args ...interface{})      { Get(CategoryDocgen).Info(format, args...) }
func DocgenDebug(format string, args ...interface{}) { Get(CategoryDocgen).Debug(format, args...) }

func ConfigDebug(format string, args ...interface{}) { Get(CategoryConfig).Debug(format, args...) }

// =============================================================================
// Timers
// =============================================================================

// Timer measures one operation.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning on the performance category if the
// duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(CategoryPerformance).Warn("SLOW: %s/%s took %v (threshold %v)", t.category, t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
