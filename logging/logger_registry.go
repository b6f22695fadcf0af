package logging

import (
	"regexp"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// A Registry tracks named loggers so that level patterns from a config can be applied to them.
type Registry struct {
	mu        sync.RWMutex
	loggers   map[string]Logger
	logConfig []LoggerPatternConfig
}

// NewRegistry returns an empty logger registry.
func NewRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]Logger),
	}
}

// LoggerNamed returns the logger registered under the given name, if any.
func (lr *Registry) LoggerNamed(name string) (logger Logger, ok bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok = lr.loggers[name]
	return
}

// GetOrRegister will either:
//   - return an existing logger for the input logger `name` or
//   - register the input `logger` for the given logger `name` and configure it based on the
//     existing patterns.
func (lr *Registry) GetOrRegister(name string, logger Logger) Logger {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if existingLogger, ok := lr.loggers[name]; ok {
		return existingLogger
	}

	lr.loggers[name] = logger
	if level, ok := levelForName(lr.logConfig, name); ok {
		logger.SetLevel(level)
	}
	return logger
}

// UpdateConfig replaces the level patterns and reapplies them to every registered logger. Loggers
// no pattern matches are reset to INFO. Invalid patterns are skipped with a warning.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	valid := make([]LoggerPatternConfig, 0, len(logConfig))
	for _, lpc := range logConfig {
		if !validatePattern(lpc.Pattern) {
			errorLogger.Warnw("failed to validate a pattern", "pattern", lpc.Pattern)
			continue
		}
		if _, err := LevelFromString(lpc.Level); err != nil {
			return errors.Wrapf(err, "pattern %q", lpc.Pattern)
		}
		valid = append(valid, lpc)
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.logConfig = valid
	for name, logger := range lr.loggers {
		level, ok := levelForName(valid, name)
		if !ok {
			level = INFO
		}
		logger.SetLevel(level)
	}
	return nil
}

// Names returns the sorted names of all registered loggers.
func (lr *Registry) Names() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	names := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// levelForName returns the level of the last pattern matching name.
func levelForName(logConfig []LoggerPatternConfig, name string) (Level, bool) {
	var (
		level   Level
		matched bool
	)
	for _, lpc := range logConfig {
		r, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
		if err != nil || !r.MatchString(name) {
			continue
		}
		parsed, err := LevelFromString(lpc.Level)
		if err != nil {
			continue
		}
		level, matched = parsed, true
	}
	return level, matched
}
