package logging

import (
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

var globalRegistry = newRegistry()

// Registry tracks every named logger so level patterns from the settings file can be applied to
// loggers created before and after the patterns are loaded.
type Registry struct {
	mu        sync.RWMutex
	loggers   map[string]Logger
	logConfig []LoggerPatternConfig
}

func newRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]Logger),
	}
}

func (lr *Registry) deregisterLogger(name string) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	_, ok := lr.loggers[name]
	if ok {
		delete(lr.loggers, name)
	}
	return ok
}

func (lr *Registry) loggerNamed(name string) (Logger, bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok := lr.loggers[name]
	return logger, ok
}

// levelFor returns the level of the last pattern matching name. Callers hold the lock.
func (lr *Registry) levelFor(name string) (Level, bool, error) {
	var (
		level   Level
		matched bool
	)
	for _, lpc := range lr.logConfig {
		r, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
		if err != nil {
			return level, false, err
		}
		if !r.MatchString(name) {
			continue
		}
		if level, err = LevelFromString(lpc.Level); err != nil {
			return level, false, err
		}
		matched = true
	}
	return level, matched, nil
}

// UpdateConfig replaces the level patterns and re-levels every registered logger. Loggers no
// pattern matches go back to INFO. Invalid patterns are skipped with a warning.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	valid := make([]LoggerPatternConfig, 0, len(logConfig))
	for _, lpc := range logConfig {
		if !validatePattern(lpc.Pattern) {
			errorLogger.Warnw("failed to validate a pattern", "pattern", lpc.Pattern)
			continue
		}
		valid = append(valid, lpc)
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.logConfig = valid
	for name, logger := range lr.loggers {
		level, ok, err := lr.levelFor(name)
		if err != nil {
			return errors.Wrapf(err, "applying log patterns to %q", name)
		}
		if !ok {
			level = INFO
		}
		logger.SetLevel(level)
	}
	return nil
}

func (lr *Registry) getRegisteredLoggerNames() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	registeredNames := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		registeredNames = append(registeredNames, name)
	}
	return registeredNames
}

func (lr *Registry) getCurrentConfig() []LoggerPatternConfig {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.logConfig
}

// getOrRegister returns the logger already registered under name, or registers `logger` and
// levels it from the current patterns. Concurrent callers registering the same name all get the
// winner's logger.
func (lr *Registry) getOrRegister(name string, logger Logger) Logger {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if existingLogger, ok := lr.loggers[name]; ok {
		return existingLogger
	}

	lr.loggers[name] = logger
	if level, ok, err := lr.levelFor(name); err == nil && ok {
		logger.SetLevel(level)
	}
	return logger
}

// UpdateLoggerPatterns applies level patterns to every logger created through NewLogger or
// Sublogger.
func UpdateLoggerPatterns(patterns []LoggerPatternConfig, errorLogger Logger) error {
	return globalRegistry.UpdateConfig(patterns, errorLogger)
}
