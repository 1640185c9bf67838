// Package logging contains the leveled, appender based logger used across beaconbot.
package logging

import (
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	globalLogger   = NewLogger("beaconbot")
	errUnpairedKey = errors.New("unpaired log key")
)

// Global returns the process wide logger for code that runs before a logger can be handed in.
func Global() Logger {
	return globalLogger
}

// Logger is the logging interface handed to every component. Each method takes a message followed
// by alternating keys and values that are serialized as structured fields.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>" sharing the parent's appenders. Its
	// level starts at the parent's and is set independently afterwards.
	Sublogger(subname string) Logger
	// With returns a logger that adds the given fields to every entry, such as the mission phase.
	With(keysAndValues ...interface{}) Logger
	SetLevel(level Level)
	Level() Level
	Sync() error
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	return &impl{name: name, level: NewAtomicLevelAt(INFO), inUTC: true, appenders: []Appender{NewStdoutAppender()}}
}

// NewBlankLogger returns a new logger at Debug without any appenders.
func NewBlankLogger(name string) Logger {
	return &impl{name: name, level: NewAtomicLevelAt(DEBUG), inUTC: true}
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the test object in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	return &impl{
		level:     NewAtomicLevelAt(DEBUG),
		appenders: []Appender{NewTestAppender(tb), observerCore},
	}, observedLogs
}
