package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender writes through tb.Log so lines stay attached to the test that produced them.
type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that logs to the given test object.
func NewTestAppender(tb testing.TB) Appender {
	return testAppender{tb}
}

func (tapp testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	line, err := formatLine(entry, fields)
	tapp.tb.Log(line)
	return err
}

func (tapp testAppender) Sync() error {
	return nil
}
