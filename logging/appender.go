package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the timestamp layout shared by all appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. A zapcore.Core satisfies this interface.
type Appender interface {
	// Write outputs the log entry to the underlying stream.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync flushes any buffered entries.
	Sync() error
}

// ConsoleAppender writes tab delimited log lines to a writer.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to the given writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// Write outputs the log entry as one line.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatLine(entry, fields)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(appender.Writer, line)
	return err
}

// formatLine renders "<time>\t<LEVEL>\t[name\t]<caller>\t<msg>[\t<json fields>]". When the fields
// cannot be encoded the line is returned without them, along with the error.
func formatLine(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	parts := []string{entry.Time.Format(DefaultTimeFormatStr), strings.ToUpper(entry.Level.String())}
	if entry.LoggerName != "" {
		parts = append(parts, entry.LoggerName)
	}
	if entry.Caller.Defined {
		parts = append(parts, entry.Caller.TrimmedPath())
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}
	encoded, err := encodeFields(fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	return strings.Join(append(parts, encoded), "\t"), nil
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// Use zap's json encoder which will encode our slice of fields in-order. Call it with an empty
// Entry object such that only the fields become "map-ified".
func encodeFields(fields []zapcore.Field) (string, error) {
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return "", err
	}
	defer buf.Free()
	return buf.String(), nil
}
