package logging

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])
	if len(actualParts) == 4 {
		return
	}

	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[4]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[4]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newBufferLogger(buf *bytes.Buffer, level Level) *impl {
	return &impl{level: NewAtomicLevelAt(level), inUTC: true, appenders: []Appender{NewWriterAppender(buf)}}
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newBufferLogger(notStdout, DEBUG)

	logger.Infow("impl Info log")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:60	impl Info log`)

	logger.Infow("impl logw", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806Z	INFO	logging/impl_test.go:64	impl logw	{"key":"value"}`)

	logger.Warnw("BasicStruct", "implOneKey", "1val", "BasicStruct", BasicStruct{1, "alice"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129Z	WARN	logging/impl_test.go:68	BasicStruct	{"implOneKey":"1val","BasicStruct":{"X":1}}`)

	logger.Errorw("unpaired", "dangling")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129Z	ERROR	logging/impl_test.go:72	unpaired	{"dangling":"unpaired log key"}`)
}

func TestWithAddsContext(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newBufferLogger(notStdout, DEBUG)
	tracking := logger.With("phase", "tracking")
	returning := tracking.With("phase", "returning", "remaining", 3)

	tracking.Debugw("issuing primitive", "primitive", "straight_forward")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129Z	DEBUG	logging/impl_test.go:84	issuing primitive	{"phase":"tracking","primitive":"straight_forward"}`)

	// the parent is unchanged
	logger.Infow("plain")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129Z	INFO	logging/impl_test.go:89	plain`)

	returning.Infow("undo")
	line, err := notStdout.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldContainSubstring, `"remaining":3`)

	// context loggers share the level of their parent
	logger.SetLevel(ERROR)
	tracking.Warnw("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
	test.That(t, tracking.Level(), test.ShouldEqual, ERROR)
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newBufferLogger(notStdout, WARN)

	logger.Debugw("dropped")
	logger.Infow("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Errorw("kept")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "ERROR")

	logger.SetLevel(DEBUG)
	test.That(t, logger.Level(), test.ShouldEqual, DEBUG)

	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	nav := logger.Sublogger("navigation").With("phase", "searching")
	nav.Infow("transition", "from", "searching", "to", "tracking")

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "navigation")
	test.That(t, entries[0].ContextMap()["to"], test.ShouldEqual, "tracking")
	test.That(t, entries[0].ContextMap()["phase"], test.ShouldEqual, "searching")

	deeper := nav.Sublogger("returning")
	deeper.Debugw("replay")
	test.That(t, observed.All()[1].LoggerName, test.ShouldEqual, "navigation.returning")
	test.That(t, observed.All()[1].ContextMap()["phase"], test.ShouldEqual, "searching")

	// a sublogger's level is its own
	deeper.SetLevel(ERROR)
	nav.Debugw("still logged")
	test.That(t, observed.Len(), test.ShouldEqual, 3)
}
