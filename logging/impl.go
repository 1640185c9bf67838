package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
	// context attached through With; written ahead of each entry's own fields
	context []zapcore.Field
}

func (imp *impl) Sublogger(subname string) Logger {
	child := imp.clone()
	child.name = subname
	if imp.name != "" {
		child.name = imp.name + "." + subname
	}
	child.level = NewAtomicLevelAt(imp.level.Get())
	return child
}

func (imp *impl) With(keysAndValues ...interface{}) Logger {
	child := imp.clone()
	child.context = append(child.context, toFields(keysAndValues)...)
	return child
}

// clone shares the appenders and the level with the parent.
func (imp *impl) clone() *impl {
	return &impl{
		name:      imp.name,
		level:     imp.level,
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
		context:   imp.context[:len(imp.context):len(imp.context)],
	}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) Level() Level {
	return imp.level.Get()
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.write(DEBUG, msg, keysAndValues)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.write(INFO, msg, keysAndValues)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.write(WARN, msg, keysAndValues)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.write(ERROR, msg, keysAndValues)
}

// Fatalw logs as an error and exits the process.
func (imp *impl) Fatalw(msg string, keysAndValues ...interface{}) {
	imp.write(ERROR, msg, keysAndValues)
	os.Exit(1)
}

func (imp *impl) write(level Level, msg string, keysAndValues []interface{}) {
	if level < imp.level.Get() {
		return
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     entryCaller(),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	fields := append(imp.context[:len(imp.context):len(imp.context)], toFields(keysAndValues)...)

	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Write(entry, fields))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// toFields pairs up alternating keys and values. A trailing key without a value is kept with an
// error in its place so the mistake shows up in the output.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// entryCaller reports the code that called one of the logging methods.
func entryCaller() zapcore.EntryCaller {
	// entryCaller, write, the exported method, its caller
	const skip = 3
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.NewEntryCaller(pc, file, line, true)
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
