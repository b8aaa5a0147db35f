package log

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// ContextTracerKey is the key used for the context key/value storage.
type ContextTracerKey struct{}

// ContextTracer is attached to a context in order bind logs to a context.
type ContextTracer struct {
	sync.Mutex
	actions []*Action
}

// Action is a log message collected by a tracer.
type Action struct {
	timestamp time.Time
	level     Severity
	msg       string
	file      string
	line      int
}

var key = ContextTracerKey{}

// AddTracer adds a ContextTracer to the returned Context. Will return a nil ContextTracer if logging level is not set to trace. Will return a nil ContextTracer if one already exists. Will return a nil ContextTracer in case of an error. Will return a nil context if nil.
func AddTracer(ctx context.Context) (context.Context, *ContextTracer) {
	if ctx != nil && fastcheck(TraceLevel) {
		// check pkg levels
		if _, ok := ctx.Value(key).(*ContextTracer); !ok {
			tracer := &ContextTracer{}
			return context.WithValue(ctx, key, tracer), tracer
		}
	}
	return ctx, nil
}

// Tracer returns the ContextTracer previously added to the given Context.
func Tracer(ctx context.Context) *ContextTracer {
	if ctx != nil {
		tracer, ok := ctx.Value(key).(*ContextTracer)
		if ok {
			return tracer
		}
	}
	return nil
}

// Submit collected logs on the context for further processing/outputting. Does nothing if called on a nil ContextTracer.
func (tracer *ContextTracer) Submit(level Severity, msg string) {
	if tracer == nil {
		return
	}

	tracer.Lock()
	empty := len(tracer.actions) == 0
	tracer.Unlock()
	if empty {
		return
	}

	// Log the trace with the level of the most severe action, if higher.
	tracer.Lock()
	for _, action := range tracer.actions {
		if action.level > level {
			level = action.level
		}
	}
	tracer.Unlock()

	log(level, msg, tracer)
}

func (tracer *ContextTracer) logTrace(level Severity, msg string) {
	// get file and line
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = ""
		line = 0
	} else if len(file) > 3 {
		file = file[:len(file)-3]
	} else {
		file = ""
	}

	tracer.Lock()
	defer tracer.Unlock()
	tracer.actions = append(tracer.actions, &Action{
		timestamp: time.Now(),
		level:     level,
		msg:       msg,
		file:      file,
		line:      line,
	})
}

// Trace is used to log tiny steps. Log traces to context if you can!
func (tracer *ContextTracer) Trace(msg string) {
	switch {
	case tracer != nil:
		tracer.logTrace(TraceLevel, msg)
	case fastcheck(TraceLevel):
		log(TraceLevel, msg, nil)
	}
}

// Tracef is used to log tiny steps. Log traces to context if you can!
func (tracer *ContextTracer) Tracef(format string, things ...interface{}) {
	switch {
	case tracer != nil:
		tracer.logTrace(TraceLevel, fmt.Sprintf(format, things...))
	case fastcheck(TraceLevel):
		log(TraceLevel, fmt.Sprintf(format, things...), nil)
	}
}

// Debugf is used to log minor errors or unexpected events. These occurrences are usually not worth mentioning in itself, but they might hint at a bigger problem.
func (tracer *ContextTracer) Debugf(format string, things ...interface{}) {
	switch {
	case tracer != nil:
		tracer.logTrace(DebugLevel, fmt.Sprintf(format, things...))
	case fastcheck(DebugLevel):
		log(DebugLevel, fmt.Sprintf(format, things...), nil)
	}
}

// Warningf is used to log (potentially) bad events, but nothing broke (even a little) and there is no need to panic yet.
func (tracer *ContextTracer) Warningf(format string, things ...interface{}) {
	switch {
	case tracer != nil:
		tracer.logTrace(WarningLevel, fmt.Sprintf(format, things...))
	case fastcheck(WarningLevel):
		log(WarningLevel, fmt.Sprintf(format, things...), nil)
	}
}

// Errorf is used to log errors that break or impair functionality. The task/process may have to be aborted and tried again later. The system is still operational.
func (tracer *ContextTracer) Errorf(format string, things ...interface{}) {
	switch {
	case tracer != nil:
		tracer.logTrace(ErrorLevel, fmt.Sprintf(format, things...))
	case fastcheck(ErrorLevel):
		log(ErrorLevel, fmt.Sprintf(format, things...), nil)
	}
}
