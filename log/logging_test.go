package log

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.String()
}

// Tests in this file modify global state and must not run in parallel.

func TestLogging(t *testing.T) {
	out := &syncBuffer{}
	SetOutput(out)
	defer SetOutput(nil)
	defer SetLogLevel(InfoLevel)

	err := Start()
	assert.NoError(t, err, "start must succeed")
	assert.ErrorIs(t, Start(), ErrAlreadyStarted)

	SetLogLevel(TraceLevel)

	// log
	Trace("Trace")
	Debug("Debug")
	Info("Info")
	Warning("Warning")
	Error("Error")
	Critical("Critical")

	// logf
	Tracef("Trace %s", "f")
	Debugf("Debug %s", "f")
	Infof("Info %s", "f")
	Warningf("Warning %s", "f")
	Errorf("Error %s", "f")
	Criticalf("Critical %s", "f")

	// play with levels
	SetLogLevel(CriticalLevel)
	assert.Equal(t, CriticalLevel, GetLogLevel())
	Warning("filtered warning")
	SetLogLevel(TraceLevel)

	// log invalid level
	log(0xFF, "msg", nil)

	// flush everything
	Shutdown()

	written := out.String()
	for _, expected := range []string{"TRAC", "DEBU", "INFO", "WARN", "ERRO", "CRIT", "Critical f"} {
		assert.Contains(t, written, expected)
	}
	assert.NotContains(t, written, "filtered warning")
	assert.Contains(t, written, "NONE")
}

func TestDirectWrite(t *testing.T) {
	out := &syncBuffer{}
	SetOutput(out)
	defer SetOutput(nil)

	Info("written without writer")
	assert.Contains(t, out.String(), "written without writer")
}

func TestDuplicates(t *testing.T) {
	assert.Equal(t, "", formatDuplicates(0))
	assert.Equal(t, " [3x]", formatDuplicates(2))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, WarningLevel, ParseLevel(" Warning"))
	assert.Equal(t, Severity(0), ParseLevel("loud"))
	assert.Equal(t, "DEBU", DebugLevel.String())
}

func TestContextTracer(t *testing.T) {
	out := &syncBuffer{}
	SetOutput(out)
	defer SetOutput(nil)
	SetLogLevel(TraceLevel)
	defer SetLogLevel(InfoLevel)

	ctx, tracer := AddTracer(context.Background())
	assert.NotNil(t, tracer)
	assert.Equal(t, tracer, Tracer(ctx))

	_, second := AddTracer(ctx)
	assert.Nil(t, second, "tracer must only be added once")

	Tracer(ctx).Trace("session: begin")
	Tracer(ctx).Tracef("session: saving %s", "route")
	Tracer(ctx).Warningf("session: transfer of %s", "10.0.0.0/8")
	Tracer(ctx).Submit(DebugLevel, "session: done")

	written := out.String()
	assert.Contains(t, written, "session: done")
	assert.Contains(t, written, "session: saving route")
	assert.True(t, strings.Contains(written, "WARN"), "trace must be logged with the most severe level")

	// nil tracer falls back to normal logging
	var nilTracer *ContextTracer
	nilTracer.Tracef("fallback %d", 1)
	nilTracer.Submit(InfoLevel, "ignored")
	assert.Contains(t, out.String(), "fallback 1")
}
