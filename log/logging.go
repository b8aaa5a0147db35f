package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool"
)

// concept
/*
- Logging function:
  - check if level is active
  - send data to backend via big buffered channel
- Backend:
  - wait until there are logs to write
  - write logs to the configured output
- Channel overbuffering protection:
  - if buffer is full, trigger write
- Before Start() and after Shutdown() lines are written directly.
*/

// Severity describes a log level.
type Severity uint32

type logLine struct {
	msg       string
	tracer    *ContextTracer
	level     Severity
	timestamp time.Time
	file      string
	line      int
}

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

var (
	logBuffer             chan *logLine
	forceEmptyingOfBuffer chan struct{}

	logLevelInt = uint32(InfoLevel)
	logLevel    = &logLevelInt

	logsWaiting     = make(chan struct{}, 1)
	logsWaitingFlag = abool.New()

	output     io.Writer = os.Stdout
	outputLock sync.Mutex

	shutdownSignal chan struct{}
	writerDone     chan struct{}
	started        = abool.New()

	// ErrAlreadyStarted is returned by Start if logging was already started.
	ErrAlreadyStarted = errors.New("logging already started")
)

// SetLogLevel sets a new log level.
func SetLogLevel(level Severity) {
	atomic.StoreUint32(logLevel, uint32(level))
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(atomic.LoadUint32(logLevel))
}

// ParseLevel returns the level for the given name, or 0 if it is unknown.
func ParseLevel(level string) Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// SetOutput sets the writer logs are written to. A nil writer resets to stdout.
func SetOutput(w io.Writer) {
	outputLock.Lock()
	defer outputLock.Unlock()

	if w == nil {
		w = os.Stdout
	}
	output = w
}

// Start starts the background log writer.
func Start() error {
	if !started.SetToIf(false, true) {
		return ErrAlreadyStarted
	}

	logBuffer = make(chan *logLine, 1024)
	forceEmptyingOfBuffer = make(chan struct{}, 4)
	shutdownSignal = make(chan struct{})
	writerDone = make(chan struct{})

	go writer()
	return nil
}

// Shutdown writes all remaining logs and stops the background writer.
func Shutdown() {
	if !started.SetToIf(true, false) {
		return
	}
	close(shutdownSignal)
	<-writerDone
}

func writeLine(line *logLine, duplicates uint64) {
	outputLock.Lock()
	defer outputLock.Unlock()
	fmt.Fprintln(output, formatLine(line, duplicates))
}
