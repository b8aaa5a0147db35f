package log

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	rightArrow = "▶"
	timeFormat = "060102 15:04:05.000"
	maxCount   = uint16(999)
)

var (
	counter     uint16
	counterLock sync.Mutex
)

func (s Severity) String() string {
	switch s {
	case TraceLevel:
		return "TRAC"
	case DebugLevel:
		return "DEBU"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARN"
	case ErrorLevel:
		return "ERRO"
	case CriticalLevel:
		return "CRIT"
	default:
		return "NONE"
	}
}

func nextCount() uint16 {
	counterLock.Lock()
	defer counterLock.Unlock()

	counter++
	if counter > maxCount {
		counter = 1
	}
	return counter
}

func shortFile(file string) string {
	fPartStart := len(file) - 10
	if fPartStart < 0 {
		fPartStart = 0
	}
	return file[fPartStart:]
}

func formatLine(line *logLine, duplicates uint64) string {
	var b strings.Builder

	if line.line == 0 {
		fmt.Fprintf(&b, "%s ? %s %s %03d%s %s",
			line.timestamp.Format(timeFormat), rightArrow, line.level, nextCount(), formatDuplicates(duplicates), line.msg)
	} else {
		fmt.Fprintf(&b, "%s %s:%03d %s %s %03d%s %s",
			line.timestamp.Format(timeFormat), shortFile(line.file), line.line, rightArrow, line.level, nextCount(), formatDuplicates(duplicates), line.msg)
	}

	if line.tracer != nil {
		line.tracer.Lock()
		defer line.tracer.Unlock()

		// append full trace time
		if len(line.tracer.actions) > 0 {
			fmt.Fprintf(&b, " Σ=%s", line.timestamp.Sub(line.tracer.actions[0].timestamp))
		}

		// append all trace actions
		var d time.Duration
		for i, action := range line.tracer.actions {
			if i == len(line.tracer.actions)-1 { // last
				d = line.timestamp.Sub(action.timestamp)
			} else {
				d = line.tracer.actions[i+1].timestamp.Sub(action.timestamp)
			}
			fmt.Fprintf(&b, "\n%19s %s:%03d %s %s     %s", d, shortFile(action.file), action.line, rightArrow, action.level, action.msg)
		}
	}

	return b.String()
}

func formatDuplicates(duplicates uint64) string {
	if duplicates == 0 {
		return ""
	}
	return fmt.Sprintf(" [%dx]", duplicates+1)
}
