package log

func writer() {
	defer close(writerDone)

	var (
		lastLine   *logLine
		duplicates uint64
	)

	for {
		// wait until logs need to be processed
		select {
		case <-logsWaiting:
			logsWaitingFlag.UnSet()
		case <-forceEmptyingOfBuffer:
		case <-shutdownSignal:
			// write everything that is left
			for {
				select {
				case line := <-logBuffer:
					lastLine, duplicates = writeDeduplicated(line, lastLine, duplicates)
				default:
					if lastLine != nil {
						writeLine(lastLine, duplicates)
					}
					return
				}
			}
		}

		// write all the logs!
	writeLoop:
		for {
			select {
			case line := <-logBuffer:
				lastLine, duplicates = writeDeduplicated(line, lastLine, duplicates)
			default:
				break writeLoop
			}
		}

		if lastLine != nil {
			writeLine(lastLine, duplicates)
			lastLine = nil
			duplicates = 0
		}
	}
}

// writeDeduplicated holds back a line until a different one arrives, so that
// repeated lines are written once with a counter.
func writeDeduplicated(line, lastLine *logLine, duplicates uint64) (*logLine, uint64) {
	if lastLine == nil {
		return line, 0
	}
	if line.Equal(lastLine) {
		return lastLine, duplicates + 1
	}
	writeLine(lastLine, duplicates)
	return line, 0
}

// Equal returns whether two log lines are identical, apart from their time.
func (ll *logLine) Equal(ol *logLine) bool {
	switch {
	case ll.msg != ol.msg:
		return false
	case ll.tracer != nil || ol.tracer != nil:
		return false
	case ll.file != ol.file:
		return false
	case ll.line != ol.line:
		return false
	case ll.level != ol.level:
		return false
	}
	return true
}
