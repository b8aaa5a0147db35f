package rpsl

import (
	"bufio"
	"io"
	"strings"

	"github.com/safing/rpsldb/object"
)

// DefaultPadding is the column values are aligned to.
const DefaultPadding = 16

// Writer writes objects as RPSL text, separated by blank lines.
type Writer struct {
	w       *bufio.Writer
	padding int
	written bool
}

// NewWriter returns a Writer writing to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:       bufio.NewWriter(w),
		padding: DefaultPadding,
	}
}

// SetPadding sets the column values are aligned to.
func (w *Writer) SetPadding(padding int) {
	w.padding = padding
}

// Write writes obj.
func (w *Writer) Write(obj *object.Object) error {
	if w.written {
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	w.written = true

	for _, line := range obj.Fields {
		head := line.Key + ":"
		if len(head) < w.padding {
			head += strings.Repeat(" ", w.padding-len(head))
		} else {
			head += " "
		}

		indent := strings.Repeat(" ", len(head))
		for i, value := range strings.Split(line.Value, "\n") {
			// Continuation lines keep the alignment, empty ones need a marker.
			switch {
			case i == 0:
			case value == "":
				head = "+"
			default:
				head = indent
			}
			if _, err := w.w.WriteString(strings.TrimRight(head+value, " ") + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Format returns obj as RPSL text.
func Format(obj *object.Object) string {
	var b strings.Builder
	w := NewWriter(&b)
	_ = w.Write(obj)
	_ = w.Flush()
	return b.String()
}
