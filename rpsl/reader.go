package rpsl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/safing/rpsldb/object"
)

const maxLineLength = 1 << 20

// SyntaxError reports a malformed line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rpsl: line %d: %s", e.Line, e.Msg)
}

// Reader reads objects from RPSL text. Objects are separated by blank
// lines. Lines starting with '%' or '#' are comments. Lines starting with
// a space, a tab or '+' continue the value of the previous line.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	return &Reader{scanner: scanner}
}

// Read returns the next object. It returns io.EOF after the last object.
func (r *Reader) Read() (*object.Object, error) {
	var obj *object.Object

	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		switch {
		case strings.TrimSpace(line) == "":
			if obj != nil {
				return obj, nil
			}

		case line[0] == '%' || line[0] == '#':
			// comment

		case line[0] == ' ' || line[0] == '\t' || line[0] == '+':
			if obj == nil {
				return nil, &SyntaxError{Line: r.line, Msg: "continuation line without attribute"}
			}
			last := &obj.Fields[len(obj.Fields)-1]
			last.Value += "\n" + strings.TrimSpace(line[1:])

		default:
			key, value, ok := strings.Cut(line, ":")
			key = strings.TrimSpace(key)
			if !ok || key == "" || strings.ContainsAny(key, " \t") {
				return nil, &SyntaxError{Line: r.line, Msg: fmt.Sprintf("malformed attribute %q", line)}
			}
			if obj == nil {
				obj = &object.Object{}
			}
			obj.Add(key, strings.TrimSpace(value))
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if obj != nil {
		return obj, nil
	}
	return nil, io.EOF
}

// ReadAll reads all objects from r.
func ReadAll(r io.Reader) ([]*object.Object, error) {
	reader := NewReader(r)

	var objs []*object.Object
	for {
		obj, err := reader.Read()
		switch {
		case errors.Is(err, io.EOF):
			return objs, nil
		case err != nil:
			return objs, err
		}
		objs = append(objs, obj)
	}
}

// Parse parses a single object.
func Parse(text string) (*object.Object, error) {
	obj, err := NewReader(strings.NewReader(text)).Read()
	if errors.Is(err, io.EOF) {
		return nil, object.ErrEmptyObject
	}
	return obj, err
}
