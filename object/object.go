package object

import (
	"strings"
	"time"
)

// AttributeLine is a single "key: value" line of an object.
type AttributeLine struct {
	Key   string
	Value string
}

// Object is an RPSL-like registry object: an ordered sequence of attribute
// lines plus the metadata the database keeps about it. The first line
// denotes the class and primary key of the object.
type Object struct {
	// ID is the surrogate identifier assigned by the database. It is zero for
	// objects that were not loaded from a database.
	ID uint64

	Fields []AttributeLine

	// Source is the name of the registry that last wrote the object.
	Source       string
	Created      time.Time
	LastModified time.Time
}

// Spec identifies an object by class and key.
type Spec struct {
	Class string
	Key   string
}

// String returns the "class: key" representation of the spec.
func (s Spec) String() string {
	return s.Class + ": " + s.Key
}

// Normalize returns the spec with class and key trimmed and lower-cased, as
// used for identity comparisons.
func (s Spec) Normalize() Spec {
	return Spec{
		Class: strings.ToLower(strings.TrimSpace(s.Class)),
		Key:   strings.ToLower(strings.TrimSpace(s.Key)),
	}
}

// New returns a new object with the given lines, given as alternating keys and values.
func New(keysAndValues ...string) *Object {
	obj := &Object{
		Fields: make([]AttributeLine, 0, len(keysAndValues)/2),
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		obj.Add(keysAndValues[i], keysAndValues[i+1])
	}
	return obj
}

// Add appends a line to the object.
func (obj *Object) Add(key, value string) {
	obj.Fields = append(obj.Fields, AttributeLine{Key: key, Value: value})
}

// Class returns the key of the first line.
func (obj *Object) Class() string {
	if len(obj.Fields) == 0 {
		return ""
	}
	return obj.Fields[0].Key
}

// Key returns the value of the first line.
func (obj *Object) Key() string {
	if len(obj.Fields) == 0 {
		return ""
	}
	return obj.Fields[0].Value
}

// Get returns the value of the first line with the given key. Keys are compared case-insensitively.
func (obj *Object) Get(key string) (value string, ok bool) {
	for _, line := range obj.Fields {
		if strings.EqualFold(line.Key, key) {
			return line.Value, true
		}
	}
	return "", false
}

// GetAll returns the values of all lines with the given key.
func (obj *Object) GetAll(key string) []string {
	var values []string
	for _, line := range obj.Fields {
		if strings.EqualFold(line.Key, key) {
			values = append(values, line.Value)
		}
	}
	return values
}

// Remove removes all lines with the given key and returns how many were removed.
func (obj *Object) Remove(key string) int {
	kept := obj.Fields[:0]
	for _, line := range obj.Fields {
		if !strings.EqualFold(line.Key, key) {
			kept = append(kept, line)
		}
	}
	removed := len(obj.Fields) - len(kept)
	obj.Fields = kept
	return removed
}

// Copy returns a copy of the object that does not share the line slice.
func (obj *Object) Copy() *Object {
	c := *obj
	c.Fields = make([]AttributeLine, len(obj.Fields))
	copy(c.Fields, obj.Fields)
	return &c
}
