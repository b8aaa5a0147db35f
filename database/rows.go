package database

import (
	"fmt"
	"time"

	"github.com/safing/rpsldb/formats/dsd"
)

// objectRow is the stored form of an object without its lines.
type objectRow struct {
	Class        string    `json:"class" msgpack:"class" cbor:"class"`
	Key          string    `json:"key" msgpack:"key" cbor:"key"`
	Source       string    `json:"source,omitempty" msgpack:"source,omitempty" cbor:"source,omitempty"`
	Created      time.Time `json:"created" msgpack:"created" cbor:"created"`
	LastModified time.Time `json:"last_modified" msgpack:"last_modified" cbor:"last_modified"`
}

// fieldRow is the stored form of an attribute line.
type fieldRow struct {
	Key   string `json:"k" msgpack:"k" cbor:"k"`
	Value string `json:"v" msgpack:"v" cbor:"v"`
}

func (db *Database) dumpRow(row interface{}) ([]byte, error) {
	data, err := dsd.Dump(row, db.cfg.Serialization)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize row: %w", err)
	}
	return data, nil
}

func loadRow(data []byte, row interface{}) error {
	_, err := dsd.Load(data, row)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedRow, err)
	}
	return nil
}
