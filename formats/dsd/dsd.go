package dsd

// dynamic structured data
// check here for some benchmarks: https://github.com/alecthomas/go_serialization_benchmarks

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/safing/rpsldb/formats/varint"
)

// Load loads a dsd structured data blob into the given interface.
func Load(data []byte, t interface{}) (format uint8, err error) {
	format, read, err := varint.Unpack8(data)
	if err != nil {
		return 0, err
	}
	if len(data) <= read {
		return 0, ErrNoMoreSpace
	}

	return format, LoadAsFormat(data[read:], format, t)
}

// LoadAsFormat loads a data blob into the interface using the specified format.
func LoadAsFormat(data []byte, format uint8, t interface{}) (err error) {
	switch format {
	case JSON:
		err = json.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack json: %w, data: %s", err, string(data))
		}
		return nil
	case CBOR:
		err = cbor.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack cbor: %w, data: %q", err, data)
		}
		return nil
	case MsgPack:
		err = msgpack.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack msgpack: %w, data: %q", err, data)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}

// Dump stores the interface as a dsd formatted data structure.
func Dump(t interface{}, format uint8) ([]byte, error) {
	data, err := DumpWithoutIdentifier(t, format)
	if err != nil {
		return nil, err
	}

	format, _ = ValidateSerializationFormat(format)
	return append(varint.Pack8(format), data...), nil
}

// DumpWithoutIdentifier stores the interface as a data structure, without format identifier.
func DumpWithoutIdentifier(t interface{}, format uint8) ([]byte, error) {
	format, ok := ValidateSerializationFormat(format)
	if !ok {
		return nil, ErrIncompatibleFormat
	}

	var data []byte
	var err error
	switch format {
	case JSON:
		data, err = json.Marshal(t)
		if err != nil {
			return nil, err
		}
	case CBOR:
		data, err = cbor.Marshal(t)
		if err != nil {
			return nil, err
		}
	case MsgPack:
		data, err = msgpack.Marshal(t)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("dsd: tried to dump unknown type %d", format)
	}

	return data, nil
}
