package dsd

import (
	"errors"
	"strings"
)

// Errors.
var (
	ErrIncompatibleFormat = errors.New("dsd: format is incompatible with operation")
	ErrNoMoreSpace        = errors.New("dsd: no more space left after reading dsd type")
	ErrUnknownFormat      = errors.New("dsd: format is unknown")
)

// Serialization formats.
const (
	AUTO    uint8 = 0
	CBOR    uint8 = 67 // C
	JSON    uint8 = 74 // J
	MsgPack uint8 = 77 // M
)

// DefaultSerializationFormat is used when AUTO is requested.
var DefaultSerializationFormat = MsgPack

// ValidateSerializationFormat validates if the format is for serialization,
// and returns the validated format as well as the result of the validation.
// If called on the AUTO format, it returns the default serialization format.
func ValidateSerializationFormat(format uint8) (validated uint8, ok bool) {
	switch format {
	case AUTO:
		return DefaultSerializationFormat, true
	case CBOR, JSON, MsgPack:
		return format, true
	default:
		return 0, false
	}
}

// ParseFormat returns the format identified by name, as used in configuration.
func ParseFormat(name string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return AUTO, nil
	case "cbor":
		return CBOR, nil
	case "json":
		return JSON, nil
	case "msgpack", "messagepack":
		return MsgPack, nil
	default:
		return 0, ErrUnknownFormat
	}
}

// FormatName returns a human readable name of the format.
func FormatName(format uint8) string {
	switch format {
	case AUTO:
		return "auto"
	case CBOR:
		return "cbor"
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	default:
		return "unknown"
	}
}
