package varint

import (
	"encoding/binary"
	"math"
)

// Pack8 packs a uint8 into a VarInt.
func Pack8(n uint8) []byte {
	return Pack64(uint64(n))
}

// Pack64 packs a uint64 into a VarInt.
func Pack64(n uint64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	size := binary.PutUvarint(buf, n)
	return buf[:size]
}

// Unpack8 unpacks a VarInt into a uint8. It returns the extracted int, how many bytes were used and an error.
func Unpack8(blob []byte) (uint8, int, error) {
	n, read, err := Unpack64(blob)
	if err != nil {
		return 0, 0, err
	}
	if n > math.MaxUint8 {
		return 0, 0, &valueExceededError{max: "uint8"}
	}
	return uint8(n), read, nil
}

// Unpack64 unpacks a VarInt into a uint64. It returns the extracted int, how many bytes were used and an error.
func Unpack64(blob []byte) (uint64, int, error) {
	if len(blob) == 0 {
		return 0, 0, errEmptyBuf
	}
	n, read := binary.Uvarint(blob)
	switch {
	case read == 0:
		return 0, 0, errTooSmall
	case read < 0:
		return 0, 0, &valueExceededError{max: "uint64"}
	}
	return n, read, nil
}

// PrependLength prepends the varint encoded length of the byte slice to itself.
func PrependLength(data []byte) []byte {
	return append(Pack64(uint64(len(data))), data...)
}

// GetNextBlock extracts a length prefixed block from the beginning of data.
// It returns the block and the number of bytes consumed, including the length prefix.
func GetNextBlock(data []byte) ([]byte, int, error) {
	l, n, err := Unpack64(data)
	if err != nil {
		return nil, 0, err
	}
	if l > uint64(len(data)-n) {
		return nil, 0, errTooSmall
	}
	total := n + int(l)
	return data[n:total], total, nil
}
