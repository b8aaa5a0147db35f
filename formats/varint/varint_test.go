package varint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{0, 1, 127, 128, 255, 300, 1 << 32, 1<<64 - 1} {
		packed := Pack64(n)
		unpacked, read, err := Unpack64(packed)
		require.NoError(t, err)
		assert.Equal(t, n, unpacked)
		assert.Equal(t, len(packed), read)
	}

	packed := Pack8(77)
	n8, read, err := Unpack8(packed)
	require.NoError(t, err)
	assert.Equal(t, uint8(77), n8)
	assert.Equal(t, 1, read)

	_, _, err = Unpack8(Pack64(256))
	assert.Error(t, err, "256 must not fit into uint8")
}

func TestBlocks(t *testing.T) {
	t.Parallel()

	data := append(PrependLength([]byte("route")), PrependLength([]byte("AS4242420000"))...)

	first, n, err := GetNextBlock(data)
	require.NoError(t, err)
	assert.Equal(t, "route", string(first))

	second, _, err := GetNextBlock(data[n:])
	require.NoError(t, err)
	assert.Equal(t, "AS4242420000", string(second))

	_, _, err = GetNextBlock([]byte{10, 'a'})
	assert.Error(t, err, "truncated block must fail")

	_, _, err = Unpack64(nil)
	assert.Error(t, err)
}
