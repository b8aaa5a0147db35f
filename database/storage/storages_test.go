package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixEnd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("b"), PrefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01}, PrefixEnd([]byte{0x00, 0xFF}))
	assert.Equal(t, []byte("I"), PrefixEnd([]byte("H")))
	assert.Nil(t, PrefixEnd([]byte{0xFF, 0xFF}))
	assert.Nil(t, PrefixEnd(nil))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	called := false
	factory := func(name, location string) (Interface, error) {
		called = true
		return nil, nil
	}
	assert.NoError(t, Register("registry-test", factory))
	assert.Error(t, Register("registry-test", factory))
	assert.Contains(t, Types(), "registry-test")

	_, err := StartDatabase("test", "registry-test", "")
	assert.NoError(t, err)
	assert.True(t, called)

	_, err = StartDatabase("test", "does-not-exist", "")
	assert.ErrorIs(t, err, ErrUnknownType)
}
