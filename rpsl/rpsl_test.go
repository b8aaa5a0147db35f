package rpsl

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/object"
)

const dump = `% Registry dump
# generated

person:         John Doe
nic-hdl:        JD1-TEST
address:        Example Street 1
                12345 Example City
+
                Nowhere
source:         TEST


route:          10.0.0.0/8
origin:         AS64500
remarks:
mnt-by:         FOO-MNT # maintained by foo
`

func TestReadAll(t *testing.T) {
	t.Parallel()

	objs, err := ReadAll(strings.NewReader(dump))
	require.NoError(t, err)
	require.Len(t, objs, 2)

	assert.Equal(t, "person", objs[0].Class())
	assert.Equal(t, "John Doe", objs[0].Key())
	address, _ := objs[0].Get("address")
	assert.Equal(t, "Example Street 1\n12345 Example City\n\nNowhere", address)

	assert.Equal(t, []object.AttributeLine{
		{Key: "route", Value: "10.0.0.0/8"},
		{Key: "origin", Value: "AS64500"},
		{Key: "remarks", Value: ""},
		{Key: "mnt-by", Value: "FOO-MNT # maintained by foo"},
	}, objs[1].Fields)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	objs, err := ReadAll(strings.NewReader(dump))
	require.NoError(t, err)

	var b strings.Builder
	w := NewWriter(&b)
	for _, obj := range objs {
		require.NoError(t, w.Write(obj))
	}
	require.NoError(t, w.Flush())

	again, err := ReadAll(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, again, len(objs))
	for i := range objs {
		assert.Equal(t, objs[i].Fields, again[i].Fields)
	}
	assert.Contains(t, b.String(), "\n\nroute:          10.0.0.0/8\n")
	assert.Contains(t, b.String(), "                12345 Example City\n+\n")
}

func TestFormat(t *testing.T) {
	t.Parallel()

	obj := object.New("a-very-long-attribute-key", "value", "key", "v")
	assert.Equal(t, "a-very-long-attribute-key: value\nkey:            v\n", Format(obj))

	w := NewWriter(io.Discard)
	w.SetPadding(0)
	require.NoError(t, w.Write(obj))
}

func TestSyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		line int
	}{
		{" continuation first", 1},
		{"person: A\nno colon here", 2},
		{"person: A\n: empty key", 2},
		{"\n\nbad key: value", 3},
	}
	for _, tt := range tests {
		_, err := ReadAll(strings.NewReader(tt.text))
		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr), tt.text)
		assert.Equal(t, tt.line, syntaxErr.Line, tt.text)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	obj, err := Parse("domain: example.com\r\nnserver: ns1.example.com\r\n")
	require.NoError(t, err)
	assert.Equal(t, "example.com", obj.Key())

	_, err = Parse("% only a comment\n\n")
	assert.ErrorIs(t, err, object.ErrEmptyObject)
}
