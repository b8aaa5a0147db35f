package metrics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore(t *testing.T) {
	t.Parallel()

	s := NewStore("metrics-test")
	defer s.Unregister()

	s.SessionOpened()
	s.SessionOpened()
	s.SessionClosed()
	s.Observe("fetch", time.Now(), nil)
	s.Observe("fetch", time.Now(), errors.New("test"))

	buf := new(bytes.Buffer)
	s.WritePrometheus(buf)
	out := buf.String()
	assert.Contains(t, out, `rpsldb_operations_total{db="metrics-test",op="fetch"} 2`)
	assert.Contains(t, out, `rpsldb_errors_total{db="metrics-test",op="fetch"} 1`)
	assert.Contains(t, out, `rpsldb_sessions_active{db="metrics-test"} 1`)
	assert.Contains(t, out, `rpsldb_operation_duration_seconds_count{db="metrics-test",op="fetch"} 2`)

	buf.Reset()
	WritePrometheus(buf, false)
	assert.Contains(t, buf.String(), "rpsldb_info{")
	assert.Contains(t, buf.String(), `db="metrics-test"`)

	s.Unregister()
	buf.Reset()
	WritePrometheus(buf, false)
	assert.NotContains(t, buf.String(), `db="metrics-test"`)

	var nilStore *Store
	nilStore.Observe("fetch", time.Now(), nil)
	nilStore.SessionOpened()
}

func TestCheckUnknown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", checkUnknown("[commit unknown]"))
	assert.Equal(t, "v1.0.0", checkUnknown("v1.0.0"))
}
