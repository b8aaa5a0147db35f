package metrics

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	registry     = make(map[string]*Store)
	registryLock sync.RWMutex
)

// Store holds the metrics of one database.
type Store struct {
	db  string
	set *vm.Set

	sessionsActive atomic.Int64
}

// NewStore creates and registers the metrics set of the database db.
// An existing set with the same name is replaced.
func NewStore(db string) *Store {
	s := &Store{
		db:  db,
		set: vm.NewSet(),
	}
	s.set.NewGauge(fmt.Sprintf(`rpsldb_sessions_active{db=%q}`, db), func() float64 {
		return float64(s.sessionsActive.Load())
	})

	registryLock.Lock()
	defer registryLock.Unlock()
	registry[db] = s

	return s
}

// Unregister removes the set from the exported metrics.
func (s *Store) Unregister() {
	registryLock.Lock()
	defer registryLock.Unlock()

	if registry[s.db] == s {
		delete(registry, s.db)
	}
}

// Observe records an operation that started at start and finished with err.
func (s *Store) Observe(op string, start time.Time, err error) {
	if s == nil {
		return
	}

	labels := fmt.Sprintf(`{db=%q,op=%q}`, s.db, op)
	s.set.GetOrCreateCounter("rpsldb_operations_total" + labels).Inc()
	s.set.GetOrCreateSummary("rpsldb_operation_duration_seconds" + labels).UpdateDuration(start)
	if err != nil {
		s.set.GetOrCreateCounter("rpsldb_errors_total" + labels).Inc()
	}
}

// SessionOpened increases the active session gauge.
func (s *Store) SessionOpened() {
	if s != nil {
		s.sessionsActive.Add(1)
	}
}

// SessionClosed decreases the active session gauge.
func (s *Store) SessionClosed() {
	if s != nil {
		s.sessionsActive.Add(-1)
	}
}

// WritePrometheus writes the metrics of the database in Prometheus text format.
func (s *Store) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}

// WritePrometheus writes all registered metrics in Prometheus text format.
// Process metrics are included if withProcess is set.
func WritePrometheus(w io.Writer, withProcess bool) {
	registryLock.RLock()
	names := maps.Keys(registry)
	slices.Sort(names)
	stores := make([]*Store, 0, len(names))
	for _, name := range names {
		stores = append(stores, registry[name])
	}
	registryLock.RUnlock()

	writeInfoMetric(w)
	for _, s := range stores {
		s.WritePrometheus(w)
	}
	if withProcess {
		vm.WriteProcessMetrics(w)
	}
}
