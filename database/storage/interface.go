package storage

// Interface defines the storage API of a database: a single ordered
// key/value keyspace updated through transactions.
type Interface interface {
	// Begin starts a new transaction. A storage allows at most one writable
	// transaction at a time; Begin blocks until it is available.
	Begin(writable bool) (Tx, error)
	// Shutdown closes the storage. Open transactions must be finished first.
	Shutdown() error
}

// Tx is a storage transaction. Keys are compared bytewise. A Tx is not safe
// for concurrent use.
type Tx interface {
	// Writable returns whether the transaction may write.
	Writable() bool

	// Get returns a copy of the value stored at key or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores value at key.
	Put(key, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error
	// Scan calls fn for every key in [start, limit) in ascending order. A nil
	// limit scans to the end of the keyspace. Keys and values passed to fn are
	// copies. Returning ErrStopScan from fn ends the scan without error. fn
	// must not write to the transaction.
	Scan(start, limit []byte, fn func(key, value []byte) error) error

	// Commit persists the changes of a writable transaction and finishes it.
	Commit() error
	// Rollback discards all changes and finishes the transaction. It is a
	// no-op on a finished transaction.
	Rollback() error
}

// PrefixEnd returns the smallest key that is greater than every key starting with prefix.
// It returns nil if there is no such key.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// Copy returns a copy of data.
func Copy(data []byte) []byte {
	if data == nil {
		return nil
	}
	duplicate := make([]byte, len(data))
	copy(duplicate, data)
	return duplicate
}
