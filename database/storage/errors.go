package storage

import "errors"

// Errors for storages.
var (
	ErrNotFound    = errors.New("storage entry not found")
	ErrReadOnly    = errors.New("transaction is read only")
	ErrTxFinished  = errors.New("transaction already finished")
	ErrInvalidKey  = errors.New("invalid key")
	ErrStopScan    = errors.New("stop scan")
	ErrUnknownType = errors.New("unknown storage type")
)
