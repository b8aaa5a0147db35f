package storage

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/safing/rpsldb/utils"
)

// A Factory creates a new storage of its type at location.
type Factory func(name, location string) (Interface, error)

var (
	storages     = make(map[string]Factory)
	storagesLock sync.Mutex
)

// Register registers a new storage type.
func Register(name string, factory Factory) error {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	_, ok := storages[name]
	if ok {
		return errors.New("factory for this type already exists")
	}

	storages[name] = factory
	return nil
}

// Types returns the names of all registered storage types.
func Types() []string {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	names := maps.Keys(storages)
	slices.Sort(names)
	return names
}

// CreateDatabase creates location and starts a new storage of storageType in it.
func CreateDatabase(name, storageType, location string) (Interface, error) {
	if location != "" {
		err := utils.EnsureDirectory(location, 0o0700)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage location: %w", err)
		}
	}
	return StartDatabase(name, storageType, location)
}

// StartDatabase starts a storage of storageType with the given name at location.
func StartDatabase(name, storageType, location string) (Interface, error) {
	storagesLock.Lock()
	factory, ok := storages[storageType]
	storagesLock.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, storageType)
	}
	return factory(name, location)
}
