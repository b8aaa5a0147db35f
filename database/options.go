package database

import (
	"strings"

	"golang.org/x/exp/slices"
)

// SaveOption modifies how an object is saved.
type SaveOption func(*saveOptions)

type saveOptions struct {
	localManifest bool
}

// LocalManifest saves the object under the key "self", which is reserved
// for the manifest of the local registry.
func LocalManifest() SaveOption {
	return func(opts *saveOptions) {
		opts.localManifest = true
	}
}

// KeyMatcher selects the keys of a lookup.
type KeyMatcher interface {
	keyMatcher()
}

// AnyKey matches all keys.
var AnyKey KeyMatcher = anyKey{}

type anyKey struct{}

func (anyKey) keyMatcher() {}

type keySet []string

func (keySet) keyMatcher() {}

// KeySet matches the given keys case-insensitively. The match is done by the storage.
func KeySet(keys ...string) KeyMatcher {
	set := make(keySet, 0, len(keys))
	for _, key := range keys {
		set = append(set, strings.ToLower(key))
	}
	slices.Sort(set)
	return slices.Compact(set)
}

type keyFunc func(key string) bool

func (keyFunc) keyMatcher() {}

// KeyFunc matches keys for which fn returns true. It is applied to every
// candidate after retrieval.
func KeyFunc(fn func(key string) bool) KeyMatcher {
	return keyFunc(fn)
}
