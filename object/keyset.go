package object

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// KeySet is an immutable, case-insensitive set of attribute keys.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet returns a KeySet holding the given keys.
func NewKeySet(keys ...string) KeySet {
	ks := KeySet{
		keys: make(map[string]struct{}, len(keys)),
	}
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" {
			ks.keys[key] = struct{}{}
		}
	}
	return ks
}

// Has returns whether key is in the set.
func (ks KeySet) Has(key string) bool {
	_, ok := ks.keys[strings.ToLower(key)]
	return ok
}

// Len returns the number of keys in the set.
func (ks KeySet) Len() int {
	return len(ks.keys)
}

// Keys returns the sorted keys of the set.
func (ks KeySet) Keys() []string {
	keys := maps.Keys(ks.keys)
	slices.Sort(keys)
	return keys
}

// Union returns a new set holding the keys of both sets.
func (ks KeySet) Union(other KeySet) KeySet {
	return NewKeySet(append(ks.Keys(), other.Keys()...)...)
}

var (
	nicInverseKeys = []string{
		"abuse-mailbox", "admin-c", "author", "auth",
		"fingerprint", "person", "irt-nfy", "local-as", "mnt-irt",
		"mbrs-by-ref", "member-of", "mnt-by", "mnt-domains",
		"mnt-lower", "mnt-nfy", "mnt-routes", "mnt-ref", "notify",
		"nserver", "origin", "org", "ref-nfy", "tech-c", "upd-to",
		"zone-c",
	}
	ipamInverseKeys = []string{
		"hostname", "vlan-id", "net", "l2-address", "vxlan-vni",
	}
)

// NicInverseKeys returns the attribute keys that reference other objects in a
// network information centre registry.
func NicInverseKeys() KeySet {
	return NewKeySet(nicInverseKeys...)
}

// IPAMInverseKeys returns the nic inverse keys extended by the keys used by
// IP address management objects.
func IPAMInverseKeys() KeySet {
	return NicInverseKeys().Union(NewKeySet(ipamInverseKeys...))
}
