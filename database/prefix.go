package database

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/object"
)

// Relation is the containment relation of an inetnum lookup, seen from the
// indexed network towards the queried one.
type Relation uint8

// Relations.
const (
	StrictSuperset  Relation = iota + 1 // >>
	StrictSubset                        // <<
	SupersetOrEqual                     // >>=
	SubsetOrEqual                       // <<=
)

// ParseRelation parses the textual form of a relation.
func ParseRelation(s string) (Relation, error) {
	switch strings.TrimSpace(s) {
	case ">>":
		return StrictSuperset, nil
	case "<<":
		return StrictSubset, nil
	case ">>=":
		return SupersetOrEqual, nil
	case "<<=":
		return SubsetOrEqual, nil
	default:
		return 0, fmt.Errorf("%w: unknown relation %q", ErrInvalidQuery, s)
	}
}

func (r Relation) String() string {
	switch r {
	case StrictSuperset:
		return ">>"
	case StrictSubset:
		return "<<"
	case SupersetOrEqual:
		return ">>="
	case SubsetOrEqual:
		return "<<="
	default:
		return fmt.Sprintf("Relation(%d)", uint8(r))
	}
}

func (r Relation) valid() bool {
	return r >= StrictSuperset && r <= SubsetOrEqual
}

// Order is the sort order of results on prefix length.
type Order uint8

// Orders.
const (
	Ascending Order = iota + 1
	Descending
)

// ParseOrder parses "asc" or "desc".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return 0, fmt.Errorf("%w: unknown order %q", ErrInvalidQuery, s)
	}
}

func (o Order) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

func parseQueryNetwork(address string) (netip.Prefix, error) {
	prefix, err := object.ParseNetwork(address)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %s", ErrInvalidQuery, err)
	}
	return prefix, nil
}

type networkMatch struct {
	prefix netip.Prefix
	asn    uint32
	id     uint64
}

// LookupRoute returns the route objects whose network contains or equals
// address, most specific first. Ties are ordered by network, then origin.
// A limit of zero or less returns all matches.
func (s *Session) LookupRoute(address string, limit int) (specs []object.Spec, err error) {
	defer s.observe("lookup_route", time.Now(), &err)

	query, err := parseQueryNetwork(address)
	if err != nil {
		return nil, err
	}
	tx, err := s.reader()
	if err != nil {
		return nil, err
	}

	var matches []networkMatch
	for bits := query.Bits(); bits >= 0; bits-- {
		prefix := netip.PrefixFrom(query.Addr(), bits).Masked()
		start := networkPrefix(tableRoute, prefix)
		err = tx.Scan(start, storage.PrefixEnd(start), func(key, value []byte) error {
			_, rest, err := parseNetworkKey(key)
			if err != nil || len(rest) != 4 {
				return ErrMalformedRow
			}
			id, err := unpackID(value)
			if err != nil {
				return err
			}
			matches = append(matches, networkMatch{
				prefix: prefix,
				asn:    uint32(rest[0])<<24 | uint32(rest[1])<<16 | uint32(rest[2])<<8 | uint32(rest[3]),
				id:     id,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(matches) >= limit {
			matches = matches[:limit]
			break
		}
	}

	return specsOf(tx, matches)
}

// LookupInetnum returns the inetnum objects whose network stands in
// relation to address, ordered by prefix length and then by network.
func (s *Session) LookupInetnum(address string, relation Relation, order Order, limit int) (specs []object.Spec, err error) {
	defer s.observe("lookup_inetnum", time.Now(), &err)

	if !relation.valid() {
		return nil, fmt.Errorf("%w: invalid relation %s", ErrInvalidQuery, relation)
	}
	if order != Ascending && order != Descending {
		return nil, fmt.Errorf("%w: invalid order %s", ErrInvalidQuery, order)
	}
	query, err := parseQueryNetwork(address)
	if err != nil {
		return nil, err
	}
	tx, err := s.reader()
	if err != nil {
		return nil, err
	}

	var matches []networkMatch
	switch relation {
	case StrictSuperset, SupersetOrEqual:
		maxBits := query.Bits()
		if relation == StrictSuperset {
			maxBits--
		}
		for bits := 0; bits <= maxBits; bits++ {
			prefix := netip.PrefixFrom(query.Addr(), bits).Masked()
			value, err := tx.Get(inetnumKey(prefix))
			switch {
			case err == nil:
				id, err := unpackID(value)
				if err != nil {
					return nil, err
				}
				matches = append(matches, networkMatch{prefix: prefix, id: id})
			case !errors.Is(err, storage.ErrNotFound):
				return nil, err
			}
		}

	case StrictSubset, SubsetOrEqual:
		minBits := query.Bits()
		if relation == StrictSubset {
			minBits++
		}
		start := networkPrefix(tableInetnum, netip.PrefixFrom(query.Addr(), 0))
		start = start[:len(start)-1]
		last := networkPrefix(tableInetnum, netip.PrefixFrom(object.LastAddr(query), 0))
		last = last[:len(last)-1]
		err = tx.Scan(start, storage.PrefixEnd(last), func(key, value []byte) error {
			prefix, _, err := parseNetworkKey(key)
			if err != nil {
				return err
			}
			if prefix.Bits() < minBits {
				return nil
			}
			id, err := unpackID(value)
			if err != nil {
				return err
			}
			matches = append(matches, networkMatch{prefix: prefix, id: id})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(matches, func(a, b networkMatch) int {
		if a.prefix.Bits() != b.prefix.Bits() {
			if order == Ascending {
				return a.prefix.Bits() - b.prefix.Bits()
			}
			return b.prefix.Bits() - a.prefix.Bits()
		}
		return a.prefix.Addr().Compare(b.prefix.Addr())
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return specsOf(tx, matches)
}

func specsOf(tx storage.Tx, matches []networkMatch) ([]object.Spec, error) {
	specs := make([]object.Spec, 0, len(matches))
	for _, m := range matches {
		spec, err := specOf(tx, m.id)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// specOf returns the identity of the object id.
func specOf(tx storage.Tx, id uint64) (object.Spec, error) {
	row, err := loadObjectRow(tx, id)
	if err != nil {
		return object.Spec{}, err
	}
	return object.Spec{Class: row.Class, Key: row.Key}, nil
}
