package database

import (
	"encoding/binary"
	"time"

	"golang.org/x/exp/slices"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/object"
)

// LookupASBlock returns the as-block objects whose range contains asn.
//
// Results are ordered by range width descending, so the widest block comes
// first. This is the opposite of the most specific first order of
// LookupRoute and is kept for compatibility.
func (s *Session) LookupASBlock(asn uint64) (specs []object.Spec, err error) {
	defer s.observe("lookup_as_block", time.Now(), &err)

	tx, err := s.reader()
	if err != nil {
		return nil, err
	}

	type block struct {
		start, end uint64
		id         uint64
	}
	var blocks []block

	// All blocks starting at or before asn.
	upper := make([]byte, 9)
	upper[0] = tableASBlock
	binary.BigEndian.PutUint64(upper[1:], asn)
	err = tx.Scan([]byte{tableASBlock}, storage.PrefixEnd(upper), func(key, value []byte) error {
		start, end, err := parseASBlockKey(key)
		if err != nil {
			return err
		}
		if end < asn {
			return nil
		}
		id, err := unpackID(value)
		if err != nil {
			return err
		}
		blocks = append(blocks, block{start: start, end: end, id: id})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(blocks, func(a, b block) int {
		aWidth, bWidth := a.end-a.start, b.end-b.start
		switch {
		case aWidth > bWidth:
			return -1
		case aWidth < bWidth:
			return 1
		case a.start < b.start:
			return -1
		case a.start > b.start:
			return 1
		default:
			return 0
		}
	})

	specs = make([]object.Spec, 0, len(blocks))
	for _, b := range blocks {
		spec, err := specOf(tx, b.id)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
