package database

import (
	"encoding/binary"
	"net/netip"
	"strings"

	"github.com/miekg/dns"

	"github.com/safing/rpsldb/formats/varint"
)

// Table prefixes of the keyspace. Every logical table lives under its own
// single byte prefix.
const (
	tableVersion  byte = 'V' // schema version
	tableSequence byte = 'S' // name -> uint64
	tableObject   byte = 'O' // id -> object row
	tableIdentity byte = 'K' // class, key -> id
	tableField    byte = 'F' // id, position -> field row
	tableInverse  byte = 'I' // key, value, id
	tableInetnum  byte = 'N' // family, network, bits -> id
	tableRoute    byte = 'T' // family, network, bits, asn -> id
	tableASBlock  byte = 'A' // start, end -> id
	tableDomain   byte = 'D' // reversed labels -> id
	tableOwner    byte = 'R' // id, derived key
)

// derivedTables hold rows that are recomputed from objects.
var derivedTables = []byte{tableInverse, tableInetnum, tableRoute, tableASBlock, tableDomain, tableOwner}

const objectSequence = "object"

func packID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func unpackID(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, ErrMalformedRow
	}
	return binary.BigEndian.Uint64(data), nil
}

func join(parts ...[]byte) []byte {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	key := make([]byte, 0, size)
	for _, part := range parts {
		key = append(key, part...)
	}
	return key
}

func versionKey() []byte {
	return []byte{tableVersion}
}

func sequenceKey(name string) []byte {
	return join([]byte{tableSequence}, []byte(name))
}

func objectKey(id uint64) []byte {
	return join([]byte{tableObject}, packID(id))
}

// identityPrefix returns the prefix of all identity rows of class.
func identityPrefix(class string) []byte {
	return join([]byte{tableIdentity}, varint.PrependLength([]byte(strings.ToLower(class))))
}

func identityKey(class, key string) []byte {
	return join(identityPrefix(class), varint.PrependLength([]byte(strings.ToLower(key))))
}

// parseIdentityKey returns the class and key of an identity row key.
func parseIdentityKey(data []byte) (class, key string, err error) {
	if len(data) == 0 || data[0] != tableIdentity {
		return "", "", ErrMalformedRow
	}
	classBlock, n, err := varint.GetNextBlock(data[1:])
	if err != nil {
		return "", "", ErrMalformedRow
	}
	keyBlock, m, err := varint.GetNextBlock(data[1+n:])
	if err != nil || 1+n+m != len(data) {
		return "", "", ErrMalformedRow
	}
	return string(classBlock), string(keyBlock), nil
}

func fieldPrefix(id uint64) []byte {
	return join([]byte{tableField}, packID(id))
}

func fieldKey(id uint64, position int) []byte {
	pos := make([]byte, 4)
	binary.BigEndian.PutUint32(pos, uint32(position))
	return join(fieldPrefix(id), pos)
}

func inversePrefix(key, value string) []byte {
	return join(
		[]byte{tableInverse},
		varint.PrependLength([]byte(strings.ToLower(key))),
		varint.PrependLength([]byte(value)),
	)
}

func familyOf(addr netip.Addr) byte {
	if addr.Is4() {
		return 4
	}
	return 6
}

func networkPrefix(table byte, prefix netip.Prefix) []byte {
	return join([]byte{table, familyOf(prefix.Addr())}, prefix.Addr().AsSlice(), []byte{byte(prefix.Bits())})
}

// parseNetworkKey returns the network of an inetnum or route row key and
// the remaining bytes.
func parseNetworkKey(data []byte) (netip.Prefix, []byte, error) {
	if len(data) < 2 {
		return netip.Prefix{}, nil, ErrMalformedRow
	}
	size := 4
	if data[1] == 6 {
		size = 16
	}
	if len(data) < 2+size+1 {
		return netip.Prefix{}, nil, ErrMalformedRow
	}
	addr, ok := netip.AddrFromSlice(data[2 : 2+size])
	if !ok {
		return netip.Prefix{}, nil, ErrMalformedRow
	}
	return netip.PrefixFrom(addr, int(data[2+size])), data[2+size+1:], nil
}

func inetnumKey(prefix netip.Prefix) []byte {
	return networkPrefix(tableInetnum, prefix)
}

func routeKey(prefix netip.Prefix, asn uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, asn)
	return join(networkPrefix(tableRoute, prefix), buf)
}

func asBlockKey(start, end uint64) []byte {
	buf := make([]byte, 17)
	buf[0] = tableASBlock
	binary.BigEndian.PutUint64(buf[1:9], start)
	binary.BigEndian.PutUint64(buf[9:], end)
	return buf
}

func parseASBlockKey(data []byte) (start, end uint64, err error) {
	if len(data) != 17 {
		return 0, 0, ErrMalformedRow
	}
	return binary.BigEndian.Uint64(data[1:9]), binary.BigEndian.Uint64(data[9:]), nil
}

// reverseDomain returns the labels of a canonical domain name in reversed order.
func reverseDomain(name string) []string {
	labels := dns.SplitDomainName(name)
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}

// domainLabelSeparator joins reversed labels. It cannot occur in a label of
// a name accepted by object.CanonicalDomain.
const domainLabelSeparator = "\x00"

func domainKey(reversed []string) []byte {
	return join([]byte{tableDomain}, []byte(strings.Join(reversed, domainLabelSeparator)))
}

// parseDomainKey returns the domain name of a domain row key in the usual
// label order.
func parseDomainKey(data []byte) string {
	labels := strings.Split(string(data[1:]), domainLabelSeparator)
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ".")
}

func ownerPrefix(id uint64) []byte {
	return join([]byte{tableOwner}, packID(id))
}

func ownerKey(id uint64, derived []byte) []byte {
	return join(ownerPrefix(id), derived)
}
