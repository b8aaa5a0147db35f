package object

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"unicode"

	"github.com/miekg/dns"
)

// Kind selects the derived index an object class is stored in.
type Kind uint8

// Kinds.
const (
	KindGeneric Kind = iota
	KindInetnum
	KindRoute
	KindASBlock
	KindDomain
	KindDatabase
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindInetnum:
		return "inetnum"
	case KindRoute:
		return "route"
	case KindASBlock:
		return "as-block"
	case KindDomain:
		return "domain"
	case KindDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// Model describes the class semantics of registry objects that the database
// needs to maintain its indexes.
type Model interface {
	// PrimarySpec returns the class and key identifying the object.
	PrimarySpec(obj *Object) (class, key string, err error)
	// InverseFields returns the lines of the object whose key is in keys.
	InverseFields(obj *Object, keys KeySet) []AttributeLine
	// Kind returns the kind of the given class.
	Kind(class string) Kind
	// IPNetwork returns the network of an inetnum or route object.
	IPNetwork(obj *Object) (netip.Prefix, error)
	// Origin returns the origin AS number of a route object.
	Origin(obj *Object) (uint32, error)
	// ASRange returns the inclusive boundaries of an as-block object.
	ASRange(obj *Object) (start, end uint64, err error)
	// DomainName returns the canonical name of a domain object.
	DomainName(obj *Object) (string, error)
}

// NicModel is the Model of network information centre registries.
type NicModel struct{}

var _ Model = NicModel{}

// PrimarySpec returns the trimmed first line of the object.
func (NicModel) PrimarySpec(obj *Object) (class, key string, err error) {
	if len(obj.Fields) == 0 {
		return "", "", ErrEmptyObject
	}
	class = strings.TrimSpace(obj.Fields[0].Key)
	key = strings.TrimSpace(obj.Fields[0].Value)
	if class == "" || key == "" {
		return "", "", fmt.Errorf("%w: empty class or key", ErrInvalidObject)
	}
	return class, key, nil
}

// InverseFields returns all lines with a key in keys and a non-empty value.
func (NicModel) InverseFields(obj *Object, keys KeySet) []AttributeLine {
	var lines []AttributeLine
	for _, line := range obj.Fields {
		if keys.Has(line.Key) && strings.TrimSpace(line.Value) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Kind returns the kind of class.
func (NicModel) Kind(class string) Kind {
	switch strings.ToLower(class) {
	case "inetnum", "inet6num":
		return KindInetnum
	case "route", "route6":
		return KindRoute
	case "as-block":
		return KindASBlock
	case "domain":
		return KindDomain
	case "database":
		return KindDatabase
	default:
		return KindGeneric
	}
}

// IPNetwork parses the key of the object as a CIDR prefix or as an address
// range that covers exactly one prefix. The returned prefix is masked.
func (NicModel) IPNetwork(obj *Object) (netip.Prefix, error) {
	value := obj.Key()
	if cidr, ok := obj.Get("cidr"); ok {
		value = cidr
	}
	prefix, err := ParseNetwork(value)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %s", ErrInvalidObject, err)
	}
	return prefix, nil
}

// Origin parses the first token of the origin line, of the form AS<digits>.
func (NicModel) Origin(obj *Object) (uint32, error) {
	value, ok := obj.Get("origin")
	if !ok {
		return 0, fmt.Errorf("%w: missing origin", ErrInvalidObject)
	}
	asn, err := ParseASN(firstToken(value))
	if err != nil {
		return 0, err
	}
	if asn > 0xFFFFFFFF {
		return 0, fmt.Errorf("%w: origin %q out of range", ErrInvalidObject, value)
	}
	return uint32(asn), nil
}

// ASRange parses the key of the object in the form "AS<start> - AS<end>".
func (NicModel) ASRange(obj *Object) (start, end uint64, err error) {
	lower, upper, found := strings.Cut(obj.Key(), "-")
	if !found {
		return 0, 0, fmt.Errorf("%w: as-block %q is not a range", ErrInvalidObject, obj.Key())
	}
	start, err = ParseASN(strings.TrimSpace(lower))
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseASN(strings.TrimSpace(upper))
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, fmt.Errorf("%w: as-block %q has start after end", ErrInvalidObject, obj.Key())
	}
	return start, end, nil
}

// DomainName returns the canonical, lower-cased form of the key.
func (NicModel) DomainName(obj *Object) (string, error) {
	return CanonicalDomain(obj.Key())
}

// ParseASN parses an AS number in the form AS<digits>. The prefix is
// matched case-insensitively and may be omitted.
func ParseASN(value string) (uint64, error) {
	digits := value
	if len(digits) >= 2 && strings.EqualFold(digits[:2], "as") {
		digits = digits[2:]
	}
	asn, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid AS number %q", ErrInvalidObject, value)
	}
	return asn, nil
}

// ParseNetwork parses a CIDR prefix, a single address or an "a - b" range
// spanning exactly one prefix.
func ParseNetwork(value string) (netip.Prefix, error) {
	value = strings.TrimSpace(value)
	if lower, upper, found := strings.Cut(value, "-"); found {
		return rangeToPrefix(strings.TrimSpace(lower), strings.TrimSpace(upper))
	}
	if strings.Contains(value, "/") {
		prefix, err := netip.ParsePrefix(value)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func rangeToPrefix(lower, upper string) (netip.Prefix, error) {
	first, err := netip.ParseAddr(lower)
	if err != nil {
		return netip.Prefix{}, err
	}
	last, err := netip.ParseAddr(upper)
	if err != nil {
		return netip.Prefix{}, err
	}
	if first.BitLen() != last.BitLen() {
		return netip.Prefix{}, fmt.Errorf("range %s - %s mixes address families", lower, upper)
	}
	for bits := 0; bits <= first.BitLen(); bits++ {
		prefix := netip.PrefixFrom(first, bits).Masked()
		if prefix.Addr() == first && LastAddr(prefix) == last {
			return prefix, nil
		}
	}
	return netip.Prefix{}, fmt.Errorf("range %s - %s is not a single prefix", lower, upper)
}

// LastAddr returns the last address covered by prefix.
func LastAddr(prefix netip.Prefix) netip.Addr {
	raw := prefix.Masked().Addr().AsSlice()
	bits := prefix.Bits()
	for i := range raw {
		hostBits := (i+1)*8 - bits
		switch {
		case hostBits >= 8:
			raw[i] = 0xFF
		case hostBits > 0:
			raw[i] |= byte(1<<hostBits) - 1
		}
	}
	addr, _ := netip.AddrFromSlice(raw)
	return addr
}

// CanonicalDomain validates name and returns it lower-cased without the trailing dot.
func CanonicalDomain(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		return "", fmt.Errorf("%w: empty domain name", ErrInvalidObject)
	}
	if _, ok := dns.IsDomainName(name); !ok || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: invalid domain name %q", ErrInvalidObject, name)
	}
	return strings.TrimSuffix(dns.CanonicalName(name), "."), nil
}

func firstToken(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizeValue returns the lower-cased first whitespace separated token of value.
func NormalizeValue(value string) string {
	return strings.ToLower(firstToken(value))
}
