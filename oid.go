package mib2dev

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidOID is returned when a dotted OID string cannot be parsed.
var ErrInvalidOID = errors.New("invalid OID")

// OID is an SNMP object identifier as a sequence of arc values.
//
// OIDs are ordered lexicographically by arc; when one OID is a strict prefix
// of another, the shorter one sorts first.
type OID []uint32

// ParseOID parses a dotted OID string (e.g., "1.3.6.1.2.1"). A single leading
// dot is accepted.
func ParseOID(s string) (OID, error) {
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidOID)
	}

	// Count dots to pre-allocate
	count := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			count++
		}
	}

	arcs := make(OID, 0, count)
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			segment := s[start:i]
			if segment == "" {
				return nil, fmt.Errorf("%w: empty component in %q", ErrInvalidOID, s)
			}
			// Reject leading zeros (e.g., "01", "007") - MIB convention
			if len(segment) > 1 && segment[0] == '0' {
				return nil, fmt.Errorf("%w: component %q has leading zeros", ErrInvalidOID, segment)
			}
			n, err := strconv.ParseUint(segment, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: component %q: %v", ErrInvalidOID, segment, err)
			}
			arcs = append(arcs, uint32(n))
			start = i + 1
		}
	}
	return arcs, nil
}

// MustParseOID is like ParseOID but panics on error.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String returns the dotted representation of the OID.
func (o OID) String() string {
	var b strings.Builder
	for i, arc := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return b.String()
}

// Compare returns -1, 0 or +1 depending on whether o sorts before, equal to,
// or after other.
func (o OID) Compare(other OID) int {
	n := min(len(o), len(other))
	for i := 0; i < n; i++ {
		switch {
		case o[i] < other[i]:
			return -1
		case o[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	}
	return 0
}

// Equal reports whether o and other have the same arcs.
func (o OID) Equal(other OID) bool {
	return o.Compare(other) == 0
}

// HasPrefix reports whether prefix is an ancestor of o or equal to it.
func (o OID) HasPrefix(prefix OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i, arc := range prefix {
		if o[i] != arc {
			return false
		}
	}
	return true
}

// Append returns a new OID made of o followed by the given arcs. The
// receiver is never modified.
func (o OID) Append(arcs ...uint32) OID {
	out := make(OID, 0, len(o)+len(arcs))
	out = append(out, o...)
	return append(out, arcs...)
}
