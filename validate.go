package mib2dev

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
)

// ErrInconsistentValue is returned by a Validator when a candidate does not
// satisfy the syntax it is checked against.
var ErrInconsistentValue = errors.New("inconsistent value")

// maxOIDArcs is the SMI limit on the number of sub-identifiers.
const maxOIDArcs = 128

// Validator checks a candidate against a syntax and converts it to a Value.
type Validator interface {
	Validate(syn *Syntax, candidate any) (Value, error)
}

// ConstraintValidator validates candidates against the base type bounds and
// the SIZE, range, enumeration and named-bit constraints of a Syntax.
//
// Candidates may be a Value, a string as typed by an operator, an int,
// int64, uint64, []byte or OID.
type ConstraintValidator struct{}

// Validate implements Validator.
func (ConstraintValidator) Validate(syn *Syntax, candidate any) (Value, error) {
	if syn == nil {
		syn = unknownSyntax
	}
	candidate = unwrapValue(candidate)

	switch {
	case syn.Base == BaseTypeInteger32:
		return validateInteger(syn, candidate)
	case syn.Base.IsUnsigned():
		return validateUnsigned(syn, candidate)
	case syn.Base == BaseTypeIpAddress:
		return validateIpAddress(candidate)
	case syn.Base == BaseTypeBits:
		return validateBits(syn, candidate)
	case syn.Base.IsOctets():
		return validateOctets(syn, candidate)
	case syn.Base == BaseTypeObjectIdentifier:
		return validateOID(candidate)
	default:
		return Value{Base: syn.Base, Text: fmt.Sprint(candidate)}, nil
	}
}

// unwrapValue reduces a Value to the primitive carried in its payload field.
func unwrapValue(candidate any) any {
	v, ok := candidate.(Value)
	if !ok {
		return candidate
	}
	switch {
	case v.Base == BaseTypeInteger32:
		return v.Int
	case v.Base.IsUnsigned():
		return v.Uint
	case v.Base == BaseTypeIpAddress, v.Base.IsOctets():
		return v.Bytes
	case v.Base == BaseTypeObjectIdentifier:
		return v.OID
	default:
		return v.Text
	}
}

func inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistentValue, fmt.Sprintf(format, args...))
}

func validateInteger(syn *Syntax, candidate any) (Value, error) {
	var n int64
	switch c := candidate.(type) {
	case int64:
		n = c
	case int:
		n = int64(c)
	case uint64:
		if c > math.MaxInt64 {
			return Value{}, inconsistent("%d out of range for %s", c, syn.TypeName())
		}
		n = int64(c)
	case string:
		s := strings.TrimSpace(c)
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			found := false
			for _, ev := range syn.Enums {
				if ev.Name == s {
					parsed, found = ev.Value, true
					break
				}
			}
			if !found {
				return Value{}, inconsistent("%q is not an integer", c)
			}
		}
		n = parsed
	default:
		return Value{}, inconsistent("%T is not an integer", candidate)
	}

	if n < math.MinInt32 || n > math.MaxInt32 {
		return Value{}, inconsistent("%d out of range for %s", n, syn.TypeName())
	}
	if !syn.Range.Contains(n) {
		return Value{}, inconsistent("%d outside %s", n, formatRanges(syn.Range))
	}
	if len(syn.Enums) > 0 && syn.EnumName(n) == "" {
		return Value{}, inconsistent("%d is not an enumerated value of %s", n, syn.TypeName())
	}
	return IntegerValue(n), nil
}

func validateUnsigned(syn *Syntax, candidate any) (Value, error) {
	var n uint64
	switch c := candidate.(type) {
	case uint64:
		n = c
	case int64:
		if c < 0 {
			return Value{}, inconsistent("%d is negative", c)
		}
		n = uint64(c)
	case int:
		if c < 0 {
			return Value{}, inconsistent("%d is negative", c)
		}
		n = uint64(c)
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return Value{}, inconsistent("%q is not an unsigned integer", c)
		}
		n = parsed
	default:
		return Value{}, inconsistent("%T is not an unsigned integer", candidate)
	}

	if syn.Base != BaseTypeCounter64 && n > math.MaxUint32 {
		return Value{}, inconsistent("%d out of range for %s", n, syn.TypeName())
	}
	if syn.Range != nil && (n > math.MaxInt64 || !syn.Range.Contains(int64(n))) {
		return Value{}, inconsistent("%d outside %s", n, formatRanges(syn.Range))
	}
	return UnsignedValue(syn.Base, n), nil
}

func validateIpAddress(candidate any) (Value, error) {
	switch c := candidate.(type) {
	case string:
		addr, err := netip.ParseAddr(strings.TrimSpace(c))
		if err != nil || !addr.Is4() {
			return Value{}, inconsistent("%q is not an IPv4 address", c)
		}
		b := addr.As4()
		return OctetsValue(BaseTypeIpAddress, b[:]), nil
	case []byte:
		if len(c) != 4 {
			return Value{}, inconsistent("IpAddress needs 4 octets, got %d", len(c))
		}
		return OctetsValue(BaseTypeIpAddress, c), nil
	}
	return Value{}, inconsistent("%T is not an IpAddress", candidate)
}

func validateOctets(syn *Syntax, candidate any) (Value, error) {
	var b []byte
	switch c := candidate.(type) {
	case string:
		b = []byte(c)
	case []byte:
		b = c
	default:
		return Value{}, inconsistent("%T is not an octet string", candidate)
	}
	if !syn.Size.Contains(int64(len(b))) {
		return Value{}, inconsistent("length %d outside SIZE %s", len(b), formatRanges(syn.Size))
	}
	return OctetsValue(syn.Base, b), nil
}

// validateBits accepts raw octets or a list of bit names and positions
// separated by commas or spaces.
func validateBits(syn *Syntax, candidate any) (Value, error) {
	switch c := candidate.(type) {
	case []byte:
		return OctetsValue(BaseTypeBits, c), nil
	case string:
		var mask []byte
		for _, tok := range strings.FieldsFunc(c, func(r rune) bool { return r == ',' || r == ' ' }) {
			pos, ok := bitPosition(syn, tok)
			if !ok {
				return Value{}, inconsistent("%q is not a bit of %s", tok, syn.TypeName())
			}
			for len(mask) <= int(pos/8) {
				mask = append(mask, 0)
			}
			mask[pos/8] |= 0x80 >> (pos % 8)
		}
		return OctetsValue(BaseTypeBits, mask), nil
	}
	return Value{}, inconsistent("%T is not a BITS value", candidate)
}

func bitPosition(syn *Syntax, tok string) (uint32, bool) {
	for _, bd := range syn.Bits {
		if bd.Name == tok {
			return bd.Position, true
		}
	}
	n, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		return 0, false
	}
	if len(syn.Bits) == 0 {
		return uint32(n), true
	}
	for _, bd := range syn.Bits {
		if bd.Position == uint32(n) {
			return bd.Position, true
		}
	}
	return 0, false
}

func validateOID(candidate any) (Value, error) {
	var oid OID
	switch c := candidate.(type) {
	case OID:
		oid = c
	case string:
		parsed, err := ParseOID(strings.TrimSpace(c))
		if err != nil {
			return Value{}, inconsistent("%v", err)
		}
		oid = parsed
	default:
		return Value{}, inconsistent("%T is not an OBJECT IDENTIFIER", candidate)
	}
	if len(oid) > maxOIDArcs {
		return Value{}, inconsistent("OID has %d arcs, limit is %d", len(oid), maxOIDArcs)
	}
	return OIDValue(oid), nil
}

// formatRanges renders a constraint in SMI notation, e.g. "(1..10 | 20)".
func formatRanges(c *Constraint) string {
	if c == nil {
		return "()"
	}
	parts := make([]string, len(c.Ranges))
	for i, r := range c.Ranges {
		if r[0] == r[1] {
			parts[i] = strconv.FormatInt(r[0], 10)
		} else {
			parts[i] = strconv.FormatInt(r[0], 10) + ".." + strconv.FormatInt(r[1], 10)
		}
	}
	return "(" + strings.Join(parts, " | ") + ")"
}
