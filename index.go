package mib2dev

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by EncodeIndex.
var (
	ErrNoIndex            = errors.New("row has no index columns")
	ErrValueCountMismatch = errors.New("index value count mismatch")
	ErrUnsupportedType    = errors.New("type cannot be used in an index")
	ErrInvalidIpAddress   = errors.New("IpAddress needs 4 octets")
	ErrNegativeIndex      = errors.New("negative integer cannot be an index")
	ErrFixedSizeMismatch  = errors.New("value length does not match fixed SIZE")
)

// EncodeIndex encodes index values into the instance suffix of a table row,
// following the INDEX clause columns in order (RFC 2578 section 7.7):
//
//   - integers take one sub-identifier
//   - IpAddress takes four
//   - strings and OIDs are preceded by their length, unless the column is
//     IMPLIED and last, or the string has a fixed SIZE
func EncodeIndex(cols []IndexColumn, values []Value) (OID, error) {
	if len(cols) == 0 {
		return nil, ErrNoIndex
	}
	if len(values) != len(cols) {
		return nil, fmt.Errorf("%w: %d columns, %d values", ErrValueCountMismatch, len(cols), len(values))
	}

	var suffix OID
	for i, col := range cols {
		var err error
		suffix, err = appendIndexValue(suffix, col, values[i], col.Implied && i == len(cols)-1)
		if err != nil {
			return nil, fmt.Errorf("index %d (%s): %w", i, col.QualifiedName(), err)
		}
	}
	return suffix, nil
}

func appendIndexValue(dst OID, col IndexColumn, v Value, implied bool) (OID, error) {
	base := BaseTypeUnknown
	if col.Syntax != nil {
		base = col.Syntax.Base
	}

	switch {
	case base.IsInteger():
		n, err := indexInteger(v)
		if err != nil {
			return nil, err
		}
		return append(dst, n), nil

	case base == BaseTypeIpAddress:
		if len(v.Bytes) != 4 {
			return nil, ErrInvalidIpAddress
		}
		return appendOctets(dst, v.Bytes), nil

	case base.IsOctets():
		fixed := col.Syntax.FixedSize()
		if fixed > 0 && len(v.Bytes) != fixed {
			return nil, fmt.Errorf("%w: %d octets, SIZE (%d)", ErrFixedSizeMismatch, len(v.Bytes), fixed)
		}
		if fixed == 0 && !implied {
			dst = append(dst, uint32(len(v.Bytes)))
		}
		return appendOctets(dst, v.Bytes), nil

	case base == BaseTypeObjectIdentifier:
		if !implied {
			dst = append(dst, uint32(len(v.OID)))
		}
		return append(dst, v.OID...), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, base)
}

func indexInteger(v Value) (uint32, error) {
	n := v.Uint
	if v.Base == BaseTypeInteger32 {
		if v.Int < 0 {
			return 0, fmt.Errorf("%w: %d", ErrNegativeIndex, v.Int)
		}
		n = uint64(v.Int)
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d exceeds 32 bits", ErrUnsupportedType, n)
	}
	return uint32(n), nil
}

func appendOctets(dst OID, b []byte) OID {
	for _, c := range b {
		dst = append(dst, uint32(c))
	}
	return dst
}
