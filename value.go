package mib2dev

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
)

// Value is a typed SNMP value. Base selects which field carries the payload:
//
//	Integer32                       Int
//	Unsigned32, Counter*, Gauge32,
//	TimeTicks                       Uint
//	IpAddress, OCTET STRING,
//	Opaque, BITS                    Bytes
//	OBJECT IDENTIFIER               OID
//	unknown                         Text
type Value struct {
	Base  BaseType
	Int   int64
	Uint  uint64
	Bytes []byte
	OID   OID
	Text  string
}

// IntegerValue returns an INTEGER value.
func IntegerValue(v int64) Value { return Value{Base: BaseTypeInteger32, Int: v} }

// UnsignedValue returns a value of one of the unsigned application types.
func UnsignedValue(base BaseType, v uint64) Value { return Value{Base: base, Uint: v} }

// OctetsValue returns a value carried as raw octets.
func OctetsValue(base BaseType, b []byte) Value { return Value{Base: base, Bytes: b} }

// OIDValue returns an OBJECT IDENTIFIER value.
func OIDValue(oid OID) Value { return Value{Base: BaseTypeObjectIdentifier, OID: oid} }

// String renders the value the way it is offered to an operator for review.
// Octet strings that are not printable ASCII are shown as 0x-prefixed hex.
func (v Value) String() string {
	switch {
	case v.Base == BaseTypeInteger32:
		return strconv.FormatInt(v.Int, 10)
	case v.Base.IsUnsigned():
		return strconv.FormatUint(v.Uint, 10)
	case v.Base == BaseTypeIpAddress:
		if addr, ok := netip.AddrFromSlice(v.Bytes); ok && addr.Is4() {
			return addr.String()
		}
		return "0x" + hex.EncodeToString(v.Bytes)
	case v.Base.IsOctets():
		if v.Base == BaseTypeOctetString && isPrintable(v.Bytes) {
			return string(v.Bytes)
		}
		return "0x" + hex.EncodeToString(v.Bytes)
	case v.Base == BaseTypeObjectIdentifier:
		return v.OID.String()
	default:
		return v.Text
	}
}

// GoString supports %#v in logs and test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("Value{%s %s}", v.Base, v.String())
}

// isPrintable reports whether all bytes are printable ASCII (0x20-0x7E).
func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
