package mib2dev

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
)

// Encoder turns one record into its on-disk form.
type Encoder interface {
	Encode(oid OID, v Value) ([]byte, error)
}

// snmprec type tags (BER tag numbers as written by snmpsim).
const (
	tagInteger   = "2"
	tagOctets    = "4"
	tagOID       = "6"
	tagIpAddress = "64"
	tagCounter32 = "65"
	tagGauge32   = "66"
	tagTimeTicks = "67"
	tagOpaque    = "68"
	tagCounter64 = "70"
)

// SnmprecEncoder writes snmpsim ".snmprec" lines: OID|TAG|VALUE followed by
// a newline. Octet values that are not printable ASCII, or that contain the
// field separator, get the "x" tag suffix and are written as hex.
type SnmprecEncoder struct{}

// Encode implements Encoder.
func (SnmprecEncoder) Encode(oid OID, v Value) ([]byte, error) {
	if len(oid) == 0 {
		return nil, fmt.Errorf("snmprec: empty OID")
	}

	var tag, text string
	switch v.Base {
	case BaseTypeInteger32:
		tag, text = tagInteger, strconv.FormatInt(v.Int, 10)
	case BaseTypeUnsigned32, BaseTypeGauge32:
		tag, text = tagGauge32, strconv.FormatUint(v.Uint, 10)
	case BaseTypeCounter32:
		tag, text = tagCounter32, strconv.FormatUint(v.Uint, 10)
	case BaseTypeTimeTicks:
		tag, text = tagTimeTicks, strconv.FormatUint(v.Uint, 10)
	case BaseTypeCounter64:
		tag, text = tagCounter64, strconv.FormatUint(v.Uint, 10)
	case BaseTypeIpAddress:
		addr, ok := netip.AddrFromSlice(v.Bytes)
		if !ok || !addr.Is4() {
			return nil, fmt.Errorf("snmprec: %s: %w", oid, ErrInvalidIpAddress)
		}
		tag, text = tagIpAddress, addr.String()
	case BaseTypeOctetString, BaseTypeBits:
		tag, text = octets(tagOctets, v.Bytes)
	case BaseTypeOpaque:
		tag, text = tagOpaque+"x", hex.EncodeToString(v.Bytes)
	case BaseTypeObjectIdentifier:
		tag, text = tagOID, v.OID.String()
	default:
		tag, text = tagOctets, "?"
	}

	line := make([]byte, 0, 32+len(text))
	line = append(line, oid.String()...)
	line = append(line, '|')
	line = append(line, tag...)
	line = append(line, '|')
	line = append(line, text...)
	return append(line, '\n'), nil
}

func octets(tag string, b []byte) (string, string) {
	if isPrintable(b) && bytes.IndexByte(b, '|') < 0 {
		return tag, string(b)
	}
	return tag + "x", hex.EncodeToString(b)
}
