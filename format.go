package mib2dev

import (
	"fmt"
	"strconv"
	"strings"
)

// HexCase controls uppercase vs lowercase hex output.
type HexCase bool

const (
	// HexLower outputs lowercase hex digits (0a:1b:2c).
	HexLower HexCase = false
	// HexUpper outputs uppercase hex digits (0A:1B:2C).
	HexUpper HexCase = true
)

const (
	hexLower = "0123456789abcdef"
	hexUpper = "0123456789ABCDEF"
)

func hexTable(hexCase HexCase) string {
	if hexCase == HexUpper {
		return hexUpper
	}
	return hexLower
}

// writeHex writes b as hex digit pairs, with sep between octets when sep is
// not zero.
func writeHex(w *strings.Builder, b []byte, digits string, sep byte) {
	for i, c := range b {
		if i > 0 && sep != 0 {
			w.WriteByte(sep)
		}
		w.WriteByte(digits[c>>4])
		w.WriteByte(digits[c&0x0f])
	}
}

// FormatValue renders a synthesized value for humans: enumeration labels,
// DISPLAY-HINT, named bits and TimeTicks durations are applied. It is used
// for log output; records are written by an Encoder.
func FormatValue(syn *Syntax, v Value) string {
	if syn == nil {
		syn = unknownSyntax
	}
	switch v.Base {
	case BaseTypeInteger32:
		return FormatInteger(syn, v.Int)
	case BaseTypeTimeTicks:
		return FormatTimeTicks(uint32(v.Uint))
	case BaseTypeBits:
		return FormatBits(syn, v.Bytes)
	case BaseTypeOctetString, BaseTypeOpaque:
		return FormatOctetString(v.Bytes, syn.Hint, HexLower)
	default:
		return v.String()
	}
}

// FormatInteger formats an integer, adding the enumeration label when the
// syntax names the value, e.g. "up(1)".
func FormatInteger(syn *Syntax, value int64) string {
	s := strconv.FormatInt(value, 10)
	if name := syn.EnumName(value); name != "" {
		return name + "(" + s + ")"
	}
	return s
}

// FormatOctetString formats an OCTET STRING value using its DISPLAY-HINT.
// Without a usable hint, printable ASCII is shown as text and anything else
// as colon separated hex.
func FormatOctetString(value []byte, hint string, hexCase HexCase) string {
	if len(value) == 0 {
		return ""
	}
	if s, ok := applyOctetHint(hint, value, hexCase); ok {
		return s
	}
	if isPrintable(value) {
		return string(value)
	}
	var b strings.Builder
	writeHex(&b, value, hexTable(hexCase), ':')
	return b.String()
}

// octetSpec is one octet-format specification of an RFC 2579 DISPLAY-HINT:
//
//	['*'] length format [separator [terminator]]
//
// The terminator is only allowed after a '*' repeat indicator.
type octetSpec struct {
	repeat bool // first octet of the value is the repeat count
	take   int  // octets consumed per application
	format byte // d, x, o, a or t
	sep    byte // 0 = none
	term   byte // 0 = none
}

// consumes reports whether applying the spec always uses up data. A hint
// whose last spec does not cannot be repeated over the remaining value.
func (s octetSpec) consumes() bool {
	return s.take > 0 || s.repeat
}

// parseOctetSpec reads the specification starting at hint[pos]. It returns
// the position after it.
func parseOctetSpec(hint string, pos int) (octetSpec, int, bool) {
	var s octetSpec
	if pos < len(hint) && hint[pos] == '*' {
		s.repeat = true
		pos++
	}

	start := pos
	for pos < len(hint) && isDigit(hint[pos]) {
		pos++
	}
	take, err := strconv.Atoi(hint[start:pos])
	if err != nil {
		return s, pos, false
	}
	s.take = take

	if pos >= len(hint) || strings.IndexByte("dxoat", hint[pos]) < 0 {
		return s, pos, false
	}
	s.format = hint[pos]
	pos++

	isDelim := func(p int) bool { return p < len(hint) && !isDigit(hint[p]) && hint[p] != '*' }
	if isDelim(pos) {
		s.sep = hint[pos]
		pos++
		if s.repeat && isDelim(pos) {
			s.term = hint[pos]
			pos++
		}
	}
	return s, pos, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// apply renders the spec over the front of data and returns what is left.
// Separators are not written after the last octet of the value, nor in place
// of a terminator.
func (s octetSpec) apply(w *strings.Builder, data []byte, digits string) ([]byte, bool) {
	count := 1
	if s.repeat {
		count = int(data[0])
		data = data[1:]
	}

	for i := 0; i < count && len(data) > 0; i++ {
		n := min(s.take, len(data))
		chunk := data[:n]
		data = data[n:]

		switch s.format {
		case 'd', 'o':
			if len(chunk) > 8 {
				return nil, false
			}
			var v uint64
			for _, c := range chunk {
				v = v<<8 | uint64(c)
			}
			base := 10
			if s.format == 'o' {
				base = 8
			}
			w.WriteString(strconv.FormatUint(v, base))
		case 'x':
			writeHex(w, chunk, digits, 0)
		default: // 'a', 't'
			w.Write(chunk)
		}

		lastOfGroup := s.term != 0 && i == count-1
		if s.sep != 0 && len(data) > 0 && !lastOfGroup {
			w.WriteByte(s.sep)
		}
	}

	if s.term != 0 && len(data) > 0 {
		w.WriteByte(s.term)
	}
	return data, true
}

// applyOctetHint formats data with an RFC 2579 DISPLAY-HINT. The last
// specification repeats until the value is used up. It returns false when the
// hint is empty or malformed, or the value is empty.
func applyOctetHint(hint string, data []byte, hexCase HexCase) (string, bool) {
	if hint == "" || len(data) == 0 {
		return "", false
	}

	digits := hexTable(hexCase)
	var w strings.Builder
	w.Grow(len(data) * 3)

	pos, lastStart := 0, 0
	var last octetSpec
	for len(data) > 0 {
		start := pos
		if pos >= len(hint) {
			if !last.consumes() {
				return "", false
			}
			start = lastStart
		}

		spec, next, ok := parseOctetSpec(hint, start)
		if !ok {
			return "", false
		}
		if data, ok = spec.apply(&w, data, digits); !ok {
			return "", false
		}
		pos, lastStart, last = next, start, spec
	}
	return w.String(), true
}

// FormatBits lists the set bits of a BITS value by name, e.g.
// "{up, bit9}". Bit 0 is the most significant bit of the first octet.
func FormatBits(syn *Syntax, value []byte) string {
	var names []string
	for pos := range uint32(len(value) * 8) {
		if value[pos/8]&(0x80>>(pos%8)) == 0 {
			continue
		}
		names = append(names, bitName(syn, pos))
	}
	if len(names) == 0 {
		return "(none)"
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func bitName(syn *Syntax, pos uint32) string {
	if syn != nil {
		for _, b := range syn.Bits {
			if b.Position == pos {
				return b.Name
			}
		}
	}
	return "bit" + strconv.FormatUint(uint64(pos), 10)
}

// FormatTimeTicks formats hundredths of a second as "H:MM:SS.cc", prefixed
// with the day count when there is one.
func FormatTimeTicks(value uint32) string {
	cs := value % 100
	secs := value / 100
	days := secs / 86400
	secs %= 86400

	clock := fmt.Sprintf("%d:%02d:%02d.%02d", secs/3600, secs/60%60, secs%60, cs)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}
