package mib2dev

import (
	"testing"
)

func TestFormatTimeTicks(t *testing.T) {
	tests := []struct {
		value uint32
		want  string
	}{
		{0, "0:00:00.00"},
		{99, "0:00:00.99"},
		{150, "0:00:01.50"},
		{36061, "0:06:00.61"},
		{360000, "1:00:00.00"},
		{8640000, "1 day, 0:00:00.00"},
		{8643661, "1 day, 0:00:36.61"},
		{17280000, "2 days, 0:00:00.00"},
		{4294967295, "497 days, 2:27:52.95"},
	}

	for _, tt := range tests {
		if got := FormatTimeTicks(tt.value); got != tt.want {
			t.Errorf("FormatTimeTicks(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatOctetString(t *testing.T) {
	tests := []struct {
		name    string
		value   []byte
		hint    string
		hexCase HexCase
		want    string
	}{
		{"empty", nil, "", HexLower, ""},
		{"printable", []byte("hello world"), "", HexLower, "hello world"},
		{"binary", []byte{0x00, 0x1a, 0x2b}, "", HexLower, "00:1a:2b"},
		{"binary upper", []byte{0x0a, 0x1b}, "", HexUpper, "0A:1B"},
		{"trailing control", []byte("Hi\x00"), "", HexLower, "48:69:00"},
		{"hinted", []byte{0x0a, 0x1b, 0x2c}, "1x:", HexUpper, "0A:1B:2C"},
		{"bad hint falls back", []byte("abc"), "1z", HexLower, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatOctetString(tt.value, tt.hint, tt.hexCase); got != tt.want {
				t.Errorf("FormatOctetString(%v, %q) = %q, want %q", tt.value, tt.hint, got, tt.want)
			}
		})
	}
}

func TestApplyOctetHint(t *testing.T) {
	tests := []struct {
		name string
		hint string
		data []byte
		want string
	}{
		{"ipv4", "1d.1d.1d.1d", []byte{192, 168, 1, 1}, "192.168.1.1"},
		{"ipv4 zone", "1d.1d.1d.1d%4d", []byte{192, 168, 1, 1, 0, 0, 0, 3}, "192.168.1.1%3"},
		{"mac repeats last spec", "1x:", []byte{0x00, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e}, "00:1A:2B:3C:4D:5E"},
		{"ipv6", "2x:2x:2x:2x:2x:2x:2x:2x", []byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, "2001:0DB8:0000:0000:0000:0000:0000:0001"},
		{"display string", "255a", []byte("Hello, World!"), "Hello, World!"},
		{"multi-octet decimal", "4d", []byte{0x00, 0x01, 0x00, 0x00}, "65536"},
		{"octal", "1o", []byte{8}, "10"},
		{"star repeat", "*1x:", []byte{3, 0xaa, 0xbb, 0xcc}, "AA:BB:CC"},
		{"star terminator", "*1d./1d", []byte{3, 10, 20, 30, 40}, "10.20.30/40"},
		{"trailing separator dropped", "1d.", []byte{1, 2, 3}, "1.2.3"},
		{"date and time", "2d-1d-1d,1d:1d:1d.1d", []byte{0x07, 0xe6, 8, 15, 8, 1, 15, 0}, "2022-8-15,8:1:15.0"},
		{"value shorter than hint", "1d.1d.1d.1d", []byte{10, 20}, "10.20"},
		{"utf-8", "10t", []byte("hello"), "hello"},
		{"uuid", "4x-2x-2x-1x1x-6x", []byte{0x12, 0x34, 0x56, 0x78, 0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, "12345678-ABCD-EF01-2345-001122334455"},
		{"take beyond value", "10d", []byte{0, 0, 0, 0, 0, 0, 0, 1}, "1"},
		{"fixed prefix then repeat", "1d-1d.", []byte{1, 2, 3, 4, 5, 6}, "1-2.3.4.5.6"},
		{"zero width brackets", "0a[1a]1a", []byte("AB"), "[A]B"},
		{"zero width transport address", "0a[2x]0a:2d", []byte{0x20, 0x01, 0x00, 0x50}, "[2001]:80"},
		{"zero width mid hint", "1d-0a.1d", []byte{10, 20}, "10-.20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := applyOctetHint(tt.hint, tt.data, HexUpper)
			if !ok {
				t.Fatalf("applyOctetHint(%q, %v) failed", tt.hint, tt.data)
			}
			if got != tt.want {
				t.Errorf("applyOctetHint(%q, %v) = %q, want %q", tt.hint, tt.data, got, tt.want)
			}
		})
	}
}

func TestApplyOctetHintRejects(t *testing.T) {
	tests := []struct {
		name string
		hint string
		data []byte
	}{
		{"empty hint", "", []byte{1}},
		{"empty value", "1d", nil},
		{"unknown format", "1z", []byte{1}},
		{"no format", "1", []byte{1}},
		{"no length", "d", []byte{1}},
		{"decimal wider than 64 bits", "9d", []byte{1, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"octal wider than 64 bits", "9o", []byte{1, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"zero width cannot repeat", "0x", []byte{0x41, 0x42}},
		{"zero width with separator cannot repeat", "0a.", []byte{1, 2, 3}},
		{"length overflow", "99999999999999999999d", []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := applyOctetHint(tt.hint, tt.data, HexLower); ok {
				t.Errorf("applyOctetHint(%q, %v) = %q, want failure", tt.hint, tt.data, got)
			}
		})
	}
}

func TestParseOctetSpec(t *testing.T) {
	s, next, ok := parseOctetSpec("x*2d./1x", 1)
	if !ok {
		t.Fatal("parseOctetSpec failed")
	}
	want := octetSpec{repeat: true, take: 2, format: 'd', sep: '.', term: '/'}
	if s != want || next != 6 {
		t.Errorf("parseOctetSpec = %+v, %d; want %+v, 6", s, next, want)
	}

	// Without '*' the second delimiter starts nothing and is rejected later.
	s, next, ok = parseOctetSpec("1x:-", 0)
	if !ok || s.term != 0 || next != 3 {
		t.Errorf("parseOctetSpec(1x:-) = %+v, %d, %v", s, next, ok)
	}
}

func TestFormatBits(t *testing.T) {
	flags := &Syntax{Base: BaseTypeBits, Bits: []BitDef{{0, "alpha"}, {7, "omega"}}}

	tests := []struct {
		name  string
		syn   *Syntax
		value []byte
		want  string
	}{
		{"none set", flags, []byte{0x00}, "(none)"},
		{"empty", flags, nil, "(none)"},
		{"named", flags, []byte{0x81}, "{alpha, omega}"},
		{"unnamed", flags, []byte{0x40}, "{bit1}"},
		{"second octet", flags, []byte{0x00, 0x80}, "{bit8}"},
		{"nil syntax", nil, []byte{0xc0}, "{bit0, bit1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBits(tt.syn, tt.value); got != tt.want {
				t.Errorf("FormatBits(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatInteger(t *testing.T) {
	status := &Syntax{Base: BaseTypeInteger32, Enums: []EnumValue{{1, "up"}, {2, "down"}}}

	tests := []struct {
		syn   *Syntax
		value int64
		want  string
	}{
		{&Syntax{Base: BaseTypeInteger32}, 42, "42"},
		{status, 1, "up(1)"},
		{status, 2, "down(2)"},
		{status, 99, "99"},
		{nil, -50, "-50"},
	}

	for _, tt := range tests {
		if got := FormatInteger(tt.syn, tt.value); got != tt.want {
			t.Errorf("FormatInteger(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestIsPrintable(t *testing.T) {
	tests := []struct {
		data []byte
		want bool
	}{
		{[]byte("Hello World 123!"), true},
		{[]byte{0x20, 0x7e}, true},
		{[]byte{}, true},
		{[]byte{0x19}, false},
		{[]byte{0x7f}, false},
		{[]byte("hello\x00"), false},
		{[]byte("line\n"), false},
	}

	for _, tt := range tests {
		if got := isPrintable(tt.data); got != tt.want {
			t.Errorf("isPrintable(%v) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		syn  *Syntax
		v    Value
		want string
	}{
		{"integer", &Syntax{Base: BaseTypeInteger32}, IntegerValue(42), "42"},
		{"timeticks", nil, UnsignedValue(BaseTypeTimeTicks, 100), "0:00:01.00"},
		{"counter", nil, UnsignedValue(BaseTypeCounter32, 7), "7"},
		{"bits", &Syntax{Base: BaseTypeBits, Bits: []BitDef{{0, "enabled"}}}, OctetsValue(BaseTypeBits, []byte{0x80}), "{enabled}"},
		{"hinted octets", &Syntax{Base: BaseTypeOctetString, Hint: "1x:"}, OctetsValue(BaseTypeOctetString, []byte{0x00, 0x1a}), "00:1a"},
		{"ip address", nil, OctetsValue(BaseTypeIpAddress, []byte{10, 0, 0, 1}), "10.0.0.1"},
		{"oid", nil, OIDValue(OID{1, 3, 6, 1}), "1.3.6.1"},
		{"unknown", nil, Value{Base: BaseTypeUnknown, Text: "?"}, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.syn, tt.v); got != tt.want {
				t.Errorf("FormatValue = %q, want %q", got, tt.want)
			}
		})
	}
}
