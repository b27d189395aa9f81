package mib2dev

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrVarintOverflow is returned when a varint is too large.
	ErrVarintOverflow = errors.New("varint overflow")
	// ErrUnsupportedVersion is returned when the schema version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

const (
	schemaVersion = 1
)

// Deserialize parses the postcard-encoded model produced by the WASM parser.
//
// Only what value synthesis needs is kept: the OID tree, object syntax and
// INDEX clauses, types with their constraints, and unresolved counts.
// Descriptions, access, status, DEFVAL and notifications are read past.
func Deserialize(data []byte) (*Model, error) {
	r := &postcardReader{data: data}

	version := r.u32()
	if r.err == nil && version != schemaVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, schemaVersion)
	}

	// Fingerprint (Option<[u8; 32]>)
	if r.boolean() {
		r.skip(32)
	}

	// String table: one blob plus (start, end) offsets. StrId N is strs[N-1].
	blob := r.str()
	strs := make([]string, r.count())
	for i := range strs {
		start, end := r.u32(), r.u32()
		if r.err == nil && int(end) <= len(blob) && start <= end {
			strs[i] = blob[start:end]
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading string table: %w", r.err)
	}
	str := func(id uint32) string {
		if id == 0 || int(id) > len(strs) {
			return ""
		}
		return strs[id-1]
	}

	m := &Model{}

	m.modules = make([]Module, r.count())
	for i := range m.modules {
		m.modules[i] = readModule(r, str)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading modules: %w", r.err)
	}

	m.nodes = make([]Node, r.count())
	for i := range m.nodes {
		m.nodes[i] = readNode(r, str)
		m.nodes[i].ID = uint32(i + 1)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading nodes: %w", r.err)
	}

	m.types = make([]Type, r.count())
	for i := range m.types {
		m.types[i] = readType(r, str)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading types: %w", r.err)
	}

	m.objects = make([]Object, r.count())
	for i := range m.objects {
		m.objects[i] = readObject(r, str)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading objects: %w", r.err)
	}

	for n := r.u32(); n > 0 && r.err == nil; n-- {
		skipNotification(r)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading notifications: %w", r.err)
	}

	m.roots = r.u32s()

	// Unresolved counts, in UnresolvedKind order
	for _, kind := range []UnresolvedKind{
		UnresolvedImport, UnresolvedType, UnresolvedOID, UnresolvedIndex, UnresolvedNotificationObject,
	} {
		m.countUnresolved(kind, int(r.u32()))
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading trailer: %w", r.err)
	}

	m.finish()
	return m, nil
}

func readModule(r *postcardReader, str func(uint32) string) Module {
	mod := Module{Name: str(r.u32())}
	r.u32() // last_updated
	r.u32() // contact_info
	r.u32() // organization
	r.u32() // description
	for n := r.u32(); n > 0 && r.err == nil; n-- {
		r.u32() // revision date
		r.u32() // revision description
	}
	return mod
}

func readNode(r *postcardReader, str func(uint32) string) Node {
	var n Node
	n.Subid = r.u32()
	n.Parent = r.u32()
	n.Children = r.u32s()
	n.Kind = NodeKind(r.u8())

	count := r.u32()
	for i := uint32(0); i < count && r.err == nil; i++ {
		def := NodeDef{
			Module: r.u32(),
			Label:  str(r.u32()),
			Object: r.u32(),
		}
		r.u32() // notification
		n.Definitions = append(n.Definitions, def)
	}
	return n
}

func readType(r *postcardReader, str func(uint32) string) Type {
	var t Type
	t.Module = r.u32()
	t.Name = str(r.u32())
	t.Base = BaseType(r.u8())
	t.Parent = r.u32()
	r.u8() // status
	t.IsTC = r.boolean()
	t.Hint = str(r.u32())
	r.u32() // description
	t.Size = readOptionalConstraint(r)
	t.Range = readOptionalConstraint(r)
	t.EnumValues = readOptionalEnumValues(r, str)
	t.BitDefs = readOptionalBitDefs(r, str)
	return t
}

func readOptionalConstraint(r *postcardReader) *Constraint {
	if !r.boolean() {
		return nil
	}
	c := &Constraint{}
	count := r.u32()
	for i := uint32(0); i < count && r.err == nil; i++ {
		lo, hi := r.i64(), r.i64()
		c.Ranges = append(c.Ranges, [2]int64{lo, hi})
	}
	return c
}

func readOptionalEnumValues(r *postcardReader, str func(uint32) string) []EnumValue {
	if !r.boolean() {
		return nil
	}
	count := r.u32()
	var values []EnumValue
	for i := uint32(0); i < count && r.err == nil; i++ {
		v := r.i64()
		values = append(values, EnumValue{Value: v, Name: str(r.u32())})
	}
	return values
}

func readOptionalBitDefs(r *postcardReader, str func(uint32) string) []BitDef {
	if !r.boolean() {
		return nil
	}
	count := r.u32()
	var defs []BitDef
	for i := uint32(0); i < count && r.err == nil; i++ {
		pos := r.u32()
		defs = append(defs, BitDef{Position: pos, Name: str(r.u32())})
	}
	return defs
}

func readObject(r *postcardReader, str func(uint32) string) Object {
	var o Object
	o.Node = r.u32()
	o.Module = r.u32()
	o.Name = str(r.u32())
	o.TypeID = r.u32()
	r.u8()  // access
	r.u8()  // status
	r.u32() // description
	r.u32() // units
	r.u32() // reference

	if r.boolean() {
		o.Index = &IndexSpec{}
		count := r.u32()
		for i := uint32(0); i < count && r.err == nil; i++ {
			obj := r.u32()
			o.Index.Items = append(o.Index.Items, IndexItem{Object: obj, Implied: r.boolean()})
		}
	}
	o.Augments = r.u32()
	skipDefVal(r)
	o.InlineEnum = readOptionalEnumValues(r, str)
	o.InlineBits = readOptionalBitDefs(r, str)
	return o
}

// skipDefVal reads past an Option<DefVal>.
func skipDefVal(r *postcardReader) {
	if !r.boolean() {
		return
	}
	r.u8() // kind
	if r.boolean() {
		r.i64() // int_val
	}
	if r.boolean() {
		r.u64() // uint_val
	}
	if r.boolean() {
		r.u32() // str_val
	}
	if r.boolean() {
		r.str() // raw_str
	}
	if r.boolean() {
		r.u32() // node_val
	}
	if r.boolean() {
		r.u32s() // bits_val
	}
}

func skipNotification(r *postcardReader) {
	r.u32()  // node
	r.u32()  // module
	r.u32()  // name
	r.u8()   // status
	r.u32()  // description
	r.u32()  // reference
	r.u32s() // objects
}

// === Postcard Reader ===

// postcardReader decodes postcard primitives. The first error sticks: later
// reads return zero values, so callers check err once per section.
type postcardReader struct {
	data []byte
	pos  int
	err  error
}

func (r *postcardReader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.data) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

// u32 reads a varint-encoded u32.
func (r *postcardReader) u32() uint32 {
	return uint32(r.varint(35))
}

// u64 reads a varint-encoded u64.
func (r *postcardReader) u64() uint64 {
	return r.varint(70)
}

func (r *postcardReader) varint(maxShift uint) uint64 {
	var result uint64
	var shift uint
	for r.err == nil {
		b := r.u8()
		if r.err != nil {
			return 0
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result
		}
		shift += 7
		if shift >= maxShift {
			r.err = ErrVarintOverflow
		}
	}
	return 0
}

// i64 reads a zigzag-encoded varint i64.
func (r *postcardReader) i64() int64 {
	u := r.u64()
	return int64(u>>1) ^ -int64(u&1)
}

func (r *postcardReader) boolean() bool {
	return r.u8() != 0
}

// count reads a sequence length. Every element takes at least one byte, so
// a length beyond the remaining data is corrupt.
func (r *postcardReader) count() int {
	n := r.u32()
	if r.err == nil && int64(n) > int64(len(r.data)-r.pos) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	return int(n)
}

// u32s reads a length-prefixed sequence of u32.
func (r *postcardReader) u32s() []uint32 {
	n := r.count()
	var out []uint32
	for i := 0; i < n && r.err == nil; i++ {
		v := r.u32()
		if r.err == nil {
			out = append(out, v)
		}
	}
	return out
}

func (r *postcardReader) str() string {
	length := int(r.u32())
	if r.err != nil {
		return ""
	}
	if length < 0 || r.pos+length > len(r.data) {
		r.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(r.data[r.pos : r.pos+length])
	r.pos += length
	return s
}

func (r *postcardReader) skip(n int) {
	if r.err != nil {
		return
	}
	if r.pos+n > len(r.data) {
		r.err = io.ErrUnexpectedEOF
		return
	}
	r.pos += n
}
