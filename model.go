package mib2dev

import (
	"cmp"
	"slices"
)

// Model is a resolved MIB model. Safe for concurrent read access.
//
// A Model is built either from compiled module documents (LoadDocuments) or
// from the WASM parser output (Compiler.Resolve). It is read-only after
// construction.
type Model struct {
	// Data arrays (1-indexed: NodeId N maps to nodes[N-1])
	modules []Module
	nodes   []Node
	types   []Type
	objects []Object

	// Root node IDs (typically iso=1)
	roots []uint32

	unresolved       []UnresolvedRef
	unresolvedCounts map[UnresolvedKind]int

	// Lookup indices (built by finish)
	oidIndex    map[string]uint32 // "1.3.6.1.2.1.1.1" -> NodeId
	qualIndex   map[string]uint32 // "SNMPv2-MIB::sysDescr" -> NodeId
	moduleIndex map[string]uint32 // "SNMPv2-MIB" -> ModuleId
	typeIndex   map[string]uint32 // "SNMPv2-TC::DisplayString" -> TypeId
}

// Module represents a resolved MIB module.
type Module struct {
	Name     string
	Identity uint32 // NodeId of MODULE-IDENTITY, 0 = none
}

// Node represents a position in the OID tree.
type Node struct {
	ID          uint32    // NodeId (1-indexed)
	Subid       uint32    // Arc value at this position
	Parent      uint32    // NodeId, 0 = root
	Children    []uint32  // []NodeId, ordered by Subid
	Kind        NodeKind  // Semantic type
	Definitions []NodeDef // Definitions at this OID
}

// NodeDef links a node to its definition(s).
type NodeDef struct {
	Module uint32 // ModuleId
	Label  string
	Object uint32 // ObjectId, 0 = none
}

// Object represents an OBJECT-TYPE definition.
type Object struct {
	Node       uint32      // NodeId
	Module     uint32      // ModuleId
	Name       string      // Descriptor
	TypeID     uint32      // TypeId, 0 = unresolved
	Index      *IndexSpec  // INDEX clause, nil if not a row
	Augments   uint32      // NodeId, 0 = none
	InlineEnum []EnumValue // Inline enumeration (not from type)
	InlineBits []BitDef    // Inline BITS (not from type)
}

// IndexSpec represents an INDEX clause.
type IndexSpec struct {
	Items []IndexItem
}

// IndexItem is a single index in an INDEX clause.
type IndexItem struct {
	Object  uint32 // NodeId of index object
	Implied bool   // Whether this index is IMPLIED
}

// Type represents a type definition.
type Type struct {
	Module     uint32      // ModuleId, 0 = built in
	Name       string      // Empty for anonymous refinements
	Base       BaseType    // Base type
	Parent     uint32      // TypeId for TC inheritance, 0 = none
	IsTC       bool        // Is textual convention
	Hint       string      // DISPLAY-HINT
	Size       *Constraint // Size constraint
	Range      *Constraint // Value range constraint
	EnumValues []EnumValue // Enumeration values
	BitDefs    []BitDef    // Bit definitions
}

// Constraint represents size or value constraints.
type Constraint struct {
	Ranges [][2]int64 // (min, max) pairs
}

// Contains reports whether v lies within any of the ranges. A nil or empty
// constraint contains every value.
func (c *Constraint) Contains(v int64) bool {
	if c == nil || len(c.Ranges) == 0 {
		return true
	}
	for _, r := range c.Ranges {
		if v >= r[0] && v <= r[1] {
			return true
		}
	}
	return false
}

// EnumValue is a named integer value.
type EnumValue struct {
	Value int64
	Name  string
}

// BitDef is a named bit position.
type BitDef struct {
	Position uint32
	Name     string
}

// UnresolvedKind identifies the category of an unresolved reference.
type UnresolvedKind uint8

const (
	UnresolvedImport UnresolvedKind = iota
	UnresolvedType
	UnresolvedOID
	UnresolvedIndex
	UnresolvedNotificationObject
)

func (k UnresolvedKind) String() string {
	switch k {
	case UnresolvedImport:
		return "import"
	case UnresolvedType:
		return "type"
	case UnresolvedOID:
		return "oid"
	case UnresolvedIndex:
		return "index"
	case UnresolvedNotificationObject:
		return "notification object"
	default:
		return "unknown"
	}
}

// UnresolvedRef describes a symbol that could not be resolved. Models decoded
// from the WASM parser only carry counts, so their refs have no details.
type UnresolvedRef struct {
	Kind     UnresolvedKind
	Module   string // Module containing the reference
	Referrer string // Definition making the reference
	Symbol   string // Name that could not be resolved
}

// === Query Methods ===

// GetNodeByOID looks up a node by OID. Returns nil if not found.
func (m *Model) GetNodeByOID(oid OID) *Node {
	if id, ok := m.oidIndex[oid.String()]; ok {
		return &m.nodes[id-1]
	}
	return nil
}

// GetNodeByQualifiedName looks up "MODULE::name" (e.g., "SNMPv2-MIB::sysDescr").
func (m *Model) GetNodeByQualifiedName(module, name string) *Node {
	if id, ok := m.qualIndex[module+"::"+name]; ok {
		return &m.nodes[id-1]
	}
	return nil
}

// GetModuleByName returns a module by name.
func (m *Model) GetModuleByName(name string) *Module {
	if id, ok := m.moduleIndex[name]; ok {
		return &m.modules[id-1]
	}
	return nil
}

// GetNode returns a node by ID.
func (m *Model) GetNode(id uint32) *Node {
	if id == 0 || int(id) > len(m.nodes) {
		return nil
	}
	return &m.nodes[id-1]
}

// GetModule returns a module by ID.
func (m *Model) GetModule(id uint32) *Module {
	if id == 0 || int(id) > len(m.modules) {
		return nil
	}
	return &m.modules[id-1]
}

// GetObject returns the object definition for a node.
// Returns nil if the node has no object definition.
func (m *Model) GetObject(n *Node) *Object {
	if n == nil {
		return nil
	}
	for _, def := range n.Definitions {
		if def.Object != 0 && int(def.Object) <= len(m.objects) {
			return &m.objects[def.Object-1]
		}
	}
	return nil
}

// GetType returns a type definition.
func (m *Model) GetType(id uint32) *Type {
	if id == 0 || int(id) > len(m.types) {
		return nil
	}
	return &m.types[id-1]
}

// GetIndexObjects returns the index column nodes for a row object, following
// AUGMENTS to the augmented row. Returns nil if the row has no INDEX clause.
func (m *Model) GetIndexObjects(obj *Object) []*Node {
	spec := m.indexSpec(obj)
	if spec == nil {
		return nil
	}
	nodes := make([]*Node, 0, len(spec.Items))
	for _, item := range spec.Items {
		if node := m.GetNode(item.Object); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// indexSpec returns the effective INDEX clause of a row, following AUGMENTS
// chains. Cycles end the search.
func (m *Model) indexSpec(obj *Object) *IndexSpec {
	seen := make(map[*Object]bool)
	for obj != nil && !seen[obj] {
		seen[obj] = true
		if obj.Index != nil && len(obj.Index.Items) > 0 {
			return obj.Index
		}
		if obj.Augments == 0 {
			return nil
		}
		obj = m.GetObject(m.GetNode(obj.Augments))
	}
	return nil
}

// GetParent returns the parent node in the OID tree.
// Returns nil if the node is nil or is a root node.
func (m *Model) GetParent(n *Node) *Node {
	if n == nil || n.Parent == 0 {
		return nil
	}
	return m.GetNode(n.Parent)
}

// GetOID computes the full OID of a node.
// Returns nil if the node is nil.
func (m *Model) GetOID(n *Node) OID {
	if n == nil {
		return nil
	}

	var arcs OID
	current := n
	for current != nil {
		arcs = append(arcs, current.Subid)
		if current.Parent == 0 {
			break
		}
		current = m.GetNode(current.Parent)
	}

	slices.Reverse(arcs)
	return arcs
}

// Walk traverses the tree depth-first from a starting node, visiting
// children in arc order. The callback returns false to skip the subtree.
func (m *Model) Walk(nodeID uint32, fn func(*Node) bool) {
	if nodeID == 0 || int(nodeID) > len(m.nodes) {
		return
	}
	node := &m.nodes[nodeID-1]
	if !fn(node) {
		return
	}
	for _, childID := range node.Children {
		m.Walk(childID, fn)
	}
}

// WalkAll traverses all nodes starting from the roots.
func (m *Model) WalkAll(fn func(*Node) bool) {
	for _, rootID := range m.roots {
		m.Walk(rootID, fn)
	}
}

// ModuleNames returns the names of all modules in load order.
func (m *Model) ModuleNames() []string {
	names := make([]string, len(m.modules))
	for i := range m.modules {
		names[i] = m.modules[i].Name
	}
	return names
}

// ModuleCount returns the number of modules.
func (m *Model) ModuleCount() int {
	return len(m.modules)
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int {
	return len(m.nodes)
}

// TypeCount returns the number of types.
func (m *Model) TypeCount() int {
	return len(m.types)
}

// ObjectCount returns the number of objects.
func (m *Model) ObjectCount() int {
	return len(m.objects)
}

// IsComplete returns true if all references were resolved.
func (m *Model) IsComplete() bool {
	for _, n := range m.unresolvedCounts {
		if n > 0 {
			return false
		}
	}
	return true
}

// UnresolvedCounts returns the number of unresolved references per kind.
func (m *Model) UnresolvedCounts() map[UnresolvedKind]int {
	out := make(map[UnresolvedKind]int, len(m.unresolvedCounts))
	for k, n := range m.unresolvedCounts {
		out[k] = n
	}
	return out
}

// Unresolved returns details of unresolved references, when known.
func (m *Model) Unresolved() []UnresolvedRef {
	return slices.Clone(m.unresolved)
}

// === Construction ===

func (m *Model) addUnresolved(ref UnresolvedRef) {
	m.unresolved = append(m.unresolved, ref)
	m.countUnresolved(ref.Kind, 1)
}

func (m *Model) countUnresolved(kind UnresolvedKind, n int) {
	if n == 0 {
		return
	}
	if m.unresolvedCounts == nil {
		m.unresolvedCounts = make(map[UnresolvedKind]int)
	}
	m.unresolvedCounts[kind] += n
}

// finish orders children by arc and builds the lookup indices. It must be
// called once all nodes, objects and types are in place.
func (m *Model) finish() {
	for i := range m.nodes {
		children := m.nodes[i].Children
		slices.SortStableFunc(children, func(a, b uint32) int {
			return cmp.Compare(m.nodes[a-1].Subid, m.nodes[b-1].Subid)
		})
	}
	slices.SortStableFunc(m.roots, func(a, b uint32) int {
		return cmp.Compare(m.nodes[a-1].Subid, m.nodes[b-1].Subid)
	})

	m.oidIndex = make(map[string]uint32, len(m.nodes))
	m.qualIndex = make(map[string]uint32)
	m.moduleIndex = make(map[string]uint32, len(m.modules))
	m.typeIndex = make(map[string]uint32)

	for i := range m.modules {
		if name := m.modules[i].Name; name != "" {
			m.moduleIndex[name] = uint32(i + 1)
		}
	}

	for i := range m.types {
		t := &m.types[i]
		if t.Name == "" {
			continue
		}
		modName := ""
		if mod := m.GetModule(t.Module); mod != nil {
			modName = mod.Name
		}
		m.typeIndex[modName+"::"+t.Name] = uint32(i + 1)
	}

	for _, rootID := range m.roots {
		m.buildNodeIndices(rootID, "")
	}
}

// buildNodeIndices recursively indexes nodes, computing OIDs incrementally.
// parentOID is the OID string of the parent node (empty for roots).
func (m *Model) buildNodeIndices(nodeID uint32, parentOID string) {
	node := m.GetNode(nodeID)
	if node == nil {
		return
	}

	oid := OID{node.Subid}.String()
	if parentOID != "" {
		oid = parentOID + "." + oid
	}
	m.oidIndex[oid] = node.ID

	for _, def := range node.Definitions {
		if def.Label == "" {
			continue
		}
		if mod := m.GetModule(def.Module); mod != nil && mod.Name != "" {
			m.qualIndex[mod.Name+"::"+def.Label] = node.ID
		}
	}

	for _, childID := range node.Children {
		m.buildNodeIndices(childID, oid)
	}
}
