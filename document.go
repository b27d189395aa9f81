package mib2dev

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when a compiled module document is malformed.
var ErrInvalidDocument = errors.New("invalid MIB document")

// A compiled module document describes one MIB module as a YAML or JSON
// mapping, in the layout produced by pysmi's JSON code generator:
//
//	meta:
//	  module: TEST-MIB
//	imports:
//	  class: imports
//	  SNMPv2-SMI: [MODULE-IDENTITY, OBJECT-TYPE, Integer32, enterprises]
//	testMIB:
//	  name: testMIB
//	  oid: 1.3.6.1.4.1.99999
//	  class: moduleidentity
//	testScalar:
//	  name: testScalar
//	  oid: 1.3.6.1.4.1.99999.1.1
//	  class: objecttype
//	  nodetype: scalar
//	  syntax: {type: Integer32, class: type, constraints: {range: [{min: 1, max: 10}]}}
//
// Every other key is a symbol. Textual conventions use class
// "textualconvention" with their base in "type". Rows list their INDEX in
// "indices" ({module, object, implied}) or name the augmented row in
// "augmention".
type docModule struct {
	name    string
	imports map[string]string // symbol -> module
	symbols []docSymbol
}

type docSymbol struct {
	Name        string     `yaml:"name"`
	OID         string     `yaml:"oid"`
	Class       string     `yaml:"class"`
	NodeType    string     `yaml:"nodetype"`
	Syntax      *docSyntax `yaml:"syntax"`
	Type        *docSyntax `yaml:"type"`
	DisplayHint string     `yaml:"displayhint"`
	Indices     []docIndex `yaml:"indices"`
	Augmention  *docIndex  `yaml:"augmention"`
}

type docSyntax struct {
	Type        string            `yaml:"type"`
	Class       string            `yaml:"class"`
	Constraints *docConstraints   `yaml:"constraints"`
	Bits        map[string]uint32 `yaml:"bits"`
}

type docConstraints struct {
	Range       []docRange       `yaml:"range"`
	Size        []docRange       `yaml:"size"`
	Enumeration map[string]int64 `yaml:"enumeration"`
}

type docRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

type docIndex struct {
	Module  string  `yaml:"module"`
	Object  string  `yaml:"object"`
	Implied docFlag `yaml:"implied"`
}

// docFlag accepts both YAML booleans and the 0/1 integers pysmi writes.
type docFlag bool

func (f *docFlag) UnmarshalYAML(n *yaml.Node) error {
	switch strings.ToLower(n.Value) {
	case "1", "true", "yes":
		*f = true
	case "0", "false", "no", "":
		*f = false
	default:
		return fmt.Errorf("line %d: invalid flag %q", n.Line, n.Value)
	}
	return nil
}

// parseDocuments decodes every YAML/JSON document in r.
func parseDocuments(r io.Reader) ([]*docModule, error) {
	dec := yaml.NewDecoder(r)
	var mods []*docModule
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return mods, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		mod, err := parseDocument(&doc)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
}

func parseDocument(doc *yaml.Node) (*docModule, error) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: document is not a mapping", ErrInvalidDocument, root.Line)
	}

	mod := &docModule{imports: make(map[string]string)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "meta":
			var meta struct {
				Module string `yaml:"module"`
			}
			if err := val.Decode(&meta); err != nil {
				return nil, fmt.Errorf("%w: meta: %v", ErrInvalidDocument, err)
			}
			mod.name = meta.Module
		case "imports":
			if err := parseImports(val, mod.imports); err != nil {
				return nil, err
			}
		default:
			if val.Kind != yaml.MappingNode {
				continue
			}
			var sym docSymbol
			if err := val.Decode(&sym); err != nil {
				return nil, fmt.Errorf("%w: symbol %s: %v", ErrInvalidDocument, key, err)
			}
			if sym.Name == "" {
				sym.Name = key
			}
			mod.symbols = append(mod.symbols, sym)
		}
	}

	if mod.name == "" {
		return nil, fmt.Errorf("%w: line %d: missing meta.module", ErrInvalidDocument, root.Line)
	}
	return mod, nil
}

func parseImports(n *yaml.Node, into map[string]string) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: imports is not a mapping", ErrInvalidDocument, n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		from, val := n.Content[i].Value, n.Content[i+1]
		if from == "class" {
			continue
		}
		var symbols []string
		if err := val.Decode(&symbols); err != nil {
			return fmt.Errorf("%w: imports from %s: %v", ErrInvalidDocument, from, err)
		}
		for _, s := range symbols {
			into[s] = from
		}
	}
	return nil
}

// docBuilder assembles a Model from parsed documents.
type docBuilder struct {
	m       *Model
	byOID   map[string]uint32 // OID string -> NodeId
	byQual  map[string]uint32 // "MODULE::name" -> NodeId
	byType  map[string]uint32 // "MODULE::name" -> TypeId
	builtin map[string]uint32 // name -> TypeId

	pendingTypes   []pendingType
	pendingObjects []pendingObject
}

type pendingType struct {
	typeID uint32
	module *docModule
	ref    *docSyntax
}

type pendingObject struct {
	objectID uint32
	module   *docModule
	sym      *docSymbol
}

// buildModel resolves parsed documents into a Model. Modules are added in
// the given order; a module name seen twice keeps its first definition.
func buildModel(mods []*docModule) (*Model, error) {
	b := &docBuilder{
		m:       &Model{},
		byOID:   make(map[string]uint32),
		byQual:  make(map[string]uint32),
		byType:  make(map[string]uint32),
		builtin: make(map[string]uint32),
	}
	b.addBuiltinTypes()

	seen := make(map[string]bool)
	for _, mod := range mods {
		if seen[mod.name] {
			continue
		}
		seen[mod.name] = true
		if err := b.addModule(mod); err != nil {
			return nil, err
		}
	}

	for _, p := range b.pendingTypes {
		parent, err := b.resolveTypeRef(p.module, p.ref)
		if err != nil {
			return nil, err
		}
		t := b.m.GetType(p.typeID)
		t.Parent = parent
		if p.ref != nil && t.Base == BaseTypeUnknown {
			if base, ok := lookupBaseType(p.ref.Type); ok {
				t.Base = base
			}
		}
		b.applyRefinement(t, p.ref)
	}
	for _, p := range b.pendingObjects {
		if err := b.resolveObject(p); err != nil {
			return nil, err
		}
	}
	b.inferKinds()

	b.m.finish()
	return b.m, nil
}

func (b *docBuilder) addBuiltinTypes() {
	for base, name := range baseTypeNames {
		if BaseType(base) == BaseTypeUnknown {
			continue
		}
		b.builtin[name] = b.addType(Type{Name: name, Base: BaseType(base)})
	}
	for _, bt := range builtinTypes {
		id := b.addType(Type{
			Name:       bt.name,
			Base:       bt.base,
			IsTC:       bt.module == "SNMPv2-TC" || bt.module == "SNMP-FRAMEWORK-MIB",
			Hint:       bt.hint,
			Size:       constraintOf(bt.size),
			Range:      constraintOf(bt.rng),
			EnumValues: bt.enums,
		})
		b.builtin[bt.name] = id
		b.byType[bt.module+"::"+bt.name] = id
	}
}

func (b *docBuilder) addType(t Type) uint32 {
	b.m.types = append(b.m.types, t)
	return uint32(len(b.m.types))
}

func (b *docBuilder) addModule(mod *docModule) error {
	b.m.modules = append(b.m.modules, Module{Name: mod.name})
	modID := uint32(len(b.m.modules))

	for i := range mod.symbols {
		sym := &mod.symbols[i]
		class := strings.ToLower(sym.Class)

		if class == "textualconvention" || class == "type" {
			typeID := b.addType(Type{
				Module: modID,
				Name:   sym.Name,
				Base:   BaseTypeUnknown,
				IsTC:   class == "textualconvention",
				Hint:   sym.DisplayHint,
			})
			b.byType[mod.name+"::"+sym.Name] = typeID
			ref := sym.Type
			if ref == nil {
				ref = sym.Syntax
			}
			b.pendingTypes = append(b.pendingTypes, pendingType{typeID: typeID, module: mod, ref: ref})
			continue
		}

		if sym.OID == "" {
			continue
		}
		oid, err := ParseOID(sym.OID)
		if err != nil {
			return fmt.Errorf("%w: %s::%s: %v", ErrInvalidDocument, mod.name, sym.Name, err)
		}

		nodeID := b.ensureNode(oid)
		node := b.m.GetNode(nodeID)
		def := NodeDef{Module: modID, Label: sym.Name}

		kind := kindOfClass(class, sym.NodeType)
		if class == "objecttype" {
			b.m.objects = append(b.m.objects, Object{Node: nodeID, Module: modID, Name: sym.Name})
			def.Object = uint32(len(b.m.objects))
			b.pendingObjects = append(b.pendingObjects, pendingObject{objectID: def.Object, module: mod, sym: sym})
		}
		if class == "moduleidentity" {
			b.m.modules[modID-1].Identity = nodeID
		}
		if node.Kind == NodeKindInternal {
			node.Kind = kind
		}
		node.Definitions = append(node.Definitions, def)
		b.byQual[mod.name+"::"+sym.Name] = nodeID
	}
	return nil
}

// kindOfClass maps a document symbol class to a node kind. Object types
// without an explicit nodetype are classified later by inferKinds.
func kindOfClass(class, nodeType string) NodeKind {
	switch class {
	case "objecttype":
		switch strings.ToLower(nodeType) {
		case "scalar":
			return NodeKindScalar
		case "table":
			return NodeKindTable
		case "row":
			return NodeKindRow
		case "column":
			return NodeKindColumn
		}
		return NodeKindInternal
	case "notificationtype", "traptype":
		return NodeKindNotification
	case "objectgroup", "notificationgroup":
		return NodeKindGroup
	case "modulecompliance":
		return NodeKindCompliance
	case "agentcapabilities":
		return NodeKindCapabilities
	default:
		return NodeKindNode
	}
}

// ensureNode returns the node at oid, creating it and any missing ancestors.
func (b *docBuilder) ensureNode(oid OID) uint32 {
	if id, ok := b.byOID[oid.String()]; ok {
		return id
	}

	var parent uint32
	for i := range oid {
		key := oid[:i+1].String()
		if id, ok := b.byOID[key]; ok {
			parent = id
			continue
		}
		b.m.nodes = append(b.m.nodes, Node{Subid: oid[i], Parent: parent})
		id := uint32(len(b.m.nodes))
		b.m.nodes[id-1].ID = id
		if parent == 0 {
			b.m.roots = append(b.m.roots, id)
		} else {
			p := &b.m.nodes[parent-1]
			p.Children = append(p.Children, id)
		}
		b.byOID[key] = id
		parent = id
	}
	return parent
}

// lookupType finds a named type as seen from module mod: local definitions
// first, then the module it was imported from, then built-ins, then any
// loaded module.
func (b *docBuilder) lookupType(mod *docModule, name string) (uint32, bool) {
	if id, ok := b.byType[mod.name+"::"+name]; ok {
		return id, true
	}
	if from, ok := mod.imports[name]; ok {
		if id, ok := b.byType[from+"::"+name]; ok {
			return id, true
		}
	}
	if id, ok := b.builtin[name]; ok {
		return id, true
	}
	if base, ok := lookupBaseType(name); ok {
		return b.builtin[base.String()], true
	}
	for key, id := range b.byType {
		if strings.HasSuffix(key, "::"+name) {
			return id, true
		}
	}
	return 0, false
}

// resolveTypeRef returns the type a syntax clause refers to. Refinements
// (constraints, enumerations, named bits) produce an anonymous type whose
// parent is the referenced one. Unknown names are recorded as unresolved and
// yield 0.
func (b *docBuilder) resolveTypeRef(mod *docModule, ref *docSyntax) (uint32, error) {
	if ref == nil || ref.Type == "" {
		return 0, nil
	}
	id, ok := b.lookupType(mod, ref.Type)
	if !ok {
		b.m.addUnresolved(UnresolvedRef{Kind: UnresolvedType, Module: mod.name, Symbol: ref.Type})
		return 0, nil
	}
	return id, nil
}

func (b *docBuilder) applyRefinement(t *Type, ref *docSyntax) {
	if ref == nil {
		return
	}
	if c := ref.Constraints; c != nil {
		if len(c.Size) > 0 {
			t.Size = rangesOf(c.Size)
		}
		if len(c.Range) > 0 {
			t.Range = rangesOf(c.Range)
		}
		if len(c.Enumeration) > 0 {
			for name, v := range c.Enumeration {
				t.EnumValues = append(t.EnumValues, EnumValue{Value: v, Name: name})
			}
			slices.SortFunc(t.EnumValues, func(a, b EnumValue) int { return cmp.Compare(a.Value, b.Value) })
		}
	}
	if len(ref.Bits) > 0 {
		for name, pos := range ref.Bits {
			t.BitDefs = append(t.BitDefs, BitDef{Position: pos, Name: name})
		}
		slices.SortFunc(t.BitDefs, func(a, b BitDef) int { return cmp.Compare(a.Position, b.Position) })
		if t.Base == BaseTypeUnknown {
			t.Base = BaseTypeBits
		}
	}
}

func rangesOf(rs []docRange) *Constraint {
	c := &Constraint{Ranges: make([][2]int64, len(rs))}
	for i, r := range rs {
		c.Ranges[i] = [2]int64{r.Min, r.Max}
	}
	return c
}

func (b *docBuilder) resolveObject(p pendingObject) error {
	obj := &b.m.objects[p.objectID-1]
	sym := p.sym

	if ref := sym.Syntax; ref != nil && !isSequenceSyntax(ref) {
		parent, err := b.resolveTypeRef(p.module, ref)
		if err != nil {
			return err
		}
		obj.TypeID = parent
		if parent != 0 && (ref.Constraints != nil || len(ref.Bits) > 0) {
			refined := Type{Parent: parent, Base: BaseTypeUnknown}
			b.applyRefinement(&refined, ref)
			obj.TypeID = b.addType(refined)
		}
	}

	if len(sym.Indices) > 0 {
		obj.Index = &IndexSpec{}
		for _, idx := range sym.Indices {
			nodeID, ok := b.lookupSymbol(p.module, idx)
			if !ok {
				b.m.addUnresolved(UnresolvedRef{Kind: UnresolvedIndex, Module: p.module.name, Referrer: sym.Name, Symbol: idx.Object})
				continue
			}
			obj.Index.Items = append(obj.Index.Items, IndexItem{Object: nodeID, Implied: bool(idx.Implied)})
		}
	}
	if sym.Augmention != nil {
		nodeID, ok := b.lookupSymbol(p.module, *sym.Augmention)
		if ok {
			obj.Augments = nodeID
		} else {
			b.m.addUnresolved(UnresolvedRef{Kind: UnresolvedIndex, Module: p.module.name, Referrer: sym.Name, Symbol: sym.Augmention.Object})
		}
	}
	return nil
}

func (b *docBuilder) lookupSymbol(mod *docModule, ref docIndex) (uint32, bool) {
	module := ref.Module
	if module == "" {
		module = mod.name
		if from, ok := mod.imports[ref.Object]; ok {
			module = from
		}
	}
	id, ok := b.byQual[module+"::"+ref.Object]
	return id, ok
}

func isSequenceSyntax(ref *docSyntax) bool {
	return strings.EqualFold(ref.Class, "sequenceof") ||
		strings.HasPrefix(strings.ToUpper(ref.Type), "SEQUENCE OF")
}

// inferKinds classifies object types that carry no explicit nodetype: rows
// have an INDEX or AUGMENTS, tables have a SEQUENCE OF syntax, columns sit
// under a row, everything else is a scalar.
func (b *docBuilder) inferKinds() {
	for _, p := range b.pendingObjects {
		obj := &b.m.objects[p.objectID-1]
		node := b.m.GetNode(obj.Node)
		if node.Kind != NodeKindInternal {
			continue
		}
		switch {
		case obj.Index != nil || obj.Augments != 0 || len(p.sym.Indices) > 0 || p.sym.Augmention != nil:
			node.Kind = NodeKindRow
		case p.sym.Syntax != nil && isSequenceSyntax(p.sym.Syntax):
			node.Kind = NodeKindTable
		}
	}
	for _, p := range b.pendingObjects {
		obj := &b.m.objects[p.objectID-1]
		node := b.m.GetNode(obj.Node)
		if node.Kind != NodeKindInternal {
			continue
		}
		if parent := b.m.GetParent(node); parent != nil && parent.Kind == NodeKindRow {
			node.Kind = NodeKindColumn
		} else {
			node.Kind = NodeKindScalar
		}
	}
}
