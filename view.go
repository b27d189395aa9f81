package mib2dev

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoSuchObject signals that there is no node after the given OID.
	// It is the normal end of a walk, not a failure.
	ErrNoSuchObject = errors.New("no such object")

	// ErrUnknownModule is returned when a module is not present in the model.
	ErrUnknownModule = errors.New("unknown module")
)

// View is the read-only window onto a MIB tree that the walker needs.
type View interface {
	// FirstNode returns the root OID of a module's subtree.
	FirstNode(module string) (OID, error)
	// NextNode returns the first defined node strictly after oid.
	NextNode(oid OID) (OID, NodeDescriptor, error)
	// Locate returns the module and symbol defining oid.
	Locate(oid OID) (module, symbol string, err error)
	// Describe classifies the node at oid.
	Describe(oid OID) (NodeDescriptor, error)
}

// NodeDescriptor classifies a node for value synthesis.
type NodeDescriptor struct {
	OID    OID
	Kind   NodeKind
	Module string
	Symbol string
	Syntax *Syntax       // Scalars and columns
	Index  []IndexColumn // Rows, in INDEX order
}

// QualifiedName returns "MODULE::symbol".
func (d NodeDescriptor) QualifiedName() string {
	return d.Module + "::" + d.Symbol
}

// IndexColumn is one entry of a row's INDEX clause.
type IndexColumn struct {
	Implied bool
	OID     OID
	Module  string
	Symbol  string
	Syntax  *Syntax
}

// QualifiedName returns "MODULE::symbol".
func (c IndexColumn) QualifiedName() string {
	return c.Module + "::" + c.Symbol
}

// ModelView implements View over a resolved Model. Only nodes carrying a
// definition are visited; pure path nodes are skipped.
type ModelView struct {
	model *Model
	order []viewEntry // defined nodes in OID order
}

type viewEntry struct {
	oid  OID
	node *Node
}

// NewModelView indexes the defined nodes of m in OID order.
func NewModelView(m *Model) *ModelView {
	v := &ModelView{model: m}
	m.WalkAll(func(n *Node) bool {
		if len(n.Definitions) > 0 {
			v.order = append(v.order, viewEntry{oid: m.GetOID(n), node: n})
		}
		return true
	})
	return v
}

// FirstNode returns the OID of the module's MODULE-IDENTITY or, for modules
// without one, the lowest OID the module defines.
func (v *ModelView) FirstNode(module string) (OID, error) {
	mod := v.model.GetModuleByName(module)
	if mod == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, module)
	}
	if mod.Identity != 0 {
		return v.model.GetOID(v.model.GetNode(mod.Identity)), nil
	}

	modID := v.model.moduleIndex[module]
	for _, e := range v.order {
		for _, def := range e.node.Definitions {
			if def.Module == modID {
				return e.oid, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s defines no OIDs", ErrUnknownModule, module)
}

// NextNode returns the first defined node after oid in OID order.
func (v *ModelView) NextNode(oid OID) (OID, NodeDescriptor, error) {
	i := sort.Search(len(v.order), func(i int) bool {
		return v.order[i].oid.Compare(oid) > 0
	})
	if i == len(v.order) {
		return nil, NodeDescriptor{}, ErrNoSuchObject
	}
	e := v.order[i]
	return e.oid, v.describe(e.oid, e.node), nil
}

// Locate returns the module and symbol of the first definition at oid.
func (v *ModelView) Locate(oid OID) (string, string, error) {
	node := v.model.GetNodeByOID(oid)
	if node == nil || len(node.Definitions) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrNoSuchObject, oid)
	}
	def := node.Definitions[0]
	return v.moduleName(def.Module), def.Label, nil
}

// Describe classifies the node at oid.
func (v *ModelView) Describe(oid OID) (NodeDescriptor, error) {
	node := v.model.GetNodeByOID(oid)
	if node == nil {
		return NodeDescriptor{}, fmt.Errorf("%w: %s", ErrNoSuchObject, oid)
	}
	return v.describe(oid, node), nil
}

func (v *ModelView) describe(oid OID, node *Node) NodeDescriptor {
	d := NodeDescriptor{OID: oid, Kind: node.Kind}
	if len(node.Definitions) > 0 {
		def := node.Definitions[0]
		d.Module, d.Symbol = v.moduleName(def.Module), def.Label
	}

	obj := v.model.GetObject(node)
	switch node.Kind {
	case NodeKindScalar, NodeKindColumn:
		d.Syntax = v.model.SyntaxOf(obj)
	case NodeKindRow:
		spec := v.model.indexSpec(obj)
		if spec == nil {
			break
		}
		for _, item := range spec.Items {
			col := v.model.GetNode(item.Object)
			if col == nil {
				continue
			}
			ic := IndexColumn{
				Implied: item.Implied,
				OID:     v.model.GetOID(col),
				Syntax:  v.model.SyntaxOf(v.model.GetObject(col)),
			}
			if len(col.Definitions) > 0 {
				ic.Module = v.moduleName(col.Definitions[0].Module)
				ic.Symbol = col.Definitions[0].Label
			}
			d.Index = append(d.Index, ic)
		}
	}
	return d
}

func (v *ModelView) moduleName(id uint32) string {
	if mod := v.model.GetModule(id); mod != nil {
		return mod.Name
	}
	return ""
}
