package mib2dev

// Syntax is the resolved SYNTAX of a scalar or column: its base type tag and
// the nearest constraints along the textual-convention chain.
type Syntax struct {
	Base  BaseType
	Name  string // Nearest named type, e.g. "DisplayString"
	Hint  string // Effective DISPLAY-HINT
	Size  *Constraint
	Range *Constraint
	Enums []EnumValue
	Bits  []BitDef
}

// unknownSyntax is used for objects whose type could not be resolved.
var unknownSyntax = &Syntax{Base: BaseTypeUnknown, Name: BaseTypeUnknown.String()}

// TypeName returns the name shown to operators for this syntax.
func (s *Syntax) TypeName() string {
	if s == nil {
		return BaseTypeUnknown.String()
	}
	if s.Name != "" {
		return s.Name
	}
	return s.Base.String()
}

// FixedSize returns the fixed length of a string type whose SIZE constraint
// is a single value (e.g., SIZE (6)). Returns 0 for variable-length types.
func (s *Syntax) FixedSize() int {
	if s == nil || s.Size == nil || len(s.Size.Ranges) != 1 {
		return 0
	}
	if r := s.Size.Ranges[0]; r[0] == r[1] && r[0] > 0 {
		return int(r[0])
	}
	return 0
}

// EnumName returns the label of an enumerated value, or "" if none matches.
func (s *Syntax) EnumName(v int64) string {
	if s == nil {
		return ""
	}
	for _, ev := range s.Enums {
		if ev.Value == v {
			return ev.Name
		}
	}
	return ""
}

// SyntaxOf resolves the syntax of an object by walking its type chain.
// Inline enumerations and BITS on the object take precedence over the type's.
func (m *Model) SyntaxOf(obj *Object) *Syntax {
	if obj == nil || obj.TypeID == 0 {
		return unknownSyntax
	}

	s := &Syntax{Base: BaseTypeUnknown}
	if len(obj.InlineEnum) > 0 {
		s.Enums = obj.InlineEnum
	}
	if len(obj.InlineBits) > 0 {
		s.Bits = obj.InlineBits
	}

	typeID := obj.TypeID
	for depth := 0; typeID != 0 && depth < maxTypeDepth; depth++ {
		t := m.GetType(typeID)
		if t == nil {
			break
		}
		if s.Name == "" && t.Name != "" {
			s.Name = t.Name
		}
		if s.Base == BaseTypeUnknown && t.Base != BaseTypeUnknown {
			s.Base = t.Base
		}
		if s.Hint == "" {
			s.Hint = t.Hint
		}
		if s.Size == nil {
			s.Size = t.Size
		}
		if s.Range == nil {
			s.Range = t.Range
		}
		if s.Enums == nil && len(t.EnumValues) > 0 {
			s.Enums = t.EnumValues
		}
		if s.Bits == nil && len(t.BitDefs) > 0 {
			s.Bits = t.BitDefs
		}
		typeID = t.Parent
	}
	return s
}

// maxTypeDepth bounds textual-convention chains so that a cyclic model cannot
// hang resolution.
const maxTypeDepth = 32

// builtinType describes an SMI base type or a well-known textual convention
// available without loading its defining module.
type builtinType struct {
	module string
	name   string
	base   BaseType
	hint   string
	size   [][2]int64
	rng    [][2]int64
	enums  []EnumValue
}

// builtinTypes lists the SMI application types and the SNMPv2-TC textual
// conventions commonly referenced by vendor MIBs.
var builtinTypes = []builtinType{
	{module: "SNMPv2-SMI", name: "Integer32", base: BaseTypeInteger32, rng: [][2]int64{{-2147483648, 2147483647}}},
	{module: "SNMPv2-SMI", name: "Unsigned32", base: BaseTypeUnsigned32},
	{module: "SNMPv2-SMI", name: "Counter32", base: BaseTypeCounter32},
	{module: "SNMPv2-SMI", name: "Counter64", base: BaseTypeCounter64},
	{module: "SNMPv2-SMI", name: "Gauge32", base: BaseTypeGauge32},
	{module: "SNMPv2-SMI", name: "TimeTicks", base: BaseTypeTimeTicks},
	{module: "SNMPv2-SMI", name: "IpAddress", base: BaseTypeIpAddress, size: [][2]int64{{4, 4}}},
	{module: "SNMPv2-SMI", name: "Opaque", base: BaseTypeOpaque},
	{module: "SNMPv2-TC", name: "DisplayString", base: BaseTypeOctetString, hint: "255a", size: [][2]int64{{0, 255}}},
	{module: "SNMPv2-TC", name: "PhysAddress", base: BaseTypeOctetString, hint: "1x:"},
	{module: "SNMPv2-TC", name: "MacAddress", base: BaseTypeOctetString, hint: "1x:", size: [][2]int64{{6, 6}}},
	{module: "SNMPv2-TC", name: "TruthValue", base: BaseTypeInteger32, enums: []EnumValue{{1, "true"}, {2, "false"}}},
	{module: "SNMPv2-TC", name: "TestAndIncr", base: BaseTypeInteger32, rng: [][2]int64{{0, 2147483647}}},
	{module: "SNMPv2-TC", name: "AutonomousType", base: BaseTypeObjectIdentifier},
	{module: "SNMPv2-TC", name: "InstancePointer", base: BaseTypeObjectIdentifier},
	{module: "SNMPv2-TC", name: "VariablePointer", base: BaseTypeObjectIdentifier},
	{module: "SNMPv2-TC", name: "RowPointer", base: BaseTypeObjectIdentifier},
	{module: "SNMPv2-TC", name: "RowStatus", base: BaseTypeInteger32, enums: []EnumValue{
		{1, "active"}, {2, "notInService"}, {3, "notReady"}, {4, "createAndGo"}, {5, "createAndWait"}, {6, "destroy"},
	}},
	{module: "SNMPv2-TC", name: "TimeStamp", base: BaseTypeTimeTicks},
	{module: "SNMPv2-TC", name: "TimeInterval", base: BaseTypeInteger32, rng: [][2]int64{{0, 2147483647}}},
	{module: "SNMPv2-TC", name: "DateAndTime", base: BaseTypeOctetString, hint: "2d-1d-1d,1d:1d:1d.1d,1a1d:1d", size: [][2]int64{{8, 8}, {11, 11}}},
	{module: "SNMPv2-TC", name: "StorageType", base: BaseTypeInteger32, enums: []EnumValue{
		{1, "other"}, {2, "volatile"}, {3, "nonVolatile"}, {4, "permanent"}, {5, "readOnly"},
	}},
	{module: "SNMPv2-TC", name: "TDomain", base: BaseTypeObjectIdentifier},
	{module: "SNMPv2-TC", name: "TAddress", base: BaseTypeOctetString, size: [][2]int64{{1, 255}}},
	{module: "SNMP-FRAMEWORK-MIB", name: "SnmpAdminString", base: BaseTypeOctetString, hint: "255t", size: [][2]int64{{0, 255}}},
}

func constraintOf(ranges [][2]int64) *Constraint {
	if len(ranges) == 0 {
		return nil
	}
	return &Constraint{Ranges: ranges}
}
