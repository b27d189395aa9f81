package mib2dev

import "strings"

// NodeKind classifies an OID tree node by the macro that defined it. The
// values match the wasmib binary encoding.
type NodeKind uint8

const (
	NodeKindInternal     NodeKind = iota // arc with no definition of its own
	NodeKindNode                         // OBJECT-IDENTITY, MODULE-IDENTITY, value assignment
	NodeKindScalar                       // OBJECT-TYPE outside a table
	NodeKindTable                        // SEQUENCE OF
	NodeKindRow                          // INDEX or AUGMENTS
	NodeKindColumn                       // child of a row
	NodeKindNotification                 // NOTIFICATION-TYPE, TRAP-TYPE
	NodeKindGroup                        // OBJECT-GROUP, NOTIFICATION-GROUP
	NodeKindCompliance                   // MODULE-COMPLIANCE
	NodeKindCapabilities                 // AGENT-CAPABILITIES
)

var nodeKindNames = [...]string{
	"internal", "node", "scalar", "table", "row",
	"column", "notification", "group", "compliance", "capabilities",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// BaseType is the SNMP application type a value is generated, checked and
// encoded as.
type BaseType uint8

const (
	BaseTypeInteger32 BaseType = iota
	BaseTypeUnsigned32
	BaseTypeCounter32
	BaseTypeCounter64
	BaseTypeGauge32
	BaseTypeTimeTicks
	BaseTypeIpAddress
	BaseTypeOctetString
	BaseTypeObjectIdentifier
	BaseTypeOpaque
	BaseTypeBits
	BaseTypeUnknown
)

var baseTypeNames = [...]string{
	"INTEGER", "Unsigned32", "Counter32", "Counter64",
	"Gauge32", "TimeTicks", "IpAddress", "OCTET STRING",
	"OBJECT IDENTIFIER", "Opaque", "BITS", "unknown",
}

func (b BaseType) String() string {
	if int(b) < len(baseTypeNames) {
		return baseTypeNames[b]
	}
	return "unknown"
}

// IsInteger reports whether values of b are numbers.
func (b BaseType) IsInteger() bool {
	return b == BaseTypeInteger32 || b.IsUnsigned()
}

// IsUnsigned reports whether b is one of the unsigned application types.
func (b BaseType) IsUnsigned() bool {
	switch b {
	case BaseTypeUnsigned32, BaseTypeCounter32, BaseTypeCounter64, BaseTypeGauge32, BaseTypeTimeTicks:
		return true
	}
	return false
}

// IsOctets reports whether values of b are carried as raw octets.
func (b BaseType) IsOctets() bool {
	return b == BaseTypeOctetString || b == BaseTypeOpaque || b == BaseTypeBits
}

// baseTypeAliases maps SMI type names, folded to lower case with blanks
// removed, to base types. SMIv1 names are included.
var baseTypeAliases = map[string]BaseType{
	"integer":          BaseTypeInteger32,
	"integer32":        BaseTypeInteger32,
	"unsigned32":       BaseTypeUnsigned32,
	"counter":          BaseTypeCounter32,
	"counter32":        BaseTypeCounter32,
	"counter64":        BaseTypeCounter64,
	"gauge":            BaseTypeGauge32,
	"gauge32":          BaseTypeGauge32,
	"timeticks":        BaseTypeTimeTicks,
	"ipaddress":        BaseTypeIpAddress,
	"networkaddress":   BaseTypeIpAddress,
	"octetstring":      BaseTypeOctetString,
	"objectidentifier": BaseTypeObjectIdentifier,
	"objectname":       BaseTypeObjectIdentifier,
	"opaque":           BaseTypeOpaque,
	"bits":             BaseTypeBits,
}

// lookupBaseType maps an SMI base type name, in either ASN.1 or compiled
// document spelling, to its BaseType.
func lookupBaseType(name string) (BaseType, bool) {
	b, ok := baseTypeAliases[strings.ToLower(strings.Join(strings.Fields(name), ""))]
	if !ok {
		return BaseTypeUnknown, false
	}
	return b, true
}
