package mib2dev

import (
	"errors"
	"os"
	"slices"
	"strings"
	"testing"
)

// loadTestModel loads the compiled test modules from testdata.
func loadTestModel(t testing.TB) *Model {
	t.Helper()

	f, err := os.Open("testdata/TEST-MIB.yaml")
	if err != nil {
		t.Fatalf("open test MIB: %v", err)
	}
	defer f.Close()

	model, err := LoadDocuments(f)
	if err != nil {
		t.Fatalf("LoadDocuments failed: %v", err)
	}
	return model
}

func TestLoadDocumentsModules(t *testing.T) {
	model := loadTestModel(t)

	want := []string{"TEST-MIB", "TEST-EXT-MIB"}
	if got := model.ModuleNames(); !slices.Equal(got, want) {
		t.Errorf("ModuleNames() = %v, want %v", got, want)
	}
	if !model.IsComplete() {
		t.Errorf("model has unresolved references: %v", model.Unresolved())
	}

	mod := model.GetModuleByName("TEST-MIB")
	if mod == nil {
		t.Fatal("GetModuleByName(TEST-MIB) = nil")
	}
	identity := model.GetNode(mod.Identity)
	if got := model.GetOID(identity).String(); got != "1.3.6.1.4.1.99999" {
		t.Errorf("identity OID = %s, want 1.3.6.1.4.1.99999", got)
	}
}

func TestLoadDocumentsNodeKinds(t *testing.T) {
	model := loadTestModel(t)

	tests := []struct {
		module, name string
		want         NodeKind
	}{
		{"TEST-MIB", "testMIB", NodeKindNode},
		{"TEST-MIB", "testObjects", NodeKindNode},
		{"TEST-MIB", "testScalar", NodeKindScalar},
		{"TEST-MIB", "testTable", NodeKindTable},
		{"TEST-MIB", "testEntry", NodeKindRow},
		{"TEST-MIB", "testIndex", NodeKindColumn},
		// Inferred from syntax and tree position
		{"TEST-EXT-MIB", "extTable", NodeKindTable},
		{"TEST-EXT-MIB", "extEntry", NodeKindRow},
		{"TEST-EXT-MIB", "extStatus", NodeKindColumn},
		{"TEST-EXT-MIB", "addrEntry", NodeKindRow},
		{"TEST-EXT-MIB", "addrFlags", NodeKindColumn},
	}

	for _, tt := range tests {
		node := model.GetNodeByQualifiedName(tt.module, tt.name)
		if node == nil {
			t.Errorf("%s::%s not found", tt.module, tt.name)
			continue
		}
		if node.Kind != tt.want {
			t.Errorf("%s::%s kind = %v, want %v", tt.module, tt.name, node.Kind, tt.want)
		}
	}
}

func TestLoadDocumentsSyntax(t *testing.T) {
	model := loadTestModel(t)

	syntaxOf := func(module, name string) *Syntax {
		t.Helper()
		node := model.GetNodeByQualifiedName(module, name)
		if node == nil {
			t.Fatalf("%s::%s not found", module, name)
		}
		return model.SyntaxOf(model.GetObject(node))
	}

	t.Run("builtin textual convention", func(t *testing.T) {
		syn := syntaxOf("TEST-MIB", "testDescr")
		if syn.Base != BaseTypeOctetString || syn.Name != "DisplayString" || syn.Hint != "255a" {
			t.Errorf("testDescr syntax = %+v", syn)
		}
		if syn.Size.Contains(256) {
			t.Error("DisplayString SIZE admits 256 octets")
		}
	})

	t.Run("local textual convention", func(t *testing.T) {
		syn := syntaxOf("TEST-EXT-MIB", "extStatus")
		if syn.Base != BaseTypeInteger32 || syn.TypeName() != "TestStatus" {
			t.Errorf("extStatus syntax = %+v", syn)
		}
		want := []EnumValue{{1, "up"}, {2, "down"}, {3, "testing"}}
		if !slices.Equal(syn.Enums, want) {
			t.Errorf("extStatus enums = %v, want %v", syn.Enums, want)
		}
	})

	t.Run("refined base type", func(t *testing.T) {
		syn := syntaxOf("TEST-EXT-MIB", "addrName")
		if syn.Base != BaseTypeOctetString || syn.TypeName() != "OCTET STRING" {
			t.Errorf("addrName syntax = %+v", syn)
		}
		if !syn.Size.Contains(8) || syn.Size.Contains(9) || syn.Size.Contains(0) {
			t.Errorf("addrName SIZE = %v, want (1..8)", syn.Size)
		}
	})

	t.Run("named bits", func(t *testing.T) {
		syn := syntaxOf("TEST-EXT-MIB", "addrFlags")
		if syn.Base != BaseTypeBits {
			t.Errorf("addrFlags base = %v, want BITS", syn.Base)
		}
		want := []BitDef{{0, "alpha"}, {1, "beta"}, {5, "gamma"}}
		if !slices.Equal(syn.Bits, want) {
			t.Errorf("addrFlags bits = %v, want %v", syn.Bits, want)
		}
	})

	t.Run("application type", func(t *testing.T) {
		if syn := syntaxOf("TEST-EXT-MIB", "addrIp"); syn.Base != BaseTypeIpAddress {
			t.Errorf("addrIp base = %v, want IpAddress", syn.Base)
		}
		if syn := syntaxOf("TEST-MIB", "testCount"); syn.Base != BaseTypeCounter32 {
			t.Errorf("testCount base = %v, want Counter32", syn.Base)
		}
	})
}

func TestLoadDocumentsIndex(t *testing.T) {
	model := loadTestModel(t)

	row := model.GetObject(model.GetNodeByQualifiedName("TEST-EXT-MIB", "addrEntry"))
	if row == nil || row.Index == nil {
		t.Fatal("addrEntry has no INDEX")
	}
	if len(row.Index.Items) != 2 {
		t.Fatalf("addrEntry has %d index items, want 2", len(row.Index.Items))
	}
	if row.Index.Items[0].Implied || !row.Index.Items[1].Implied {
		t.Errorf("IMPLIED flags = %v, %v; want false, true", row.Index.Items[0].Implied, row.Index.Items[1].Implied)
	}

	// AUGMENTS borrows the augmented row's INDEX
	ext := model.GetObject(model.GetNodeByQualifiedName("TEST-EXT-MIB", "extEntry"))
	cols := model.GetIndexObjects(ext)
	if len(cols) != 1 {
		t.Fatalf("extEntry index objects = %d, want 1", len(cols))
	}
	if got := model.GetOID(cols[0]).String(); got != "1.3.6.1.4.1.99999.1.3.1.1" {
		t.Errorf("extEntry index = %s, want testIndex", got)
	}
}

func TestLoadDocumentsUnresolved(t *testing.T) {
	const doc = `
meta: {module: BROKEN-MIB}
brokenScalar:
  oid: "1.3.6.1.4.1.77777.1"
  class: objecttype
  nodetype: scalar
  syntax: {type: NoSuchType, class: type}
brokenEntry:
  oid: "1.3.6.1.4.1.77777.2.1"
  class: objecttype
  nodetype: row
  indices:
    - {object: noSuchIndex}
`
	model, err := LoadDocuments(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadDocuments failed: %v", err)
	}
	if model.IsComplete() {
		t.Error("IsComplete() = true, want false")
	}

	counts := model.UnresolvedCounts()
	if counts[UnresolvedType] != 1 || counts[UnresolvedIndex] != 1 {
		t.Errorf("UnresolvedCounts() = %v", counts)
	}

	// The symbol name defaults to its key, and an unresolved type leaves an
	// unknown syntax.
	node := model.GetNodeByQualifiedName("BROKEN-MIB", "brokenScalar")
	if node == nil {
		t.Fatal("brokenScalar not found")
	}
	if syn := model.SyntaxOf(model.GetObject(node)); syn.Base != BaseTypeUnknown {
		t.Errorf("brokenScalar base = %v, want unknown", syn.Base)
	}
}

func TestLoadDocumentsDuplicateModule(t *testing.T) {
	const doc = `
meta: {module: DUP-MIB}
first: {oid: "1.3.6.1.4.1.1.1", class: objectidentity}
---
meta: {module: DUP-MIB}
second: {oid: "1.3.6.1.4.1.1.2", class: objectidentity}
`
	model, err := LoadDocuments(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadDocuments failed: %v", err)
	}
	if model.ModuleCount() != 1 {
		t.Errorf("ModuleCount() = %d, want 1", model.ModuleCount())
	}
	if model.GetNodeByQualifiedName("DUP-MIB", "first") == nil {
		t.Error("first definition lost")
	}
	if model.GetNodeByQualifiedName("DUP-MIB", "second") != nil {
		t.Error("second definition of DUP-MIB was loaded")
	}
}

func TestLoadDocumentsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"no meta", "foo: {oid: \"1.3\"}\n", ErrInvalidDocument},
		{"not a mapping", "- a\n- b\n", ErrInvalidDocument},
		{"bad oid", "meta: {module: X}\nfoo: {oid: \"1..3\", class: objectidentity}\n", ErrInvalidDocument},
		{"bad flag", "meta: {module: X}\nfoo:\n  oid: \"1.3\"\n  class: objecttype\n  indices: [{object: a, implied: maybe}]\n", ErrInvalidDocument},
		{"bad yaml", "meta: [\n", ErrInvalidDocument},
		{"empty", "", ErrNoSources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocuments(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadDocuments() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadDocumentsJSON(t *testing.T) {
	const doc = `{
  "meta": {"module": "JSON-MIB"},
  "imports": {"class": "imports", "SNMPv2-SMI": ["Gauge32"]},
  "jsonGauge": {
    "name": "jsonGauge",
    "oid": "1.3.6.1.4.1.55555.1",
    "class": "objecttype",
    "nodetype": "scalar",
    "syntax": {"type": "Gauge32", "class": "type", "constraints": {"range": [{"min": 0, "max": 100}]}}
  }
}`
	model, err := LoadDocuments(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadDocuments failed: %v", err)
	}
	node := model.GetNodeByOID(MustParseOID("1.3.6.1.4.1.55555.1"))
	if node == nil {
		t.Fatal("jsonGauge not found by OID")
	}
	syn := model.SyntaxOf(model.GetObject(node))
	if syn.Base != BaseTypeGauge32 || syn.Name != "Gauge32" {
		t.Errorf("jsonGauge syntax = %+v", syn)
	}
	if syn.Range.Contains(101) {
		t.Error("range (0..100) admits 101")
	}
}
