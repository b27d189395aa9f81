package mib2dev

import (
	"errors"
	"strings"
	"testing"
)

func TestModelViewFirstNode(t *testing.T) {
	view := NewModelView(loadTestModel(t))

	oid, err := view.FirstNode("TEST-MIB")
	if err != nil {
		t.Fatalf("FirstNode failed: %v", err)
	}
	if oid.String() != "1.3.6.1.4.1.99999" {
		t.Errorf("FirstNode(TEST-MIB) = %s, want module identity", oid)
	}

	if _, err := view.FirstNode("NO-SUCH-MIB"); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("FirstNode(unknown) error = %v, want ErrUnknownModule", err)
	}
}

func TestModelViewFirstNodeWithoutIdentity(t *testing.T) {
	model, err := LoadDocuments(strings.NewReader(`
meta: {module: PLAIN-MIB}
plainB: {oid: "1.3.6.1.4.1.4242.2", class: objectidentity}
plainA: {oid: "1.3.6.1.4.1.4242.1", class: objectidentity}
`))
	if err != nil {
		t.Fatalf("LoadDocuments failed: %v", err)
	}

	oid, err := NewModelView(model).FirstNode("PLAIN-MIB")
	if err != nil {
		t.Fatalf("FirstNode failed: %v", err)
	}
	if oid.String() != "1.3.6.1.4.1.4242.1" {
		t.Errorf("FirstNode = %s, want lowest defined OID", oid)
	}
}

func TestModelViewNextNode(t *testing.T) {
	view := NewModelView(loadTestModel(t))

	// Defined nodes only, in OID order
	want := []string{
		"1.3.6.1.4.1.99999.1",
		"1.3.6.1.4.1.99999.1.1",
		"1.3.6.1.4.1.99999.1.2",
		"1.3.6.1.4.1.99999.1.3",
		"1.3.6.1.4.1.99999.1.3.1",
		"1.3.6.1.4.1.99999.1.3.1.1",
		"1.3.6.1.4.1.99999.1.3.1.2",
		"1.3.6.1.4.1.99999.1.3.1.3",
	}

	oid := MustParseOID("1.3.6.1.4.1.99999")
	for _, w := range want {
		next, _, err := view.NextNode(oid)
		if err != nil {
			t.Fatalf("NextNode(%s) failed: %v", oid, err)
		}
		if next.String() != w {
			t.Fatalf("NextNode(%s) = %s, want %s", oid, next, w)
		}
		oid = next
	}

	if _, _, err := view.NextNode(oid); !errors.Is(err, ErrNoSuchObject) {
		t.Errorf("NextNode past the end error = %v, want ErrNoSuchObject", err)
	}

	// An undefined OID still finds its successor
	next, _, err := view.NextNode(MustParseOID("1.3.6.1.4.1.99998.1.1.9"))
	if err != nil {
		t.Fatalf("NextNode failed: %v", err)
	}
	if next.String() != "1.3.6.1.4.1.99998.2" {
		t.Errorf("NextNode(gap) = %s, want 1.3.6.1.4.1.99998.2", next)
	}
}

func TestModelViewDescribe(t *testing.T) {
	view := NewModelView(loadTestModel(t))

	t.Run("scalar", func(t *testing.T) {
		d, err := view.Describe(MustParseOID("1.3.6.1.4.1.99999.1.1"))
		if err != nil {
			t.Fatalf("Describe failed: %v", err)
		}
		if d.Kind != NodeKindScalar || d.QualifiedName() != "TEST-MIB::testScalar" {
			t.Errorf("Describe = %+v", d)
		}
		if d.Syntax == nil || d.Syntax.Base != BaseTypeInteger32 {
			t.Errorf("scalar syntax = %+v", d.Syntax)
		}
	})

	t.Run("row", func(t *testing.T) {
		d, err := view.Describe(MustParseOID("1.3.6.1.4.1.99998.2.1"))
		if err != nil {
			t.Fatalf("Describe failed: %v", err)
		}
		if d.Kind != NodeKindRow || len(d.Index) != 2 {
			t.Fatalf("Describe = %+v", d)
		}
		if d.Index[0].QualifiedName() != "TEST-EXT-MIB::addrIp" || d.Index[0].Syntax.Base != BaseTypeIpAddress {
			t.Errorf("first index = %+v", d.Index[0])
		}
		if !d.Index[1].Implied || d.Index[1].OID.String() != "1.3.6.1.4.1.99998.2.1.2" {
			t.Errorf("second index = %+v", d.Index[1])
		}
	})

	t.Run("augmenting row", func(t *testing.T) {
		d, err := view.Describe(MustParseOID("1.3.6.1.4.1.99998.1.1"))
		if err != nil {
			t.Fatalf("Describe failed: %v", err)
		}
		if len(d.Index) != 1 || d.Index[0].QualifiedName() != "TEST-MIB::testIndex" {
			t.Errorf("augmenting row index = %+v", d.Index)
		}
	})

	t.Run("undefined", func(t *testing.T) {
		if _, err := view.Describe(MustParseOID("1.3.6.1.4.1.99999.9")); !errors.Is(err, ErrNoSuchObject) {
			t.Errorf("Describe(undefined) error = %v, want ErrNoSuchObject", err)
		}
	})
}

func TestModelViewLocate(t *testing.T) {
	view := NewModelView(loadTestModel(t))

	module, symbol, err := view.Locate(MustParseOID("1.3.6.1.4.1.99999.1.3"))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if module != "TEST-MIB" || symbol != "testTable" {
		t.Errorf("Locate = %s::%s, want TEST-MIB::testTable", module, symbol)
	}

	// Path nodes carry no definition
	if _, _, err := view.Locate(MustParseOID("1.3.6.1.4")); !errors.Is(err, ErrNoSuchObject) {
		t.Errorf("Locate(path node) error = %v, want ErrNoSuchObject", err)
	}
}
