package mib2dev

// RowContext is the state of the table being walked, from the first time its
// row node is seen until traversal leaves the row subtree for good.
type RowContext struct {
	Root    OID              // OID of the row (entry) node
	Rows    int              // Rows completed so far
	Indices map[string]Value // Index column OID -> value bound for this row
	Suffix  OID              // Instance suffix composed from Indices
	Hint    string           // Operator hint for the row's columns

	used map[string]bool // Suffixes already taken in this table
}

func newRowContext(root OID) *RowContext {
	return &RowContext{
		Root:    root,
		Indices: make(map[string]Value),
		used:    make(map[string]bool),
	}
}

// rowPolicy decides at a row boundary whether the table gets another,
// fabricated row.
type rowPolicy struct {
	target  int
	decider Decider
	banner  func(format string, args ...any)
}

// leave is called exactly once each time traversal leaves the row subtree.
// It counts the finished row and reports whether the row root should be
// walked again to fabricate one more.
func (p *rowPolicy) leave(row *RowContext) (bool, error) {
	row.Rows++
	if row.Rows < p.target {
		again, err := p.decider.SynthesizeRow(row.Root, row.Rows)
		if err != nil {
			return false, err
		}
		if again {
			if p.decider.Automatic() {
				p.banner("# Synthesizing row #%d of table %s\n", row.Rows, row.Root)
			}
			return true, nil
		}
	}
	p.banner("# Finished table %s (%d rows)\n", row.Root, row.Rows)
	return false, nil
}
