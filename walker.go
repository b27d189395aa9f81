package mib2dev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
)

// maxRowAttempts bounds how often a fabricated row's index values are drawn
// again when they collide with a row already in the table.
const maxRowAttempts = 32

// Record is one emitted instance: its full OID and value.
type Record struct {
	OID    OID
	Value  Value
	Syntax *Syntax
}

// Summary describes the walk of one module.
type Summary struct {
	Module  string
	Records int // Records written
	Tables  int // Tables finished
	Dropped int // Records not written because their OID was already taken
}

// Walker dumps MIB modules as synthetic records.
type Walker struct {
	view      View
	out       io.Writer
	console   *Console
	log       logrus.FieldLogger
	encoder   Encoder
	validator Validator
	decider   Decider
	synth     *Synthesizer
	policy    *rowPolicy
	quiet     bool
	start     OID
	stop      OID
}

// WalkerOption customizes a Walker.
type WalkerOption func(*Walker)

// WithEncoder replaces the snmprec encoder.
func WithEncoder(e Encoder) WalkerOption {
	return func(w *Walker) { w.encoder = e }
}

// WithValidator replaces the constraint validator.
func WithValidator(v Validator) WalkerOption {
	return func(w *Walker) { w.validator = v }
}

// WithDecider replaces the decision source chosen from the configuration.
func WithDecider(d Decider) WalkerOption {
	return func(w *Walker) { w.decider = d }
}

// NewWalker returns a Walker writing records to out. Banners, hints and
// prompts go to console. The configuration must be valid.
func NewWalker(cfg *Config, view View, out io.Writer, console *Console, log logrus.FieldLogger, opts ...WalkerOption) (*Walker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start, stop, err := cfg.Bounds()
	if err != nil {
		return nil, err
	}

	w := &Walker{
		view:      view,
		out:       out,
		console:   console,
		log:       log,
		encoder:   SnmprecEncoder{},
		validator: ConstraintValidator{},
		quiet:     cfg.Quiet,
		start:     start,
		stop:      stop,
	}
	if cfg.ManualValues {
		w.decider = InteractiveDecider{Console: console}
	} else {
		w.decider = AutomaticDecider{Console: console}
	}
	for _, opt := range opts {
		opt(w)
	}

	w.synth, err = NewSynthesizer(cfg, w.validator, w.decider)
	if err != nil {
		return nil, err
	}
	w.policy = &rowPolicy{target: cfg.TableSize, decider: w.decider, banner: w.notice}
	return w, nil
}

// Walk dumps each module in turn. It stops at the first error; summaries of
// the modules walked so far are returned with it.
func (w *Walker) Walk(ctx context.Context, modules ...string) ([]Summary, error) {
	var summaries []Summary
	for _, module := range modules {
		s, err := w.WalkModule(ctx, module)
		summaries = append(summaries, s)
		if err != nil {
			return summaries, fmt.Errorf("module %s: %w", module, err)
		}
	}
	return summaries, nil
}

// WalkModule dumps one module: every scalar once with suffix .0, and every
// table padded to the configured number of rows.
func (w *Walker) WalkModule(ctx context.Context, module string) (Summary, error) {
	root, err := w.view.FirstNode(module)
	if err != nil {
		return Summary{Module: module}, err
	}

	w.banner("# MIB module: %s\n", module)
	mw := &moduleWalk{
		Walker:  w,
		summary: Summary{Module: module},
		log:     w.log.WithField("module", module),
	}
	if err := mw.run(ctx, root); err != nil {
		return mw.summary, err
	}

	w.banner("# End of %s, %d OID(s) dumped\n", module, mw.summary.Records)
	mw.log.WithFields(logrus.Fields{
		"records": mw.summary.Records,
		"tables":  mw.summary.Tables,
		"dropped": mw.summary.Dropped,
	}).Debug("module done")
	return mw.summary, nil
}

// banner prints module banners, which quiet runs leave out.
func (w *Walker) banner(format string, args ...any) {
	if !w.quiet {
		w.notice(format, args...)
	}
}

// notice prints table progress, shown whatever the verbosity.
func (w *Walker) notice(format string, args ...any) {
	if w.console != nil {
		w.console.Printf(format, args...)
	}
}

// hint returns text to show the operator with a prompt. Quiet runs show
// bare prompts.
func (w *Walker) hint(text string) string {
	if w.quiet {
		return ""
	}
	return text
}

// moduleWalk is the traversal state of one module.
type moduleWalk struct {
	*Walker
	log       logrus.FieldLogger
	summary   Summary
	row       *RowContext
	tableHint string
	staged    []Record
	last      OID // Last OID written
}

func (mw *moduleWalk) run(ctx context.Context, root OID) (err error) {
	// Staged rows are written whatever ends the walk.
	defer func() {
		if ferr := mw.flush(); err == nil {
			err = ferr
		}
	}()

	oid := root
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, desc, err := mw.view.NextNode(oid)
		end := false
		switch {
		case errors.Is(err, ErrNoSuchObject):
			end = true
		case err != nil:
			return err
		case !next.HasPrefix(root):
			end = true
		}

		if !end {
			if mw.start != nil && next.Compare(mw.start) < 0 {
				oid = next
				continue
			}
			if mw.stop != nil && next.Compare(mw.stop) > 0 {
				if mw.row != nil {
					mw.log.WithField("oid", mw.row.Root.String()).Debug("stop OID reached, table abandoned")
				}
				return nil
			}
		}

		if mw.row != nil && (end || !next.HasPrefix(mw.row.Root)) {
			again, err := mw.policy.leave(mw.row)
			if err != nil {
				return err
			}
			if again {
				rowDesc, err := mw.view.Describe(mw.row.Root)
				if err != nil {
					return err
				}
				oid = mw.row.Root
				if err := mw.process(oid, rowDesc); err != nil {
					return err
				}
				continue
			}
			if err := mw.closeTable(); err != nil {
				return err
			}
		}

		if end {
			return nil
		}
		if err := mw.process(next, desc); err != nil {
			return err
		}
		oid = next
	}
}

func (mw *moduleWalk) process(oid OID, desc NodeDescriptor) error {
	switch desc.Kind {
	case NodeKindTable:
		mw.tableHint = fmt.Sprintf("# Table %s\n", desc.QualifiedName())
		mw.notice("# Starting table %s (%s)\n", desc.QualifiedName(), oid)
		return nil

	case NodeKindRow:
		return mw.openRow(oid, desc)

	case NodeKindColumn:
		if mw.row == nil {
			mw.log.WithField("oid", oid.String()).Debug("column outside a row, skipped")
			return nil
		}
		v, ok := mw.row.Indices[oid.String()]
		if !ok {
			mw.noteSyntax(oid, desc)
			var err error
			hint := mw.row.Hint + fmt.Sprintf("# Column %s (type %s)\n", desc.QualifiedName(), desc.Syntax.TypeName())
			if v, err = mw.synth.Synthesize(desc.Syntax, mw.hint(hint)); err != nil {
				return fmt.Errorf("%s: %w", desc.QualifiedName(), err)
			}
		}
		return mw.stage(Record{OID: oid.Append(mw.row.Suffix...), Value: v, Syntax: desc.Syntax})

	case NodeKindScalar:
		mw.noteSyntax(oid, desc)
		hint := fmt.Sprintf("# Scalar %s (type %s)\n", desc.QualifiedName(), desc.Syntax.TypeName())
		v, err := mw.synth.Synthesize(desc.Syntax, mw.hint(hint))
		if err != nil {
			return fmt.Errorf("%s: %w", desc.QualifiedName(), err)
		}
		return mw.stage(Record{OID: oid.Append(0), Value: v, Syntax: desc.Syntax})

	default:
		return nil
	}
}

func (mw *moduleWalk) noteSyntax(oid OID, desc NodeDescriptor) {
	if desc.Syntax == nil || desc.Syntax.Base == BaseTypeUnknown {
		mw.log.WithField("oid", oid.String()).Debug("unresolved syntax, value written as unknown")
	}
}

// openRow binds fresh index values for one row of the table at oid. A row
// seen for the first time starts a new table; a row walked again keeps its
// row count.
func (mw *moduleWalk) openRow(oid OID, desc NodeDescriptor) error {
	if mw.row == nil || !mw.row.Root.Equal(oid) {
		mw.row = newRowContext(oid)
	}
	row := mw.row
	rowHint := mw.tableHint + fmt.Sprintf("# Row %s\n", desc.QualifiedName())

	for attempt := 1; ; attempt++ {
		hint := rowHint
		indices := make(map[string]Value, len(desc.Index))
		values := make([]Value, 0, len(desc.Index))
		for _, col := range desc.Index {
			hint += fmt.Sprintf("# Index %s (type %s)\n", col.QualifiedName(), col.Syntax.TypeName())
			v, err := mw.synth.Synthesize(col.Syntax, mw.hint(hint))
			if err != nil {
				return fmt.Errorf("%s: %w", col.QualifiedName(), err)
			}
			indices[col.OID.String()] = v
			values = append(values, v)
		}

		suffix, err := EncodeIndex(desc.Index, values)
		if err == nil && !row.used[suffix.String()] {
			row.used[suffix.String()] = true
			row.Indices, row.Suffix, row.Hint = indices, suffix, hint
			return nil
		}

		entry := mw.log.WithFields(logrus.Fields{"oid": oid.String(), "attempt": attempt})
		if err != nil {
			entry = entry.WithError(err)
		}
		if attempt >= maxRowAttempts || errors.Is(err, ErrNoIndex) {
			// No usable index: the table ends with the rows it has.
			entry.Warn("cannot compose a new row index, table closed")
			mw.notice("# Finished table %s (%d rows)\n", row.Root, row.Rows)
			return mw.closeTable()
		}
		entry.Debug("row index unusable, drawing again")
	}
}

// closeTable releases the staged records of the table and drops the row
// context.
func (mw *moduleWalk) closeTable() error {
	mw.summary.Tables++
	mw.row = nil
	mw.tableHint = ""
	return mw.flush()
}

// stage queues a record. Records are held back while a row is open so that
// the rows of a table can be written in OID order.
func (mw *moduleWalk) stage(r Record) error {
	mw.staged = append(mw.staged, r)
	if mw.row == nil {
		return mw.flush()
	}
	return nil
}

// flush writes the staged records in OID order. A record whose OID does not
// sort after the last one written is dropped.
func (mw *moduleWalk) flush() error {
	if len(mw.staged) == 0 {
		return nil
	}
	staged := mw.staged
	mw.staged = nil

	slices.SortStableFunc(staged, func(a, b Record) int { return a.OID.Compare(b.OID) })
	for _, r := range staged {
		if mw.last != nil && r.OID.Compare(mw.last) <= 0 {
			mw.summary.Dropped++
			mw.log.WithField("oid", r.OID.String()).Warn("duplicate instance dropped")
			continue
		}
		if err := mw.write(r); err != nil {
			return err
		}
	}
	return nil
}

func (mw *moduleWalk) write(r Record) error {
	b, err := mw.encoder.Encode(r.OID, r.Value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.OID, err)
	}
	if _, err := mw.out.Write(b); err != nil {
		return fmt.Errorf("write %s: %w", r.OID, err)
	}
	mw.last = r.OID
	mw.summary.Records++
	mw.log.WithFields(logrus.Fields{
		"oid":   r.OID.String(),
		"type":  r.Value.Base.String(),
		"value": FormatValue(r.Syntax, r.Value),
	}).Debug("record")
	return nil
}
