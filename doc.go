// Package mib2dev builds synthetic SNMP simulator data from MIB definitions.
//
// mib2dev walks the OID tree of one or more MIB modules and writes one
// snmprec record (OID|TAG|VALUE) for every scalar and for every column of
// every table row. Values are random but shaped by each object's SYNTAX.
// Tables are padded with fabricated rows up to a configured size, and an
// operator can review and override any value.
//
// # Usage
//
//	f, _ := os.Open("TEST-MIB.yaml")
//	model, err := mib2dev.LoadDocuments(f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := mib2dev.DefaultConfig()
//	cfg.Modules = []string{"TEST-MIB"}
//
//	console := mib2dev.NewConsole(os.Stdin, os.Stderr)
//	w, err := mib2dev.NewWalker(cfg, mib2dev.NewModelView(model), os.Stdout, console, logrus.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summaries, err := w.Walk(ctx, cfg.Modules...)
//
// # Loading MIBs
//
// Two kinds of input are understood:
//
//   - Compiled module documents (.yaml, .yml, .json) in the layout pysmi's
//     JSON code generator produces. Read by [LoadDocuments]. SNMPv2-SMI base
//     types and the common SNMPv2-TC textual conventions are built in.
//   - MIB source text, compiled by the wasmib parser running in wazero. The
//     parser binary is supplied to [NewCompiler] or through [LoadOptions].
//
// [Load], [LoadDir] and [LoadFS] pick the builder from file extensions.
//
// # Walking
//
// A [View] presents the model as a sequence of classified nodes in OID
// order. The [Walker] pulls nodes from it, lets a [Synthesizer] produce each
// value, asks the [Decider] whether tables get more rows, and writes records
// with an [Encoder].
//
// # Output
//
// Records go to the writer given to [NewWalker], sorted and without
// duplicates within each table. Banners, hints and prompts go to the
// [Console]. Config.Quiet drops the module banners and prompt hints; table
// progress and prompts are still shown.
//
// # Sharing
//
// A loaded [Model] and its [ModelView] may be shared by any number of
// walkers running in parallel. A [Compiler] and a [Walker] belong to one
// goroutine each.
package mib2dev
