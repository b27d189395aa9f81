package mib2dev

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoSources is returned when a load finds nothing to build a model from.
	ErrNoSources = errors.New("no MIB sources found")
	// ErrMixedSources is returned when compiled documents and MIB source text
	// are loaded together.
	ErrMixedSources = errors.New("cannot mix compiled MIB documents with MIB source files")
)

// LoadOptions configures Load, LoadDir and LoadFS.
type LoadOptions struct {
	// WASMParser holds the wasmib parser binary. Without it only compiled
	// documents (.yaml, .yml, .json) can be loaded.
	WASMParser []byte

	// OnError is called for each file in a directory that fails to read or
	// parse. If nil, such files are silently skipped.
	OnError func(path string, err error)

	// OnDiagnostic receives the parser's diagnostics after MIB source text
	// has been resolved. Compiled documents produce none.
	OnDiagnostic func(Diagnostic)
}

// LoadDocuments builds a model from compiled module documents. The reader
// may hold several YAML documents, or one JSON document.
//
// Example:
//
//	f, _ := os.Open("TEST-MIB.yaml")
//	model, err := mib2dev.LoadDocuments(f)
func LoadDocuments(r io.Reader) (*Model, error) {
	mods, err := parseDocuments(r)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, ErrNoSources
	}
	return buildModel(mods)
}

// Load reads MIB files and directories and returns a resolved model.
// Directories are walked recursively. Unlike LoadDir, a named file that
// cannot be read or parsed is an error.
//
// Example:
//
//	model, err := mib2dev.Load(ctx, mib2dev.LoadOptions{}, "mibs/", "IF-MIB.yaml")
func Load(ctx context.Context, opts LoadOptions, paths ...string) (*Model, error) {
	l := &loader{opts: opts}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			if err := l.walkDir(path); err != nil {
				return nil, err
			}
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := l.add(path, data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return l.build(ctx)
}

// LoadDir loads every MIB file below dir.
//
// Files that fail to parse are reported to OnError and skipped (they may not
// be MIB files).
func LoadDir(ctx context.Context, dir string, opts LoadOptions) (*Model, error) {
	l := &loader{opts: opts}
	if err := l.walkDir(dir); err != nil {
		return nil, err
	}
	return l.build(ctx)
}

// LoadFS loads MIB files from an fs.FS (e.g., embed.FS).
//
// Example with embedded files:
//
//	//go:embed mibs/*
//	var mibsFS embed.FS
//
//	model, err := mib2dev.LoadFS(ctx, mibsFS, "mibs", mib2dev.LoadOptions{})
func LoadFS(ctx context.Context, fsys fs.FS, root string, opts LoadOptions) (*Model, error) {
	l := &loader{opts: opts}
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.report(path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			l.report(path, err)
			return nil
		}
		if err := l.add(path, data); err != nil {
			l.report(path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking fs: %w", err)
	}
	return l.build(ctx)
}

// loader collects sources until build picks the model builder.
type loader struct {
	opts    LoadOptions
	docs    []*docModule
	sources [][]byte
}

// isDocument reports whether path names a compiled module document.
func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (l *loader) add(path string, data []byte) error {
	if isDocument(path) {
		mods, err := parseDocuments(bytes.NewReader(data))
		if err != nil {
			return err
		}
		l.docs = append(l.docs, mods...)
		return nil
	}
	if len(l.opts.WASMParser) == 0 {
		return ErrNoParser
	}
	l.sources = append(l.sources, data)
	return nil
}

func (l *loader) walkDir(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.report(path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			l.report(path, err)
			return nil
		}
		if err := l.add(path, data); err != nil {
			l.report(path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}
	return nil
}

func (l *loader) report(path string, err error) {
	if l.opts.OnError != nil {
		l.opts.OnError(path, err)
	}
}

func (l *loader) build(ctx context.Context) (*Model, error) {
	switch {
	case len(l.docs) > 0 && len(l.sources) > 0:
		return nil, ErrMixedSources
	case len(l.docs) > 0:
		return buildModel(l.docs)
	case len(l.sources) == 0:
		return nil, ErrNoSources
	}

	compiler, err := NewCompiler(ctx, l.opts.WASMParser)
	if err != nil {
		return nil, err
	}
	defer func() { _ = compiler.Close() }()

	for _, source := range l.sources {
		if err := compiler.LoadModule(source); err != nil {
			return nil, err
		}
	}
	model, err := compiler.Resolve()
	if err != nil {
		return nil, err
	}

	if l.opts.OnDiagnostic != nil {
		diags, err := compiler.Diagnostics()
		if err != nil {
			return nil, err
		}
		for _, d := range diags {
			l.opts.OnDiagnostic(d)
		}
	}
	return model, nil
}
