package mib2dev

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"google.golang.org/protobuf/encoding/protowire"
)

// Error codes from WASM
const (
	errSuccess        = 0
	errInvalidPointer = 1
	errParseError     = 2
	errResolveError   = 3
	errNoModel        = 4
	errInternalError  = 5
)

// ErrNoParser is returned when MIB source text must be compiled but no
// parser binary was supplied.
var ErrNoParser = errors.New("no MIB parser configured")

// Compiler runs the wasmib MIB parser inside a wazero runtime. It compiles
// ASN.1 MIB source text into a Model.
//
// Compiler is NOT safe for concurrent use. The resulting Model is.
type Compiler struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module

	fnAlloc          api.Function
	fnDealloc        api.Function
	fnLoadModule     api.Function
	fnResolve        api.Function
	fnGetModel       api.Function
	fnGetDiagnostics api.Function
	fnGetError       api.Function
}

// NewCompiler instantiates the parser module from its WASM bytes.
//
// The context is used for the lifetime of the compiler. Call Close() when done.
func NewCompiler(ctx context.Context, wasm []byte) (*Compiler, error) {
	if len(wasm) == 0 {
		return nil, ErrNoParser
	}

	runtime := wazero.NewRuntime(ctx)

	module, err := runtime.Instantiate(ctx, wasm)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating wasm: %w", err)
	}

	c := &Compiler{ctx: ctx, runtime: runtime, module: module}
	exports := []struct {
		name string
		fn   *api.Function
	}{
		{"wasmib_alloc", &c.fnAlloc},
		{"wasmib_dealloc", &c.fnDealloc},
		{"wasmib_load_module", &c.fnLoadModule},
		{"wasmib_resolve", &c.fnResolve},
		{"wasmib_get_model", &c.fnGetModel},
		{"wasmib_get_diagnostics", &c.fnGetDiagnostics},
		{"wasmib_get_error", &c.fnGetError},
	}

	var missing []string
	for _, e := range exports {
		*e.fn = module.ExportedFunction(e.name)
		if *e.fn == nil {
			missing = append(missing, e.name)
		}
	}
	if len(missing) > 0 {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("missing required WASM exports: %v", missing)
	}

	return c, nil
}

// Close releases resources associated with the compiler.
func (c *Compiler) Close() error {
	return c.runtime.Close(c.ctx)
}

// LoadModule parses a MIB file and adds it to the staging area.
//
// The source should be the raw bytes of a MIB file. Call this for each
// MIB file, then call Resolve() to build the model.
func (c *Compiler) LoadModule(source []byte) error {
	if len(source) == 0 {
		return nil // Empty source is a no-op
	}

	results, err := c.fnAlloc.Call(c.ctx, uint64(len(source)))
	if err != nil {
		return fmt.Errorf("alloc failed: %w", err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return fmt.Errorf("allocation failed (out of memory?)")
	}
	// Dealloc errors ignored: memory is reclaimed when the instance closes.
	defer func() { _, _ = c.fnDealloc.Call(c.ctx, uint64(ptr), uint64(len(source))) }()

	if !c.module.Memory().Write(ptr, source) {
		return fmt.Errorf("memory write failed")
	}

	results, err = c.fnLoadModule.Call(c.ctx, uint64(ptr), uint64(len(source)))
	if err != nil {
		return fmt.Errorf("load_module call failed: %w", err)
	}

	if errCode := uint32(results[0]); errCode != errSuccess {
		return fmt.Errorf("parse error (%s): %s", errorCodeName(errCode), c.getErrorMessage())
	}
	return nil
}

// Resolve resolves all staged modules and returns the model.
//
// After calling this, the staging area is cleared and you can load more
// modules for a new resolution.
func (c *Compiler) Resolve() (*Model, error) {
	results, err := c.fnResolve.Call(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve call failed: %w", err)
	}

	if errCode := uint32(results[0]); errCode != errSuccess {
		return nil, fmt.Errorf("resolve error (%s): %s", errorCodeName(errCode), c.getErrorMessage())
	}

	results, err = c.fnGetModel.Call(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("get_model call failed: %w", err)
	}
	if results[0] == 0 {
		return nil, fmt.Errorf("no model available")
	}

	data, err := c.readLengthPrefixed(uint32(results[0]))
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	return Deserialize(data)
}

// Diagnostics returns the warnings and errors from parsing and resolution.
func (c *Compiler) Diagnostics() ([]Diagnostic, error) {
	results, err := c.fnGetDiagnostics.Call(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("get_diagnostics call failed: %w", err)
	}
	if results[0] == 0 {
		return nil, nil // No diagnostics
	}

	data, err := c.readLengthPrefixed(uint32(results[0]))
	if err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}
	return decodeDiagnostics(data)
}

// getErrorMessage reads the last error message from WASM.
func (c *Compiler) getErrorMessage() string {
	results, err := c.fnGetError.Call(c.ctx)
	if err != nil || results[0] == 0 {
		return "unknown error"
	}

	msg, err := c.readLengthPrefixed(uint32(results[0]))
	if err != nil {
		return "unknown error"
	}
	return string(msg)
}

// readLengthPrefixed copies a little-endian u32 length-prefixed buffer out of
// WASM memory. The copy outlives later calls that may reuse the memory.
func (c *Compiler) readLengthPrefixed(ptr uint32) ([]byte, error) {
	lenBytes, ok := c.module.Memory().Read(ptr, 4)
	if !ok {
		return nil, fmt.Errorf("failed to read length")
	}
	n := binary.LittleEndian.Uint32(lenBytes)

	data, ok := c.module.Memory().Read(ptr+4, n)
	if !ok {
		return nil, fmt.Errorf("failed to read %d bytes", n)
	}
	return append([]byte(nil), data...), nil
}

func errorCodeName(code uint32) string {
	switch code {
	case errInvalidPointer:
		return "invalid pointer"
	case errParseError:
		return "parse error"
	case errResolveError:
		return "resolve error"
	case errNoModel:
		return "no model"
	case errInternalError:
		return "internal error"
	default:
		return fmt.Sprintf("code %d", code)
	}
}

// Severity indicates the severity level of a diagnostic.
type Severity uint32

const (
	// SeverityError indicates a fatal error.
	SeverityError Severity = 0
	// SeverityWarning indicates a non-fatal warning.
	SeverityWarning Severity = 1
)

// String returns a human-readable representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic represents a parse or resolution diagnostic.
type Diagnostic struct {
	Severity Severity // Error or warning
	Message  string   // Human-readable message
	Start    uint32   // Byte offset in source
	End      uint32   // Byte offset in source
}

// Protobuf field numbers of the parser's diagnostics message:
//
//	message Diagnostics { repeated Diagnostic items = 1; }
//	message Diagnostic  { uint32 severity = 1; string message = 2;
//	                      uint32 start = 3; uint32 end = 4; }
const (
	fieldDiagnosticsItems  = 1
	fieldDiagnosticSev     = 1
	fieldDiagnosticMessage = 2
	fieldDiagnosticStart   = 3
	fieldDiagnosticEnd     = 4
)

// decodeDiagnostics decodes the parser's Diagnostics message. Unknown fields
// are skipped.
func decodeDiagnostics(b []byte) ([]Diagnostic, error) {
	var out []Diagnostic
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decoding diagnostics: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldDiagnosticsItems && typ == protowire.BytesType {
			item, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decoding diagnostics: %w", protowire.ParseError(n))
			}
			d, err := decodeDiagnostic(item)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("decoding diagnostics: %w", protowire.ParseError(n))
		}
		b = b[n:]
	}
	return out, nil
}

func decodeDiagnostic(b []byte) (Diagnostic, error) {
	var d Diagnostic
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return d, fmt.Errorf("decoding diagnostic: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && (num == fieldDiagnosticSev || num == fieldDiagnosticStart || num == fieldDiagnosticEnd):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return d, fmt.Errorf("decoding diagnostic: %w", protowire.ParseError(n))
			}
			switch num {
			case fieldDiagnosticSev:
				d.Severity = Severity(v)
			case fieldDiagnosticStart:
				d.Start = uint32(v)
			case fieldDiagnosticEnd:
				d.End = uint32(v)
			}
			b = b[n:]
		case typ == protowire.BytesType && num == fieldDiagnosticMessage:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return d, fmt.Errorf("decoding diagnostic: %w", protowire.ParseError(n))
			}
			d.Message = v
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return d, fmt.Errorf("decoding diagnostic: %w", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return d, nil
}
