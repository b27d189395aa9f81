package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukeod/mib2dev"
)

const testMIBs = "../../../testdata/TEST-MIB.yaml"

type result struct {
	stdout string
	stderr string
	err    error
}

func runApp(t *testing.T, env map[string]string, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	getenv := func(key string) string { return env[key] }
	err := Run(context.Background(), args, getenv, strings.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func records(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestRun(t *testing.T) {
	res := runApp(t, nil, "",
		"--mib-source", testMIBs, "--mib-module", "TEST-MIB",
		"--table-size", "2", "--seed", "7", "--quiet")
	require.NoError(t, res.err)

	recs := records(res.stdout)
	require.Len(t, recs, 2+3*2)
	assert.True(t, strings.HasPrefix(recs[0], "1.3.6.1.4.1.99999.1.1.0|2|"), recs[0])
	assert.Contains(t, res.stderr, `msg="module dumped"`)
	assert.Contains(t, res.stderr, "records=8")
	assert.NotContains(t, res.stderr, "# MIB module")
}

func TestRunBanners(t *testing.T) {
	res := runApp(t, nil, "",
		"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--table-size", "1", "--seed", "7")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "# MIB module: TEST-MIB\n")
	assert.Contains(t, res.stderr, "# End of TEST-MIB, 5 OID(s) dumped\n")
	assert.NotContains(t, res.stdout, "#", "banners leaked into the records")
}

func TestRunSeedReproducible(t *testing.T) {
	args := []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--seed", "11", "--quiet"}
	a := runApp(t, nil, "", args...)
	b := runApp(t, nil, "", args...)
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.stdout, b.stdout)
}

func TestRunOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.snmprec")
	res := runApp(t, nil, "",
		"--mib-source", testMIBs, "--mib-module", "TEST-MIB",
		"--table-size", "1", "--output-file", path, "--quiet")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, records(string(data)), 5)
}

func TestRunConfigFromEnv(t *testing.T) {
	src, err := filepath.Abs(testMIBs)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mib2dev.yaml")
	cfg := "modules: [TEST-MIB]\nmib-sources: [" + src + "]\ntable-size: 3\nquiet: true\nseed: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	env := map[string]string{envConfig: path}
	res := runApp(t, env, "")
	require.NoError(t, res.err)
	assert.Len(t, records(res.stdout), 2+3*3)

	// Flags that were set win over the file
	res = runApp(t, env, "", "--table-size", "1")
	require.NoError(t, res.err)
	assert.Len(t, records(res.stdout), 2+3)
}

func TestRunManualValues(t *testing.T) {
	res := runApp(t, nil, "0x1a\n\n",
		"--mib-source", testMIBs, "--mib-module", "TEST-MIB",
		"--manual-values", "--stop-oid", "1.3.6.1.4.1.99999.1.2")
	require.NoError(t, res.err)

	recs := records(res.stdout)
	require.Len(t, recs, 2)
	assert.Equal(t, "1.3.6.1.4.1.99999.1.1.0|2|26", recs[0])
	assert.Contains(t, res.stderr, "# Scalar TEST-MIB::testScalar (type Integer32)\n# Value ['")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		is   error
		msg  string
	}{
		{name: "no modules", args: []string{"--mib-source", testMIBs}, is: mib2dev.ErrInvalidConfig},
		{name: "no sources", args: []string{"--mib-module", "TEST-MIB"}, is: mib2dev.ErrInvalidConfig},
		{name: "bad range", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--integer32-range", "5"}, is: mib2dev.ErrInvalidConfig},
		{name: "empty range", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--integer32-range", "3,3"}, is: mib2dev.ErrInvalidConfig},
		{name: "zero table size", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--table-size", "0"}, is: mib2dev.ErrInvalidConfig},
		{name: "bad start oid", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--start-oid", "x.y"}, is: mib2dev.ErrInvalidConfig},
		{name: "bad log level", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--log-level", "loud"}, is: mib2dev.ErrInvalidConfig},
		{name: "missing parser", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--wasm-parser", "/nonexistent/wasmib.wasm"}, is: mib2dev.ErrInvalidConfig},
		{name: "parser from env", env: map[string]string{envWASMParser: "/nonexistent/wasmib.wasm"}, args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB"}, is: mib2dev.ErrInvalidConfig},
		{name: "unopenable output", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--output-file", "/nonexistent/dir/out.snmprec"}, is: mib2dev.ErrInvalidConfig},
		{name: "missing config", args: []string{"--config", "/nonexistent/mib2dev.yaml"}, is: os.ErrNotExist},
		{name: "missing source", args: []string{"--mib-source", "/nonexistent/mibs", "--mib-module", "TEST-MIB"}, is: os.ErrNotExist},
		{name: "unknown module", args: []string{"--mib-source", testMIBs, "--mib-module", "NO-SUCH-MIB"}, is: mib2dev.ErrUnknownModule},
		{name: "manual without input", args: []string{"--mib-source", testMIBs, "--mib-module", "TEST-MIB", "--manual-values"}, is: mib2dev.ErrInputClosed},
		{name: "unknown flag", args: []string{"--frobnicate"}, msg: "unknown flag"},
		{name: "positional args", args: []string{"TEST-MIB"}, msg: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runApp(t, tt.env, "", tt.args...)
			require.Error(t, res.err)
			if tt.is != nil {
				assert.ErrorIs(t, res.err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, res.err.Error(), tt.msg)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want []int64
		ok   bool
	}{
		{"0,16", []int64{0, 16}, true},
		{" -5 , 5 ", []int64{-5, 5}, true},
		{"16", nil, false},
		{"1,2,3", nil, false},
		{"a,b", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, err := parseRange(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, mib2dev.ErrInvalidConfig, "parseRange(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "parseRange(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLookupEnvPrefersProcess(t *testing.T) {
	get := lookupEnv(func(key string) string {
		if key == envWASMParser {
			return "/opt/wasmib.wasm"
		}
		return ""
	})
	assert.Equal(t, "/opt/wasmib.wasm", get(envWASMParser))
	assert.Empty(t, get("MIB2DEV_UNSET_FOR_TEST"))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseOutput(t *testing.T) {
	diskFull := errors.New("no space left on device")
	failing := closerFunc(func() error { return diskFull })

	var err error
	closeOutput(failing, &err)
	require.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "closing output file")

	// An earlier error is kept.
	walkErr := mib2dev.ErrInputClosed
	err = walkErr
	closeOutput(failing, &err)
	assert.Equal(t, walkErr, err)

	err = nil
	closeOutput(closerFunc(func() error { return nil }), &err)
	assert.NoError(t, err)
}
