// Package internal contains the main application logic for the CLI.
package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lukeod/mib2dev"
)

// Environment variables, read from the process environment or a .env file
// in the working directory.
const (
	envConfig     = "MIB2DEV_CONFIG"
	envWASMParser = "MIB2DEV_WASM_PARSER"
)

// Run is the main application logic, extracted for testability.
// It accepts OS dependencies as parameters.
func Run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(lookupEnv(getenv), stdin, stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// lookupEnv prefers the process environment and falls back to .env.
func lookupEnv(getenv func(string) string) func(string) string {
	dotenv, _ := godotenv.Read() // a missing .env is fine
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

// flags holds the raw command-line values; only flags that were set
// override the configuration file.
type flags struct {
	config         string
	modules        []string
	sources        []string
	wasmParser     string
	startOID       string
	stopOID        string
	manualValues   bool
	tableSize      int
	outputFile     string
	stringPool     string
	integer32Range string
	quiet          bool
	seed           uint64
	logLevel       string
	debug          bool
}

func newRootCmd(getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "mib2dev",
		Short: "Generate SNMP simulator data from MIB modules",
		Long: `mib2dev walks the OID tree of the given MIB modules and writes snmprec
records (OID|TAG|VALUE) with random values shaped by each object's SYNTAX.
Tables are padded with synthetic rows up to --table-size.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &f, getenv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f.debug, stdin, stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "YAML configuration file (default $"+envConfig+")")
	fl.StringArrayVar(&f.modules, "mib-module", nil, "MIB module to dump (repeatable)")
	fl.StringArrayVar(&f.sources, "mib-source", nil, "MIB file or directory to load (repeatable)")
	fl.StringVar(&f.wasmParser, "wasm-parser", "", "wasmib parser binary for MIB source text (default $"+envWASMParser+")")
	fl.StringVar(&f.startOID, "start-oid", "", "skip OIDs before this one")
	fl.StringVar(&f.stopOID, "stop-oid", "", "stop after this OID")
	fl.BoolVar(&f.manualValues, "manual-values", false, "review every value and table row interactively")
	fl.IntVar(&f.tableSize, "table-size", mib2dev.DefaultTableSize, "number of rows per table")
	fl.StringVar(&f.outputFile, "output-file", "", "write records here instead of stdout")
	fl.StringVar(&f.stringPool, "string-pool", "", "words OCTET STRING values are made of")
	fl.StringVar(&f.integer32Range, "integer32-range", "", "Integer32 value range as min,max")
	fl.BoolVar(&f.quiet, "quiet", false, "do not print prompt hints and module banners")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed for reproducible output (0 = random)")
	fl.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fl.BoolVar(&f.debug, "debug", false, "shorthand for --log-level=debug")

	return cmd
}

// resolveConfig layers the command line over the configuration file over
// the defaults.
func resolveConfig(cmd *cobra.Command, f *flags, getenv func(string) string) (*mib2dev.Config, error) {
	cfg := mib2dev.DefaultConfig()
	path := f.config
	if path == "" {
		path = getenv(envConfig)
	}
	if path != "" {
		loaded, err := mib2dev.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("mib-module") {
		cfg.Modules = f.modules
	}
	if changed("mib-source") {
		cfg.MIBSources = f.sources
	}
	if changed("wasm-parser") {
		cfg.WASMParser = f.wasmParser
	}
	if cfg.WASMParser == "" {
		cfg.WASMParser = getenv(envWASMParser)
	}
	if changed("start-oid") {
		cfg.StartOID = f.startOID
	}
	if changed("stop-oid") {
		cfg.StopOID = f.stopOID
	}
	if changed("manual-values") {
		cfg.ManualValues = f.manualValues
	}
	if changed("table-size") {
		cfg.TableSize = f.tableSize
	}
	if changed("output-file") {
		cfg.OutputFile = f.outputFile
	}
	if changed("string-pool") {
		cfg.StringPool = strings.Fields(f.stringPool)
	}
	if changed("integer32-range") {
		r, err := parseRange(f.integer32Range)
		if err != nil {
			return nil, err
		}
		cfg.Integer32Range = r
	}
	if changed("quiet") {
		cfg.Quiet = f.quiet
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseRange(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: integer32 range %q is not min,max", mib2dev.ErrInvalidConfig, s)
	}
	out := make([]int64, 2)
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: integer32 range %q: %v", mib2dev.ErrInvalidConfig, s, err)
		}
		out[i] = n
	}
	return out, nil
}

func newLogger(cfg *mib2dev.Config, debug bool, stderr io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level := logrus.InfoLevel
	if cfg.LogLevel != "" {
		l, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", mib2dev.ErrInvalidConfig, err)
		}
		level = l
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log, nil
}

func run(ctx context.Context, cfg *mib2dev.Config, debug bool, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	log, err := newLogger(cfg, debug, stderr)
	if err != nil {
		return err
	}
	if len(cfg.MIBSources) == 0 {
		return fmt.Errorf("%w: no MIB sources given", mib2dev.ErrInvalidConfig)
	}

	opts := mib2dev.LoadOptions{
		OnError: func(path string, err error) {
			log.WithField("path", path).WithError(err).Warn("MIB file skipped")
		},
		OnDiagnostic: func(d mib2dev.Diagnostic) {
			entry := log.WithFields(logrus.Fields{"start": d.Start, "end": d.End})
			if d.Severity == mib2dev.SeverityError {
				entry.Warn(d.Message)
				return
			}
			entry.Debug(d.Message)
		},
	}
	if cfg.WASMParser != "" {
		opts.WASMParser, err = os.ReadFile(cfg.WASMParser)
		if err != nil {
			return fmt.Errorf("%w: reading parser: %v", mib2dev.ErrInvalidConfig, err)
		}
	}

	model, err := mib2dev.Load(ctx, opts, cfg.MIBSources...)
	if err != nil {
		return fmt.Errorf("loading MIBs: %w", err)
	}
	if !model.IsComplete() {
		fields := logrus.Fields{}
		for kind, n := range model.UnresolvedCounts() {
			fields[kind.String()] = n
		}
		log.WithFields(fields).Warn("model has unresolved references")
	}
	log.WithFields(logrus.Fields{
		"modules": model.ModuleCount(),
		"nodes":   model.NodeCount(),
		"objects": model.ObjectCount(),
	}).Debug("model loaded")

	out := stdout
	if cfg.OutputFile != "" {
		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("%w: output file: %v", mib2dev.ErrInvalidConfig, err)
		}
		defer closeOutput(file, &err)
		out = file
	}

	console := mib2dev.NewConsole(stdin, stderr)
	walker, err := mib2dev.NewWalker(cfg, mib2dev.NewModelView(model), out, console, log)
	if err != nil {
		return err
	}

	summaries, err := walker.Walk(ctx, cfg.Modules...)
	for _, s := range summaries {
		log.WithFields(logrus.Fields{
			"module":  s.Module,
			"records": s.Records,
			"tables":  s.Tables,
		}).Info("module dumped")
	}
	return err
}

// closeOutput closes the record file and reports a failed close unless an
// earlier error is already being returned.
func closeOutput(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing output file: %w", cerr)
	}
}
