package mib2dev

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for unusable run configurations.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultStringPool is the word pool OCTET STRING values are drawn from.
var DefaultStringPool = strings.Fields("Portez ce vieux whisky au juge blond qui fume!")

// DefaultTableSize is the number of rows each table is padded to.
const DefaultTableSize = 10

// Config is the resolved set of run options. It can be read from a YAML file
// and overridden from the command line.
type Config struct {
	Modules        []string `yaml:"modules"`
	MIBSources     []string `yaml:"mib-sources,omitempty"`
	WASMParser     string   `yaml:"wasm-parser,omitempty"`
	StartOID       string   `yaml:"start-oid,omitempty"`
	StopOID        string   `yaml:"stop-oid,omitempty"`
	ManualValues   bool     `yaml:"manual-values,omitempty"`
	TableSize      int      `yaml:"table-size"`
	OutputFile     string   `yaml:"output-file,omitempty"`
	StringPool     []string `yaml:"string-pool"`
	Integer32Range []int64  `yaml:"integer32-range,flow"`
	Quiet          bool     `yaml:"quiet,omitempty"`
	Seed           uint64   `yaml:"seed,omitempty"`
	LogLevel       string   `yaml:"log-level,omitempty"`
}

// DefaultConfig returns a Config with every default applied and no modules.
func DefaultConfig() *Config {
	return &Config{
		TableSize:      DefaultTableSize,
		StringPool:     append([]string(nil), DefaultStringPool...),
		Integer32Range: []int64{0, 16},
		LogLevel:       "info",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if len(c.Modules) == 0 {
		return fmt.Errorf("%w: no MIB modules given", ErrInvalidConfig)
	}
	if c.TableSize < 1 {
		return fmt.Errorf("%w: table size must be at least 1, got %d", ErrInvalidConfig, c.TableSize)
	}
	if _, _, err := c.Integer32Bounds(); err != nil {
		return err
	}
	if _, _, err := c.Bounds(); err != nil {
		return err
	}
	return nil
}

// Bounds parses the start and stop OIDs. Either may be nil when unset.
func (c *Config) Bounds() (start, stop OID, err error) {
	if c.StartOID != "" {
		if start, err = ParseOID(c.StartOID); err != nil {
			return nil, nil, fmt.Errorf("%w: start OID: %v", ErrInvalidConfig, err)
		}
	}
	if c.StopOID != "" {
		if stop, err = ParseOID(c.StopOID); err != nil {
			return nil, nil, fmt.Errorf("%w: stop OID: %v", ErrInvalidConfig, err)
		}
	}
	return start, stop, nil
}

// Integer32Bounds returns the half-open [min, max) range Integer32 values are
// generated from.
func (c *Config) Integer32Bounds() (lo, hi int64, err error) {
	if len(c.Integer32Range) != 2 {
		return 0, 0, fmt.Errorf("%w: integer32 range needs two values, got %d", ErrInvalidConfig, len(c.Integer32Range))
	}
	lo, hi = c.Integer32Range[0], c.Integer32Range[1]
	if lo >= hi {
		return 0, 0, fmt.Errorf("%w: integer32 range [%d,%d) is empty", ErrInvalidConfig, lo, hi)
	}
	return lo, hi, nil
}
