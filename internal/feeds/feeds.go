// Package feeds loads and queries the watchfile: the TOML document that
// describes, per package, which upstream source to query and with which
// parameters.
package feeds

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
)

var (
	// ErrWatchfileNotFound is returned when the watchfile does not exist
	ErrWatchfileNotFound = errors.New("watchfile not found")
	// ErrInvalidWatchfile is returned when the watchfile is not valid TOML
	ErrInvalidWatchfile = errors.New("invalid watchfile")
)

// Schema versions accepted in a watchfile. SchemaLegacy nests source
// parameters under a [packages.<name>.source] sub-table; SchemaCurrent
// keeps them flat on the package table. Lookups hide the difference.
const (
	SchemaLegacy  = 1
	SchemaCurrent = 2
)

// legacyParamsKey is the sub-table holding parameters in schema v1 entries
const legacyParamsKey = "source"

// Config is a loaded watchfile. It is read fresh from disk on every run;
// nothing is cached between runs.
type Config struct {
	schema   int
	packages map[string]map[string]interface{}
}

// fileConfig matches the raw TOML structure of a watchfile
type fileConfig struct {
	Schema   int                               `toml:"schema"`
	Packages map[string]map[string]interface{} `toml:"packages"`
}

// Load reads and parses a watchfile. A missing or unparseable file is a
// configuration error and aborts the whole run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWatchfileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read watchfile: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWatchfile, err)
	}

	schema := fc.Schema
	if schema == 0 {
		schema = SchemaLegacy
	}
	if schema != SchemaLegacy && schema != SchemaCurrent {
		return nil, fmt.Errorf("%w: unsupported schema %d", ErrInvalidWatchfile, schema)
	}

	if fc.Packages == nil {
		fc.Packages = make(map[string]map[string]interface{})
	}

	return &Config{
		schema:   schema,
		packages: fc.Packages,
	}, nil
}

// SchemaVersion returns the watchfile schema version, defaulting to the
// legacy value when the file carries no schema key.
func (c *Config) SchemaVersion() int {
	return c.schema
}

// HasPackage reports whether the watchfile has an entry for name.
func (c *Config) HasPackage(name string) bool {
	_, ok := c.packages[name]
	return ok
}

// PackageNames returns the names of all configured packages, sorted.
func (c *Config) PackageNames() []string {
	names := make([]string, 0, len(c.packages))
	for name := range c.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns the named parameter for a package, handling both schema
// shapes transparently. Absence is not an error: the second return is
// false and callers supply their own defaults.
func (c *Config) Field(pkg, name string) (string, bool) {
	entry, ok := c.packages[pkg]
	if !ok {
		return "", false
	}

	if c.schema == SchemaLegacy {
		// Parameters live under the source sub-table; the discriminator
		// may sit on either level in files found in the wild.
		if sub, ok := entry[legacyParamsKey].(map[string]interface{}); ok {
			if v, ok := fieldString(sub[name]); ok {
				return v, true
			}
		}
	}

	return fieldString(entry[name])
}

// FieldOr returns the named parameter or def when it is absent.
func (c *Config) FieldOr(pkg, name, def string) string {
	if v, ok := c.Field(pkg, name); ok {
		return v
	}
	return def
}

// Entry is a lookup handle for one package's feed parameters. It hides
// which schema shape the watchfile used.
type Entry struct {
	cfg *Config
	pkg string
}

// Entry returns the lookup handle for a package, or false when the
// watchfile has no entry for it.
func (c *Config) Entry(pkg string) (*Entry, bool) {
	if !c.HasPackage(pkg) {
		return nil, false
	}
	return &Entry{cfg: c, pkg: pkg}, true
}

// Name returns the package name this entry belongs to.
func (e *Entry) Name() string {
	return e.pkg
}

// Field returns the named parameter, see Config.Field.
func (e *Entry) Field(name string) (string, bool) {
	return e.cfg.Field(e.pkg, name)
}

// FieldOr returns the named parameter or def when it is absent.
func (e *Entry) FieldOr(name, def string) string {
	return e.cfg.FieldOr(e.pkg, name, def)
}

// SourceType returns the entry's source discriminator, empty when absent.
func (e *Entry) SourceType() string {
	return e.FieldOr("type", "")
}

// fieldString converts a decoded TOML value to its string form.
// Sub-tables and arrays are not fields and report absent.
func fieldString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
