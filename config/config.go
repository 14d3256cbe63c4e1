// Package config resolves persistence units by their logical name.
//
// Units are declared in a YAML file read through viper:
//
//	units:
//	  me.fevvelasquez.mvn.hibernate.jpa.em.persistenceunit:
//	    url: sqlite://albums.db
//	    schema: create
//	    show_sql: true
//
// Unit names routinely contain dots, so keys are addressed with a "::" delimiter.
// Viper lowercases keys, which makes unit names case-insensitive.
package config

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFile is the configuration file the CLI reads when none is given.
const DefaultFile = "persistence.yaml"

// DatabaseURLEnv names the environment variable used as the URL of units without one.
const DatabaseURLEnv = "DATABASE_URL"

// ErrUnknownUnit is returned when a persistence unit name is not configured.
var ErrUnknownUnit = errors.New("unknown persistence unit")

// SchemaMode controls what happens to the mapped tables when a factory opens.
type SchemaMode string

const (
	// SchemaNone leaves the database alone.
	SchemaNone SchemaMode = "none"
	// SchemaCreate drops the mapped tables if present and creates them.
	SchemaCreate SchemaMode = "create"
	// SchemaCreateDrop creates like SchemaCreate and drops the tables when the factory closes.
	SchemaCreateDrop SchemaMode = "create-drop"
	// SchemaUpdate creates missing tables.
	SchemaUpdate SchemaMode = "update"
	// SchemaValidate fails factory creation when the live tables do not match the mappings.
	SchemaValidate SchemaMode = "validate"
)

// Valid reports whether m is a known mode.
func (m SchemaMode) Valid() bool {
	switch m {
	case SchemaNone, SchemaCreate, SchemaCreateDrop, SchemaUpdate, SchemaValidate:
		return true
	}
	return false
}

// Unit is a named persistence unit: a database plus schema handling.
type Unit struct {
	Name         string     `mapstructure:"-"`
	URL          string     `mapstructure:"url"`
	Schema       SchemaMode `mapstructure:"schema"`
	ShowSQL      bool       `mapstructure:"show_sql"`
	MaxOpenConns int        `mapstructure:"max_open_conns"`
	// Entities restricts the unit to the named mapped entities; empty means all registered.
	Entities []string `mapstructure:"entities"`
}

// Config is a set of persistence units.
type Config struct {
	units map[string]Unit
}

// New builds a configuration from units given in code.
func New(units ...Unit) (*Config, error) {
	c := &Config{units: map[string]Unit{}}
	for _, u := range units {
		if err := c.add(u); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}
	return fromViper(v)
}

// Parse reads a configuration document in the given format (yaml, json, toml).
func Parse(r io.Reader, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	_ = v.BindEnv("database_url", DatabaseURLEnv)
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	var units map[string]Unit
	if err := v.UnmarshalKey("units", &units); err != nil {
		return nil, fmt.Errorf("failed to decode persistence units: %w", err)
	}

	fallbackURL := v.GetString("database_url")
	c := &Config{units: map[string]Unit{}}
	for name, u := range units {
		u.Name = name
		if u.URL == "" {
			u.URL = fallbackURL
		}
		if err := c.add(u); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Config) add(u Unit) error {
	u.Name = strings.ToLower(u.Name)
	if u.Name == "" {
		return errors.New("persistence unit name is required")
	}
	if u.Schema == "" {
		u.Schema = SchemaNone
	}
	if !u.Schema.Valid() {
		return fmt.Errorf("persistence unit %s: invalid schema mode %q", u.Name, u.Schema)
	}
	if u.URL == "" {
		return fmt.Errorf("persistence unit %s: no url configured and %s is not set", u.Name, DatabaseURLEnv)
	}
	if u.MaxOpenConns < 0 {
		return fmt.Errorf("persistence unit %s: max_open_conns must not be negative", u.Name)
	}
	c.units[u.Name] = u
	return nil
}

// Unit returns the persistence unit with the given name.
func (c *Config) Unit(name string) (Unit, error) {
	u, ok := c.units[strings.ToLower(name)]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}
	return u, nil
}

// Names returns the configured unit names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.units))
	for name := range c.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
