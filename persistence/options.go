package persistence

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/core/mapping"
)

type options struct {
	cfg        *config.Config
	configFile string
	logger     *slog.Logger
	registerer prometheus.Registerer
	entities   []mapping.Descriptor
	schema     config.SchemaMode
}

// Option configures CreateFactory.
type Option func(*options)

// WithConfig resolves the persistence unit from cfg instead of a configuration file.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithConfigFile reads persistence units from path. The default is config.DefaultFile.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithLogger sets the logger of the factory and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers the factory metrics on r. By default they go to a private
// registry reachable through Factory.Gatherer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithEntities sets the mapped entities of the factory, overriding the global
// registrations and the unit's entity list.
func WithEntities(ds ...mapping.Descriptor) Option {
	return func(o *options) {
		o.entities = append(o.entities, ds...)
	}
}

// WithSchemaMode overrides the schema mode of the persistence unit.
func WithSchemaMode(mode config.SchemaMode) Option {
	return func(o *options) {
		o.schema = mode
	}
}
