// Package unitflags holds the flags shared by every command that opens a persistence unit.
package unitflags

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/persistence"
)

// DefaultUnit is the persistence unit used when --unit is not given.
const DefaultUnit = "me.fevvelasquez.mvn.hibernate.jpa.em.persistenceunit"

const (
	configFlag   = "config"
	unitFlag     = "unit"
	logLevelFlag = "log-level"
)

// Set is a group of unit flags bound to one command.
type Set map[string]cobraflags.Flag

// New returns unregistered unit flags.
func New() Set {
	return Set{
		configFlag: &cobraflags.StringFlag{
			Name:  configFlag,
			Value: config.DefaultFile,
			Usage: "Persistence units configuration file",
		},
		unitFlag: &cobraflags.StringFlag{
			Name:  unitFlag,
			Value: DefaultUnit,
			Usage: "Name of the persistence unit to open",
		},
		logLevelFlag: &cobraflags.StringFlag{
			Name:  logLevelFlag,
			Value: "info",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

// Register adds the flags to cmd.
func (s Set) Register(cmd *cobra.Command) {
	cobraflags.RegisterMap(cmd, s)
}

// Unit returns the requested persistence unit name.
func (s Set) Unit() string {
	return s[unitFlag].GetString()
}

// Logger returns a text logger on stderr at the requested level.
func (s Set) Logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s[logLevelFlag].GetString())); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// OpenFactory opens the requested persistence unit.
func (s Set) OpenFactory(ctx context.Context, opts ...persistence.Option) (*persistence.Factory, error) {
	logger, err := s.Logger()
	if err != nil {
		return nil, err
	}
	opts = append([]persistence.Option{
		persistence.WithConfigFile(s[configFlag].GetString()),
		persistence.WithLogger(logger),
	}, opts...)
	return persistence.CreateFactory(ctx, s.Unit(), opts...)
}
