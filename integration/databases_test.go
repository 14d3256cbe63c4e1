//go:build integration

package integration_test

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/albumstore/dbschema"
)

var databases = []struct {
	name    string
	env     string
	dialect string
	driver  string
}{
	{name: "postgres", env: "POSTGRES_TEST_DSN", dialect: "postgres", driver: "stdlib"},
	{name: "mysql", env: "MYSQL_TEST_DSN", dialect: "mysql", driver: "mysql"},
	{name: "mariadb", env: "MARIADB_TEST_DSN", dialect: "mariadb", driver: "mysql"},
}

func TestScenarios_Databases(t *testing.T) {
	for _, db := range databases {
		t.Run(db.name, func(t *testing.T) {
			url := os.Getenv(db.env)
			if url == "" {
				t.Skipf("Skipping %s scenarios: %s environment variable not set", db.name, db.env)
			}
			runScenarios(t, url)
		})
	}
}

// TestDriverSelection verifies which database/sql driver serves each URL scheme.
func TestDriverSelection(t *testing.T) {
	for _, db := range databases {
		t.Run(db.name, func(t *testing.T) {
			url := os.Getenv(db.env)
			if url == "" {
				t.Skipf("Skipping %s driver check: %s environment variable not set", db.name, db.env)
			}
			c := qt.New(t)

			conn, err := dbschema.ConnectToDatabase(context.Background(), url)
			c.Assert(err, qt.IsNil)
			defer conn.Close()

			c.Assert(conn.Info().Dialect, qt.Equals, db.dialect)
			driverType := reflect.TypeOf(conn.DB().Driver()).String()
			c.Assert(strings.Contains(driverType, db.driver), qt.IsTrue,
				qt.Commentf("Expected %s driver, got: %s", db.driver, driverType))

			schema, err := conn.Reader().ReadSchema(context.Background())
			c.Assert(err, qt.IsNil)
			c.Assert(schema, qt.IsNotNil)
		})
	}
}
