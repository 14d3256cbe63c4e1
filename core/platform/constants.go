// Package platform names the database platforms albumstore can talk to.
package platform

import (
	"strings"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	MariaDB  = "mariadb"
	SQLite   = "sqlite"
)

// All lists every supported platform in rendering order.
var All = []string{Postgres, MySQL, MariaDB, SQLite}

func NormalizeDialect(dialect string) string {
	switch strings.ToLower(dialect) {
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	case "mariadb":
		return MariaDB
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return ""
	}
}

// IsMySQLLike reports whether the dialect speaks the MySQL wire dialect.
func IsMySQLLike(dialect string) bool {
	d := NormalizeDialect(dialect)
	return d == MySQL || d == MariaDB
}
