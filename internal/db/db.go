package db

import (
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationsFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectOf picks the database flavour from DATABASE_URL. Anything that is
// not a postgres URL is treated as a SQLite file path.
func DialectOf(databaseURL string) Dialect {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the database named by databaseURL.
func Open(databaseURL string) (*sqlx.DB, error) {
	switch DialectOf(databaseURL) {
	case DialectPostgres:
		return NewPostgresDB(databaseURL)
	default:
		return NewSQLiteDB(databaseURL)
	}
}

// RunMigrations applies the embedded migrations for the dialect of
// databaseURL.
func RunMigrations(databaseURL string) error {
	switch DialectOf(databaseURL) {
	case DialectPostgres:
		return runPostgresMigrations(databaseURL)
	default:
		return runSQLiteMigrations(databaseURL)
	}
}

func migrationsPath(dialect Dialect) string {
	return fmt.Sprintf("migrations/%s", dialect)
}
