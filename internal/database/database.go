package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	pkgerrors "github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQL dialects understood by the repositories.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is a connection pool together with the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect string
}

// New opens and pings a connection pool for a DATABASE_URL.
//
// postgres:// and postgresql:// URLs use pgx; sqlite://path, file: DSNs and
// bare paths use the pure-Go SQLite driver.
func New(databaseURL string) (*DB, error) {
	driver, dsn, dialect, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s database", dialect)
	}
	if dialect == DialectSQLite {
		// SQLite allows a single writer; serialising through one connection
		// avoids SQLITE_BUSY under concurrent signups.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, pkgerrors.Wrapf(err, "ping %s database", dialect)
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

func parseURL(databaseURL string) (driver, dsn, dialect string, err error) {
	switch {
	case databaseURL == "":
		return "", "", "", errors.New("empty database URL")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "pgx", databaseURL, DialectPostgres, nil
	}

	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path == ":memory:" {
		path = "file::memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "sqlite", path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", DialectSQLite, nil
}

// Rebind rewrites ? placeholders into the form the dialect expects.
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *DB) error {
	dialect := goose.DialectSQLite3
	if db.Dialect == DialectPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return pkgerrors.Wrap(err, "create migration provider")
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "apply migrations")
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("Applied migration")
	}
	return nil
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "unique constraint")
}
