package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"naalli/internal/config"
	"naalli/internal/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // postgres dialect
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // sqlite3 dialect
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the data-access layer. Queries are built with goqu for the configured dialect.
type DB struct {
	*sql.DB
	dialect string
	qb      *goqu.Database
	loc     *time.Location
	logger  *zerolog.Logger
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDB opens the configured database and creates the schema.
func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return open(config.DriverPostgres, NormalizePostgresURL(cfg.URL), logger)
	case config.DriverSQLite, "":
		return NewSQLiteDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewSQLiteDB opens (and creates) a sqlite database file. ":memory:" is accepted.
func NewSQLiteDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return open(config.DriverSQLite, path, logger)
}

func open(dialect, dsn string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sqlDB, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == config.DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:      sqlDB,
		dialect: dialect,
		qb:      goqu.New(dialect, sqlDB),
		loc:     time.Local,
		logger:  logger,
	}

	if err := db.createTables(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("dialect", dialect).Msg("database initialized")
	return db, nil
}

// NormalizePostgresURL rewrites the "postgres://" scheme some platforms inject.
func NormalizePostgresURL(url string) string {
	if strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return url
}

// SetLocation sets the zone stored timestamps are interpreted in.
func (db *DB) SetLocation(loc *time.Location) {
	if loc != nil {
		db.loc = loc
	}
}

// Dialect returns the SQL dialect in use.
func (db *DB) Dialect() string {
	return db.dialect
}

func (db *DB) createTables() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	trueLiteral := "1"
	if db.dialect == config.DriverPostgres {
		idColumn = "SERIAL PRIMARY KEY"
		trueLiteral = "TRUE"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            email TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            password_hash TEXT NOT NULL,
            must_change_password BOOLEAN NOT NULL DEFAULT ` + trueLiteral + `,
            role TEXT NOT NULL DEFAULT 'student',
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id ` + idColumn + `,
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            number INTEGER NOT NULL,
            kind TEXT NOT NULL,
            name TEXT NOT NULL,
            owner_email TEXT NOT NULL DEFAULT '',
            pin TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reviews (
            id ` + idColumn + `,
            booking_id INTEGER NOT NULL,
            student_name TEXT NOT NULL,
            class_date TEXT NOT NULL,
            kind TEXT NOT NULL,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT NOT NULL DEFAULT '',
            submitted_at TEXT NOT NULL
        )`,

		`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_slot ON bookings(date, time, number, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_name ON bookings(name)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_reviews_booking ON reviews(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_student ON reviews(student_name)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Dataset constructors. Prepared mode keeps values out of the SQL text and passes
// them as driver arguments.
func (db *DB) from(table string) *goqu.SelectDataset {
	return db.qb.From(table).Prepared(true)
}

func (db *DB) insert(table string) *goqu.InsertDataset {
	return db.qb.Insert(table).Prepared(true)
}

func (db *DB) update(table string) *goqu.UpdateDataset {
	return db.qb.Update(table).Prepared(true)
}

func (db *DB) deleteFrom(table string) *goqu.DeleteDataset {
	return db.qb.Delete(table).Prepared(true)
}

// insertID runs an insert and returns the generated id. sqlite has no RETURNING in goqu's
// dialect, so it relies on LastInsertId; lib/pq does not implement LastInsertId.
func (db *DB) insertID(ctx context.Context, q querier, ds *goqu.InsertDataset) (int64, error) {
	if db.dialect == config.DriverPostgres {
		query, args, err := ds.Returning("id").ToSQL()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}
		var id int64
		if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) formatTimestamp(t time.Time) string {
	return t.In(db.loc).Format(models.TimestampLayout)
}

func (db *DB) parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(models.TimestampLayout, s, db.loc)
	if err != nil {
		db.logger.Warn().Str("value", s).Msg("unparseable timestamp in database")
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
