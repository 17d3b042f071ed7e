// Package mysqlstore is a storage.Storage backend persisting every table to
// a real MySQL database via database/sql and the go-sql-driver/mysql driver.
// Schemas live in a metadata table (gluedb_schema); each gluedb table maps
// onto one physical table (gluedb_data_<name>) keyed by its storage-assigned
// row key, with the row's values serialized to JSON by codec.go. This
// mirrors the connector lifecycle applier.Connect/Close already use to talk
// to a user's database, generalized from a one-shot migration runner into a
// backend the planner and executor can read and write continuously.
package mysqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"gluedb/errs"
	"gluedb/migrate"
)

const metadataTable = "gluedb_schema"

// Store is a Storage backend backed by a live MySQL connection.
type Store struct {
	db     *sql.DB
	log    *zap.Logger
	active *sql.Tx // set between Begin(autocommit=false) and Commit/Rollback
}

// Open connects to dsn, pings it, and ensures the metadata table exists.
// log may be nil, in which case a no-op logger is used.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "open mysql connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Error("ping mysql connection failed", zap.Error(err))
		return nil, errs.Wrap(errs.KindStorageIO, err, "ping mysql connection")
	}
	var version string
	if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err == nil {
		log.Debug("mysql server version", zap.String("version", version))
	}
	s := &Store{db: db, log: log}
	if err := s.ensureMetadataTable(ctx); err != nil {
		_ = db.Close()
		log.Error("create metadata table failed", zap.Error(err))
		return nil, err
	}
	if err := migrate.MigrateToLatest(s, log); err != nil {
		_ = db.Close()
		log.Error("storage migration failed", zap.Error(err))
		return nil, err
	}
	log.Debug("mysqlstore connected")
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.log.Debug("mysqlstore closing")
	return s.db.Close()
}

// execer is whichever of *sql.DB / *sql.Tx is currently live; every data and
// schema method goes through it so an open transaction transparently covers
// all storage.Storage calls in between Begin and Commit/Rollback.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer() execer {
	if s.active != nil {
		return s.active
	}
	return s.db
}

func (s *Store) ensureMetadataTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS `%s` (table_name VARCHAR(191) PRIMARY KEY, definition JSON NOT NULL)", metadataTable))
	if err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "create metadata table")
	}
	return nil
}

func dataTableName(table string) string {
	return "gluedb_data_" + table
}

// quoteIdent backtick-quotes a table or column name, doubling any embedded
// backtick the way a MySQL identifier must escape one.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
