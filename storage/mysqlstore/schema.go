package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gluedb/errs"
	"gluedb/schema"
)

func (s *Store) FetchSchema(table string) (*schema.Table, bool, error) {
	ctx := context.Background()
	row := s.execer().QueryRowContext(ctx,
		fmt.Sprintf("SELECT definition FROM `%s` WHERE table_name = ?", metadataTable), table)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(errs.KindStorageIO, err, "fetch schema %q", table)
	}
	t, err := decodeTable(raw)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *Store) FetchAllSchemas() ([]*schema.Table, error) {
	ctx := context.Background()
	rows, err := s.execer().QueryContext(ctx, fmt.Sprintf("SELECT definition FROM `%s` ORDER BY table_name", metadataTable))
	if err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "list schemas")
	}
	defer rows.Close()

	var out []*schema.Table
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errs.Wrap(errs.KindStorageIO, err, "scan schema row")
		}
		t, err := decodeTable(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) InsertSchema(t *schema.Table) error {
	ctx := context.Background()
	if _, ok, err := s.FetchSchema(t.Name); err != nil {
		return err
	} else if ok {
		return errs.New(errs.KindDuplicateColumn, "table %q already exists", t.Name)
	}

	raw, err := encodeTable(t)
	if err != nil {
		return err
	}
	if _, err := s.execer().ExecContext(ctx,
		fmt.Sprintf("INSERT INTO `%s` (table_name, definition) VALUES (?, ?)", metadataTable),
		t.Name, raw); err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "insert schema %q", t.Name)
	}
	if err := s.ensureDataTable(ctx, t.Name); err != nil {
		return err
	}
	s.log.Debug("created table", zap.String("table", t.Name))
	return nil
}

func (s *Store) DeleteSchema(table string) error {
	ctx := context.Background()
	res, err := s.execer().ExecContext(ctx,
		fmt.Sprintf("DELETE FROM `%s` WHERE table_name = ?", metadataTable), table)
	if err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "delete schema %q", table)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	if err := s.dropDataTable(ctx, table); err != nil {
		return err
	}
	s.log.Debug("dropped table", zap.String("table", table))
	return nil
}

func (s *Store) ensureDataTable(ctx context.Context, table string) error {
	_, err := s.execer().ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (row_key VARBINARY(767) PRIMARY KEY, row_values JSON NOT NULL)",
		quoteIdent(dataTableName(table))))
	if err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "create data table for %q", table)
	}
	return nil
}

func (s *Store) dropDataTable(ctx context.Context, table string) error {
	_, err := s.execer().ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(dataTableName(table))))
	if err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "drop data table for %q", table)
	}
	return nil
}
