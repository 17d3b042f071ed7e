package mysqlstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	"gluedb/errs"
	"gluedb/storage"
	"gluedb/value"
)

func (s *Store) ScanData(table string) (storage.RowIter, error) {
	ctx := context.Background()
	rows, err := s.execer().QueryContext(ctx,
		fmt.Sprintf("SELECT row_key, row_values FROM %s ORDER BY row_key", quoteIdent(dataTableName(table))))
	if err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "scan table %q", table)
	}
	defer rows.Close()

	var out []storage.Row
	for rows.Next() {
		var key, raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, errs.Wrap(errs.KindStorageIO, err, "scan row in %q", table)
		}
		vs, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.Row{Key: key, Values: vs})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "scan table %q", table)
	}
	return storage.NewSliceIter(out), nil
}

func (s *Store) FetchData(table string, key []byte) ([]value.Value, bool, error) {
	ctx := context.Background()
	row := s.execer().QueryRowContext(ctx,
		fmt.Sprintf("SELECT row_values FROM %s WHERE row_key = ?", quoteIdent(dataTableName(table))), key)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(errs.KindStorageIO, err, "fetch row in %q", table)
	}
	vs, err := decodeRow(raw)
	if err != nil {
		return nil, false, err
	}
	return vs, true, nil
}

// ScanIndexedData has no secondary-index structure to scan in this backend;
// the executor falls back to ScanData on this error, same as any other
// backend that declares the capability unsupported.
func (s *Store) ScanIndexedData(table, indexName string, asc bool, bound *storage.IndexBound) (storage.RowIter, error) {
	return nil, storage.ErrUnsupportedCapability("indexed scan")
}

func (s *Store) AppendData(table string, rows [][]value.Value) ([][]byte, error) {
	ctx := context.Background()
	keys := make([][]byte, len(rows))
	keyed := make([]storage.KeyedRow, len(rows))
	for i, row := range rows {
		k := make([]byte, 16)
		if _, err := rand.Read(k); err != nil {
			return nil, errs.Wrap(errs.KindStorageIO, err, "generate row key")
		}
		keys[i] = k
		keyed[i] = storage.KeyedRow{Key: k, Values: row}
	}
	if err := s.insertKeyed(ctx, table, keyed); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) InsertData(table string, rows []storage.KeyedRow) error {
	return s.insertKeyed(context.Background(), table, rows)
}

func (s *Store) insertKeyed(ctx context.Context, table string, rows []storage.KeyedRow) error {
	tname := quoteIdent(dataTableName(table))
	for _, kr := range rows {
		raw, err := encodeRow(kr.Values)
		if err != nil {
			return err
		}
		_, err = s.execer().ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (row_key, row_values) VALUES (?, ?) ON DUPLICATE KEY UPDATE row_values = VALUES(row_values)",
			tname), kr.Key, raw)
		if err != nil {
			return errs.Wrap(errs.KindStorageIO, err, "write row in %q", table)
		}
	}
	return nil
}

func (s *Store) DeleteData(table string, keys [][]byte) error {
	ctx := context.Background()
	tname := quoteIdent(dataTableName(table))
	for _, k := range keys {
		if _, err := s.execer().ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE row_key = ?", tname), k); err != nil {
			return errs.Wrap(errs.KindStorageIO, err, "delete row in %q", table)
		}
	}
	return nil
}
