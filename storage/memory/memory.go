// Package memory is the in-memory reference Storage backend: every table
// lives as a sorted-by-key row slice guarded by one mutex, with
// begin/commit/rollback implemented by snapshotting and restoring that
// state wholesale. It exists to exercise storage.Storage end to end without
// a real database, and as the executor's default backend in tests.
package memory

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gluedb/errs"
	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

type tableData struct {
	rows    []storage.Row
	nextSeq uint64
}

func (td *tableData) clone() *tableData {
	rows := make([]storage.Row, len(td.rows))
	for i, r := range td.rows {
		vs := make([]value.Value, len(r.Values))
		copy(vs, r.Values)
		rows[i] = storage.Row{Key: append([]byte(nil), r.Key...), Values: vs}
	}
	return &tableData{rows: rows, nextSeq: td.nextSeq}
}

type snapshot struct {
	tables map[string]*schema.Table
	data   map[string]*tableData
}

// Store is a Storage backend that keeps every table in process memory.
type Store struct {
	mu      sync.Mutex
	tables  map[string]*schema.Table
	data    map[string]*tableData
	nextTx  uint64
	txns    map[storage.TxID]snapshot
}

func New() *Store {
	return &Store{
		tables: map[string]*schema.Table{},
		data:   map[string]*tableData{},
		txns:   map[storage.TxID]snapshot{},
	}
}

func key(table string) string { return strings.ToLower(table) }

func (s *Store) FetchSchema(table string) (*schema.Table, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key(table)]
	return t, ok, nil
}

func (s *Store) FetchAllSchemas() ([]*schema.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Table, 0, len(s.tables))
	names := make([]string, 0, len(s.tables))
	for k := range s.tables {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		out = append(out, s.tables[n])
	}
	return out, nil
}

func (s *Store) InsertSchema(t *schema.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(t.Name)
	if _, exists := s.tables[k]; exists {
		return errs.New(errs.KindDuplicateColumn, "table %q already exists", t.Name)
	}
	s.tables[k] = t
	s.data[k] = &tableData{}
	return nil
}

func (s *Store) DeleteSchema(table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(table)
	if _, ok := s.tables[k]; !ok {
		return errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	delete(s.tables, k)
	delete(s.data, k)
	return nil
}

func (s *Store) ScanData(table string) (storage.RowIter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.data[key(table)]
	if !ok {
		return nil, errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	rows := make([]storage.Row, len(td.rows))
	copy(rows, td.rows)
	return storage.NewSliceIter(rows), nil
}

func (s *Store) FetchData(table string, k []byte) ([]value.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.data[key(table)]
	if !ok {
		return nil, false, errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	i := sort.Search(len(td.rows), func(i int) bool { return bytes.Compare(td.rows[i].Key, k) >= 0 })
	if i < len(td.rows) && bytes.Equal(td.rows[i].Key, k) {
		vs := make([]value.Value, len(td.rows[i].Values))
		copy(vs, td.rows[i].Values)
		return vs, true, nil
	}
	return nil, false, nil
}

// ScanIndexedData supports only the schema-declared primary-key-equivalent
// ordering: it scans the table's row slice (already sorted by storage key,
// not by the named index's expression) and filters with bound. This is
// enough to exercise the capability end to end; a backend that maintains a
// real secondary index structure would scan that structure instead.
func (s *Store) ScanIndexedData(table, indexName string, asc bool, bound *storage.IndexBound) (storage.RowIter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key(table)]
	if !ok {
		return nil, errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	ix := t.FindIndex(indexName)
	if ix == nil {
		return nil, storage.ErrUnsupportedCapability("index " + indexName)
	}
	col := -1
	for i, name := range t.ColumnNames() {
		if strings.EqualFold(name, ix.Expression) {
			col = i
		}
	}
	if col < 0 {
		return nil, storage.ErrUnsupportedCapability("index expression " + ix.Expression)
	}
	td := s.data[key(table)]
	rows := make([]storage.Row, len(td.rows))
	copy(rows, td.rows)
	if !asc {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	if bound == nil {
		return storage.NewSliceIter(rows), nil
	}
	filtered := rows[:0]
	for _, r := range rows {
		if indexBoundMatches(bound, r, col) {
			filtered = append(filtered, r)
		}
	}
	return storage.NewSliceIter(filtered), nil
}

func indexBoundMatches(bound *storage.IndexBound, row storage.Row, col int) bool {
	if len(row.Values) <= col {
		return false
	}
	if bound.Value.IsNull() {
		if bound.Op == storage.CmpEq {
			return row.Values[col].IsNull()
		}
		return !row.Values[col].IsNull()
	}
	cmp, ok := value.Compare(row.Values[col], bound.Value)
	if !ok {
		return false
	}
	switch bound.Op {
	case storage.CmpEq:
		return cmp == 0
	case storage.CmpLt:
		return cmp < 0
	case storage.CmpLtEq:
		return cmp <= 0
	case storage.CmpGt:
		return cmp > 0
	case storage.CmpGtEq:
		return cmp >= 0
	default:
		return false
	}
}

func (s *Store) AppendData(table string, rows [][]value.Value) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.data[key(table)]
	if !ok {
		return nil, errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	keys := make([][]byte, len(rows))
	for i, row := range rows {
		k := make([]byte, 8)
		binary.BigEndian.PutUint64(k, td.nextSeq)
		td.nextSeq++
		td.rows = append(td.rows, storage.Row{Key: k, Values: row})
		keys[i] = k
	}
	sort.Slice(td.rows, func(i, j int) bool { return bytes.Compare(td.rows[i].Key, td.rows[j].Key) < 0 })
	return keys, nil
}

func (s *Store) InsertData(table string, rows []storage.KeyedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.data[key(table)]
	if !ok {
		return errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	for _, kr := range rows {
		i := sort.Search(len(td.rows), func(i int) bool { return bytes.Compare(td.rows[i].Key, kr.Key) >= 0 })
		if i < len(td.rows) && bytes.Equal(td.rows[i].Key, kr.Key) {
			td.rows[i].Values = kr.Values
			continue
		}
		td.rows = append(td.rows, storage.Row{})
		copy(td.rows[i+1:], td.rows[i:])
		td.rows[i] = storage.Row{Key: kr.Key, Values: kr.Values}
	}
	return nil
}

func (s *Store) DeleteData(table string, keys [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.data[key(table)]
	if !ok {
		return errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	for _, k := range keys {
		i := sort.Search(len(td.rows), func(i int) bool { return bytes.Compare(td.rows[i].Key, k) >= 0 })
		if i < len(td.rows) && bytes.Equal(td.rows[i].Key, k) {
			td.rows = append(td.rows[:i], td.rows[i+1:]...)
		}
	}
	return nil
}

func (s *Store) Begin(autocommit bool) (storage.TxID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if autocommit {
		return "", nil
	}
	s.nextTx++
	tx := storage.TxID(strconv.FormatUint(s.nextTx, 10))
	tables := make(map[string]*schema.Table, len(s.tables))
	for k, v := range s.tables {
		tables[k] = v
	}
	data := make(map[string]*tableData, len(s.data))
	for k, v := range s.data {
		data[k] = v.clone()
	}
	s.txns[tx] = snapshot{tables: tables, data: data}
	return tx, nil
}

func (s *Store) Commit(tx storage.TxID) error {
	if tx == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[tx]; !ok {
		return errs.New(errs.KindTransactionNotFound, "transaction %q not found", tx)
	}
	delete(s.txns, tx)
	return nil
}

func (s *Store) Rollback(tx storage.TxID) error {
	if tx == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.txns[tx]
	if !ok {
		return errs.New(errs.KindTransactionNotFound, "transaction %q not found", tx)
	}
	s.tables = snap.tables
	s.data = snap.data
	delete(s.txns, tx)
	return nil
}
