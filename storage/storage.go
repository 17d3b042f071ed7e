// Package storage defines the abstract capability contract the planner and
// executor consume: schema lookup, key/row scan, point fetch, mutation, an
// optional index scan, and an optional transaction. Concrete backends
// (storage/memory, storage/mysqlstore) implement Storage; the core never
// talks to a backend any other way.
package storage

import (
	"gluedb/errs"
	"gluedb/schema"
	"gluedb/value"
)

// Row is one stored record: its storage-defined key and its column values
// in schema order (or a single-element Map value for a schemaless table).
type Row struct {
	Key    []byte
	Values []value.Value
}

// RowIter is a lazy, forward-only sequence of rows (in ascending key order
// when it comes from ScanData). It is restartable
// only by re-issuing the call that produced it; a scan is single-use.
type RowIter interface {
	// Next returns the next row. ok is false once the sequence is
	// exhausted, with err nil in that case.
	Next() (row Row, ok bool, err error)
}

// CompareOp is the comparison operator accepted by ScanIndexedData's
// optional bound. It mirrors ast.BinaryOperator's ordering subset without
// storage depending on the ast package.
type CompareOp string

const (
	CmpEq   CompareOp = "="
	CmpLt   CompareOp = "<"
	CmpLtEq CompareOp = "<="
	CmpGt   CompareOp = ">"
	CmpGtEq CompareOp = ">="
)

// IndexBound narrows an index scan to rows whose indexed expression
// satisfies `value OP Bound`. A Null Value selects the rows whose indexed
// value is Null under CmpEq and the non-Null rows under any other op (the
// planner's IS NULL / IS NOT NULL pushdown). A nil *IndexBound means "scan
// the whole index in the requested direction".
type IndexBound struct {
	Op    CompareOp
	Value value.Value
}

// KeyedRow is one (key, row) pair for an explicit-key upsert.
type KeyedRow struct {
	Key    []byte
	Values []value.Value
}

// TxID identifies an open transaction. Its zero value never denotes a live
// transaction.
type TxID string

// Storage is the full capability surface a backend may offer. Backends that
// do not support indexed scans or transactions return
// errs.KindUnsupportedCapability from those methods rather than silently
// degrading.
type Storage interface {
	FetchSchema(table string) (*schema.Table, bool, error)
	FetchAllSchemas() ([]*schema.Table, error)

	ScanData(table string) (RowIter, error)
	FetchData(table string, key []byte) ([]value.Value, bool, error)
	// ScanIndexedData is an optional capability; backends without a usable
	// index structure return errs.KindUnsupportedCapability.
	ScanIndexedData(table, indexName string, asc bool, bound *IndexBound) (RowIter, error)

	InsertSchema(t *schema.Table) error
	DeleteSchema(table string) error

	// AppendData auto-keys every row and returns the keys assigned, in the
	// same order as rows.
	AppendData(table string, rows [][]value.Value) ([][]byte, error)
	// InsertData upserts explicit (key, row) pairs.
	InsertData(table string, rows []KeyedRow) error
	DeleteData(table string, keys [][]byte) error

	// Begin/Commit/Rollback are optional; backends without transaction
	// support return errs.KindUnsupportedCapability from Begin.
	Begin(autocommit bool) (TxID, error)
	Commit(tx TxID) error
	Rollback(tx TxID) error
}

// ErrUnsupportedCapability is the canonical error returned by a backend
// method it does not implement.
func ErrUnsupportedCapability(capability string) error {
	return errs.New(errs.KindUnsupportedCapability, "storage backend does not support %s", capability)
}

// SliceIter adapts a materialized []Row into a RowIter, for backends (like
// storage/memory) that build the full result in memory before streaming it.
type SliceIter struct {
	rows []Row
	pos  int
}

func NewSliceIter(rows []Row) *SliceIter { return &SliceIter{rows: rows} }

func (it *SliceIter) Next() (Row, bool, error) {
	if it.pos >= len(it.rows) {
		return Row{}, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true, nil
}
