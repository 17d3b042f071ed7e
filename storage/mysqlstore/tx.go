package mysqlstore

import (
	"context"
	"strconv"
	"sync/atomic"

	"gluedb/errs"
	"gluedb/storage"
)

var txSeq atomic.Uint64

// Begin starts a real database/sql transaction backing every subsequent
// Storage call until Commit or Rollback, mirroring the way an autocommit
// flag lets a caller opt out of one (applier.Connect always ran statements
// autocommit; the planner/executor need the explicit begin/commit pair
// spec'd for multi-statement scripts).
func (s *Store) Begin(autocommit bool) (storage.TxID, error) {
	if autocommit {
		return "", nil
	}
	if s.active != nil {
		return "", errs.New(errs.KindTransactionConflict, "a transaction is already open on this connection")
	}
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return "", errs.Wrap(errs.KindStorageIO, err, "begin transaction")
	}
	s.active = tx
	id := storage.TxID(strconv.FormatUint(txSeq.Add(1), 10))
	s.log.Debug("transaction opened")
	return id, nil
}

func (s *Store) Commit(tx storage.TxID) error {
	if tx == "" {
		return nil
	}
	if s.active == nil {
		return errs.New(errs.KindTransactionNotFound, "transaction %q not found", tx)
	}
	err := s.active.Commit()
	s.active = nil
	if err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "commit transaction")
	}
	s.log.Debug("transaction committed")
	return nil
}

func (s *Store) Rollback(tx storage.TxID) error {
	if tx == "" {
		return nil
	}
	if s.active == nil {
		return errs.New(errs.KindTransactionNotFound, "transaction %q not found", tx)
	}
	err := s.active.Rollback()
	s.active = nil
	if err != nil {
		return errs.Wrap(errs.KindStorageIO, err, "rollback transaction")
	}
	s.log.Debug("transaction rolled back")
	return nil
}
