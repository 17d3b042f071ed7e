// Package executor runs a translated, planned Statement against a
// storage.Storage backend: Select's streaming fetch/join/filter/aggregate/
// sort/limit/project pipeline (spec §4.6), and the write-side Insert/
// Update/Delete/DDL operations.
package executor

import (
	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/evaluate"
	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

// Payload is the uniform result of running one Statement, mirroring the
// original engine's Payload enum as a single struct with the fields that
// apply to the statement actually run.
type Payload struct {
	Labels    []string
	Rows      [][]value.Value
	Affected  int
	Statement string // "SELECT", "INSERT", "UPDATE", "DELETE", "CREATE TABLE", ...
}

// Executor runs statements against one storage backend. It is not
// goroutine-safe: one Executor models one session's sequential statement
// stream, including whatever transaction that session has open.
type Executor struct {
	storage storage.Storage
	eval    *evaluate.Evaluator
	tx      storage.TxID
	inTx    bool
	log     *zap.Logger
}

// New builds an Executor against store. log may be nil, in which case a
// no-op logger is used and the executor stays silent.
func New(store storage.Storage, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	ex := &Executor{storage: store, log: log}
	ex.eval = evaluate.New(store, ex)
	return ex
}

// Execute dispatches stmt to the matching handler and returns its Payload.
func (ex *Executor) Execute(stmt ast.Statement) (Payload, error) {
	ex.log.Debug("executing statement", zap.String("type", statementKind(stmt)))
	payload, err := ex.execute(stmt)
	if err != nil {
		ex.log.Warn("statement failed", zap.String("type", statementKind(stmt)), zap.Error(err))
		return payload, err
	}
	return payload, nil
}

func statementKind(stmt ast.Statement) string {
	switch stmt.(type) {
	case *ast.Select:
		return "SELECT"
	case *ast.Insert:
		return "INSERT"
	case *ast.Update:
		return "UPDATE"
	case *ast.Delete:
		return "DELETE"
	case *ast.CreateTable:
		return "CREATE TABLE"
	case *ast.DropTable:
		return "DROP TABLE"
	case *ast.AlterTable:
		return "ALTER TABLE"
	case *ast.CreateIndex:
		return "CREATE INDEX"
	case *ast.DropIndex:
		return "DROP INDEX"
	case *ast.StartTransaction:
		return "START TRANSACTION"
	case *ast.Commit:
		return "COMMIT"
	case *ast.Rollback:
		return "ROLLBACK"
	case *ast.ShowColumns:
		return "SHOW COLUMNS"
	default:
		return "UNKNOWN"
	}
}

func (ex *Executor) execute(stmt ast.Statement) (Payload, error) {
	switch n := stmt.(type) {
	case *ast.Select:
		labels, rows, err := ex.runSelect(nil, n)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Labels: labels, Rows: rows, Statement: "SELECT"}, nil

	case *ast.Insert:
		n2, err := ex.execInsert(n)
		return n2, err

	case *ast.Update:
		return ex.execUpdate(n)

	case *ast.Delete:
		return ex.execDelete(n)

	case *ast.CreateTable:
		return ex.execCreateTable(n)

	case *ast.DropTable:
		return ex.execDropTable(n)

	case *ast.AlterTable:
		return ex.execAlterTable(n)

	case *ast.CreateIndex:
		return ex.execCreateIndex(n)

	case *ast.DropIndex:
		return ex.execDropIndex(n)

	case *ast.StartTransaction:
		tx, err := ex.storage.Begin(n.Autocommit)
		if err != nil {
			return Payload{}, err
		}
		ex.tx, ex.inTx = tx, true
		return Payload{Statement: "START TRANSACTION"}, nil

	case *ast.Commit:
		if !ex.inTx {
			return Payload{}, errs.New(errs.KindTransactionNotFound, "no open transaction")
		}
		err := ex.storage.Commit(ex.tx)
		ex.inTx = false
		return Payload{Statement: "COMMIT"}, err

	case *ast.Rollback:
		if !ex.inTx {
			return Payload{}, errs.New(errs.KindTransactionNotFound, "no open transaction")
		}
		err := ex.storage.Rollback(ex.tx)
		ex.inTx = false
		return Payload{Statement: "ROLLBACK"}, err

	case *ast.ShowColumns:
		return ex.execShowColumns(n)

	default:
		return Payload{}, errs.New(errs.KindUnsupportedSyntax, "cannot execute %T", stmt)
	}
}

// RunSelect implements evaluate.SubqueryRunner: it runs sel with outer
// chained onto every row's Context so correlated references resolve.
func (ex *Executor) RunSelect(outer *evaluate.Context, sel *ast.Select) ([][]value.Value, error) {
	_, rows, err := ex.runSelect(outer, sel)
	return rows, err
}

func (ex *Executor) fetchSchema(table string) (*schema.Table, error) {
	t, ok, err := ex.storage.FetchSchema(table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.New(errs.KindTableNotFound, "table %q not found", table)
	}
	return t, nil
}
