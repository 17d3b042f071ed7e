// Package translate turns a github.com/pingcap/tidb/pkg/parser tree into
// this engine's own ast.Statement tree, the boundary spec §1 draws between
// "SQL text parsing" (out of scope, handled by the pack's tidb dependency)
// and "the core consumes a pre-built AST" (everything translate produces).
package translate

import (
	"github.com/pingcap/tidb/pkg/parser"
	tiast "github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"gluedb/ast"
	"gluedb/errs"
)

// Translator adapts tidb's parser into the engine's translate boundary,
// mirroring internal/parser/mysql.Parser's constructor shape.
type Translator struct {
	p *parser.Parser
}

func NewTranslator() *Translator {
	return &Translator{p: parser.New()}
}

// Translate parses sql text and translates every resulting statement.
func (t *Translator) Translate(sql string) ([]ast.Statement, error) {
	stmtNodes, _, err := t.p.Parse(sql, "", "")
	if err != nil {
		return nil, errs.Wrap(errs.KindUnsupportedSyntax, err, "parse error")
	}
	out := make([]ast.Statement, 0, len(stmtNodes))
	for _, stmt := range stmtNodes {
		s, err := translateStmt(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func translateStmt(stmt tiast.StmtNode) (ast.Statement, error) {
	switch n := stmt.(type) {
	case *tiast.SelectStmt:
		return translateSelect(n)
	case *tiast.InsertStmt:
		return translateInsert(n)
	case *tiast.UpdateStmt:
		return translateUpdate(n)
	case *tiast.DeleteStmt:
		return translateDelete(n)
	case *tiast.CreateTableStmt:
		return translateCreateTable(n)
	case *tiast.DropTableStmt:
		return translateDropTable(n)
	case *tiast.AlterTableStmt:
		return translateAlterTable(n)
	case *tiast.CreateIndexStmt:
		return translateCreateIndex(n)
	case *tiast.DropIndexStmt:
		return &ast.DropIndex{Table: n.Table.Name.O, Name: n.IndexName}, nil
	case *tiast.BeginStmt:
		return &ast.StartTransaction{Autocommit: false}, nil
	case *tiast.CommitStmt:
		return &ast.Commit{}, nil
	case *tiast.RollbackStmt:
		return &ast.Rollback{}, nil
	case *tiast.ShowStmt:
		return translateShow(n)
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported statement %T", stmt)
	}
}

func translateShow(n *tiast.ShowStmt) (ast.Statement, error) {
	switch n.Tp {
	case tiast.ShowColumns:
		return &ast.ShowColumns{Table: n.Table.Name.O}, nil
	case tiast.ShowVariables:
		name := ""
		if n.GlobalScope {
			name = "GLOBAL"
		}
		return &ast.ShowVariable{Name: name}, nil
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported SHOW variant")
	}
}
