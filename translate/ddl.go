package translate

import (
	"strings"

	tiast "github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/schema"
	"gluedb/value"
)

type dataTypeRule struct {
	kind       value.Kind
	substrings []string
}

// dataTypeRules classifies a raw SQL column type string into a value.Kind by
// substring containment, the same idiom as the dump-level type normalizer
// this module's schema translation grew out of, generalized to the engine's
// own Kind space instead of a portable-but-opaque DataType string.
var dataTypeRules = []dataTypeRule{
	{value.Bool, []string{"bool", "tinyint(1)"}},
	{value.I8, []string{"tinyint"}},
	{value.I16, []string{"smallint"}},
	{value.I64, []string{"bigint"}},
	{value.I32, []string{"int", "mediumint", "integer"}},
	{value.DecimalKind, []string{"decimal", "numeric"}},
	{value.F32, []string{"float"}},
	{value.F64, []string{"double", "real"}},
	{value.Timestamp, []string{"datetime", "timestamp"}},
	{value.Date, []string{"date"}},
	{value.Time, []string{"time"}},
	{value.Uuid, []string{"uuid"}},
	{value.Bytea, []string{"blob", "binary", "varbinary"}},
	{value.Str, []string{"char", "text", "enum", "set", "json"}},
}

func dataTypeFromRaw(raw string) value.Kind {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range dataTypeRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.kind
			}
		}
	}
	return value.Str
}

func exprToLiteralText(e tiast.ExprNode) (string, bool) {
	if e == nil {
		return "", false
	}
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := e.Restore(ctx); err != nil {
		return "", false
	}
	return strings.TrimSpace(sb.String()), true
}

func translateCreateTable(stmt *tiast.CreateTableStmt) (ast.Statement, error) {
	table := &schema.Table{Name: stmt.Table.Name.O}

	for _, opt := range stmt.Options {
		if opt.Tp == tiast.TableOptionComment {
			table.Comment = opt.StrValue
		}
		if opt.Tp == tiast.TableOptionEngine {
			table.Engine = opt.StrValue
		}
	}

	for _, colDef := range stmt.Cols {
		col := schema.Column{
			Name:     colDef.Name.Name.O,
			Type:     dataTypeFromRaw(colDef.Tp.String()),
			Nullable: true,
		}
		for _, opt := range colDef.Options {
			switch opt.Tp {
			case tiast.ColumnOptionNotNull:
				col.Nullable = false
			case tiast.ColumnOptionNull:
				col.Nullable = true
			case tiast.ColumnOptionPrimaryKey:
				table.PrimaryKey = col.Name
				col.Nullable = false
			case tiast.ColumnOptionUniqKey:
				col.Unique = true
			case tiast.ColumnOptionComment:
				if s, ok := exprToLiteralText(opt.Expr); ok {
					col.Comment = s
				}
			case tiast.ColumnOptionDefaultValue:
				lit, err := translateExpr(opt.Expr)
				if err != nil {
					return nil, err
				}
				if l, ok := lit.(*ast.Literal); ok {
					col.Default = &l.Value
				}
			case tiast.ColumnOptionReference:
				fk, err := referenceToForeignKey(col.Name, opt.Refer)
				if err != nil {
					return nil, err
				}
				table.ForeignKeys = append(table.ForeignKeys, fk)
			}
		}
		table.Columns = append(table.Columns, col)
	}

	for _, c := range stmt.Constraints {
		switch c.Tp {
		case tiast.ConstraintPrimaryKey:
			if len(c.Keys) != 1 {
				return nil, errs.New(errs.KindCompositeIndexNotSupported, "composite primary keys are not supported")
			}
			table.PrimaryKey = c.Keys[0].Column.Name.O
		case tiast.ConstraintUniq, tiast.ConstraintUniqKey, tiast.ConstraintUniqIndex:
			if len(c.Keys) != 1 {
				return nil, errs.New(errs.KindCompositeIndexNotSupported, "composite unique constraints are not supported")
			}
			if col := table.FindColumn(c.Keys[0].Column.Name.O); col != nil {
				col.Unique = true
			}
		case tiast.ConstraintForeignKey:
			if len(c.Keys) != 1 {
				return nil, errs.New(errs.KindCompositeIndexNotSupported, "composite foreign keys are not supported")
			}
			fk, err := referenceToForeignKey(c.Keys[0].Column.Name.O, c.Refer)
			if err != nil {
				return nil, err
			}
			fk.Name = c.Name
			table.ForeignKeys = append(table.ForeignKeys, fk)
		case tiast.ConstraintIndex, tiast.ConstraintKey:
			if len(c.Keys) != 1 {
				return nil, errs.New(errs.KindCompositeIndexNotSupported, "composite indexes are not supported")
			}
			table.Indexes = append(table.Indexes, schema.Index{
				Name:       c.Name,
				Expression: c.Keys[0].Column.Name.O,
				Order:      schema.SortAsc,
			})
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}

	return &ast.CreateTable{Table: table, IfNotExists: stmt.IfNotExists}, nil
}

func referenceToForeignKey(column string, refer *tiast.ReferenceDef) (schema.ForeignKey, error) {
	if refer == nil || len(refer.IndexPartSpecifications) != 1 {
		return schema.ForeignKey{}, errs.New(errs.KindCompositeIndexNotSupported, "composite foreign key references are not supported")
	}
	fk := schema.ForeignKey{
		ReferencingColumn: column,
		ReferencedTable:   refer.Table.Name.O,
		ReferencedColumn:  refer.IndexPartSpecifications[0].Column.Name.O,
		OnDelete:          schema.ActionNoAction,
		OnUpdate:          schema.ActionNoAction,
	}
	if refer.OnDelete != nil {
		fk.OnDelete = referOptToAction(refer.OnDelete.ReferOpt.String())
	}
	if refer.OnUpdate != nil {
		fk.OnUpdate = referOptToAction(refer.OnUpdate.ReferOpt.String())
	}
	return fk, nil
}

func referOptToAction(s string) schema.ReferentialAction {
	switch strings.ToUpper(s) {
	case "CASCADE":
		return schema.ActionCascade
	case "SET NULL":
		return schema.ActionSetNull
	case "SET DEFAULT":
		return schema.ActionSetDefault
	default:
		return schema.ActionNoAction
	}
}

func translateDropTable(stmt *tiast.DropTableStmt) (ast.Statement, error) {
	if len(stmt.Tables) != 1 {
		return nil, errs.New(errs.KindUnsupportedSyntax, "DROP TABLE expects exactly one table")
	}
	return &ast.DropTable{
		Table:    stmt.Tables[0].Name.O,
		IfExists: stmt.IfExists,
	}, nil
}

func translateAlterTable(stmt *tiast.AlterTableStmt) (ast.Statement, error) {
	if len(stmt.Specs) != 1 {
		return nil, errs.New(errs.KindUnsupportedSyntax, "ALTER TABLE expects exactly one clause per statement")
	}
	spec := stmt.Specs[0]
	var action ast.AlterTableAction
	switch spec.Tp {
	case tiast.AlterTableAddColumns:
		if len(spec.NewColumns) != 1 {
			return nil, errs.New(errs.KindUnsupportedSyntax, "ADD COLUMN expects exactly one column")
		}
		colDef := spec.NewColumns[0]
		col := schema.Column{
			Name:     colDef.Name.Name.O,
			Type:     dataTypeFromRaw(colDef.Tp.String()),
			Nullable: true,
		}
		for _, opt := range colDef.Options {
			if opt.Tp == tiast.ColumnOptionNotNull {
				col.Nullable = false
			}
		}
		action = &ast.AddColumn{Column: col}
	case tiast.AlterTableDropColumn:
		action = &ast.DropColumn{Name: spec.OldColumnName.Name.O}
	case tiast.AlterTableChangeColumn, tiast.AlterTableRenameColumn:
		action = &ast.RenameColumn{From: spec.OldColumnName.Name.O, To: spec.NewColumnName.Name.O}
	case tiast.AlterTableRenameTable:
		action = &ast.RenameTable{To: spec.NewTable.Name.O}
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported ALTER TABLE clause")
	}
	return &ast.AlterTable{Table: stmt.Table.Name.O, Action: action}, nil
}

func translateCreateIndex(stmt *tiast.CreateIndexStmt) (ast.Statement, error) {
	if len(stmt.IndexPartSpecifications) != 1 {
		return nil, errs.New(errs.KindCompositeIndexNotSupported, "composite indexes are not supported")
	}
	order := schema.SortAsc
	if stmt.IndexPartSpecifications[0].Desc {
		order = schema.SortDesc
	}
	expr := stmt.IndexPartSpecifications[0].Column.Name.O
	if stmt.IndexPartSpecifications[0].Expr != nil {
		if s, ok := exprToLiteralText(stmt.IndexPartSpecifications[0].Expr); ok {
			expr = s
		}
	}
	unique := stmt.KeyType == tiast.IndexKeyTypeUnique
	return &ast.CreateIndex{
		Table: stmt.Table.Name.O,
		Index: schema.Index{
			Name:       stmt.IndexName,
			Expression: expr,
			Order:      order,
			Unique:     unique,
		},
	}, nil
}
