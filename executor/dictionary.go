package executor

import (
	"gluedb/ast"
	"gluedb/errs"
	"gluedb/migrate"
	"gluedb/value"
)

const (
	dictTables        = "GLUE_TABLES"
	dictTableColumns  = "GLUE_TABLE_COLUMNS"
	dictIndexes       = "GLUE_INDEXES"
	dictObjects       = "GLUE_OBJECTS"
)

func dictionaryLabels(name string) ([]string, error) {
	switch name {
	case dictObjects:
		return []string{"OBJECT_NAME", "OBJECT_TYPE"}, nil
	case dictTables:
		return []string{"TABLE_NAME"}, nil
	case dictTableColumns:
		return []string{"TABLE_NAME", "COLUMN_NAME", "COLUMN_ID"}, nil
	case dictIndexes:
		return []string{"TABLE_NAME", "INDEX_NAME", "ORDER", "EXPRESSION", "UNIQUENESS"}, nil
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unknown dictionary %s", name)
	}
}

// fetchDictionary materializes one of the GLUE_* system views from the
// current schema snapshot.
func (ex *Executor) fetchDictionary(dict *ast.Dictionary) ([][]value.Value, error) {
	allSchemas, err := ex.storage.FetchAllSchemas()
	if err != nil {
		return nil, err
	}
	schemas := allSchemas[:0]
	for _, t := range allSchemas {
		if t.Name != migrate.MetaTableName {
			schemas = append(schemas, t)
		}
	}

	var rows [][]value.Value
	switch dict.Name {
	case dictObjects:
		for _, t := range schemas {
			rows = append(rows, []value.Value{value.NewStr(t.Name), value.NewStr("TABLE")})
			for _, idx := range t.Indexes {
				rows = append(rows, []value.Value{value.NewStr(idx.Name), value.NewStr("INDEX")})
			}
		}
	case dictTables:
		for _, t := range schemas {
			rows = append(rows, []value.Value{value.NewStr(t.Name)})
		}
	case dictTableColumns:
		for _, t := range schemas {
			for i, c := range t.Columns {
				rows = append(rows, []value.Value{
					value.NewStr(t.Name), value.NewStr(c.Name), value.NewI64(int64(i) + 1),
				})
			}
		}
	case dictIndexes:
		for _, t := range schemas {
			if t.PrimaryKey != "" {
				rows = append(rows, []value.Value{
					value.NewStr(t.Name), value.NewStr("PRIMARY"), value.NewStr("BOTH"),
					value.NewStr(t.PrimaryKey), value.NewBool(true),
				})
			}
			for _, idx := range t.Indexes {
				rows = append(rows, []value.Value{
					value.NewStr(t.Name), value.NewStr(idx.Name), value.NewStr(string(idx.Order)),
					value.NewStr(idx.Expression), value.NewBool(idx.Unique),
				})
			}
		}
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unknown dictionary %s", dict.Name)
	}
	return rows, nil
}
