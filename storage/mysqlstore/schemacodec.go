package mysqlstore

import (
	"encoding/json"

	"gluedb/errs"
	"gluedb/schema"
	"gluedb/value"
)

func columnKind(n int) value.Kind { return value.Kind(n) }

// wireTable is schema.Table's JSON-on-the-wire shape. schema.Column.Default
// is a *value.Value, whose payload field is unexported and so cannot be
// marshaled directly; everything else on Table/Column/Index/ForeignKey is
// already plain data and round-trips through encoding/json unassisted.
type wireTable struct {
	Name        string            `json:"name"`
	Columns     []wireColumn      `json:"columns,omitempty"`
	Schemaless  bool              `json:"schemaless,omitempty"`
	PrimaryKey  string            `json:"primary_key,omitempty"`
	Indexes     []schema.Index    `json:"indexes,omitempty"`
	Engine      string            `json:"engine,omitempty"`
	ForeignKeys []schema.ForeignKey `json:"foreign_keys,omitempty"`
	Comment     string            `json:"comment,omitempty"`
}

type wireColumn struct {
	Name     string     `json:"name"`
	Type     int        `json:"type"`
	Nullable bool       `json:"nullable"`
	Default  *wireValue `json:"default,omitempty"`
	Unique   bool       `json:"unique,omitempty"`
	Comment  string     `json:"comment,omitempty"`
}

func encodeTable(t *schema.Table) ([]byte, error) {
	wt := wireTable{
		Name:        t.Name,
		Schemaless:  t.IsSchemaless(),
		PrimaryKey:  t.PrimaryKey,
		Indexes:     t.Indexes,
		Engine:      t.Engine,
		ForeignKeys: t.ForeignKeys,
		Comment:     t.Comment,
	}
	if !wt.Schemaless {
		wt.Columns = make([]wireColumn, len(t.Columns))
		for i, c := range t.Columns {
			wc := wireColumn{Name: c.Name, Type: int(c.Type), Nullable: c.Nullable, Unique: c.Unique, Comment: c.Comment}
			if c.Default != nil {
				wv := toWire(*c.Default)
				wc.Default = &wv
			}
			wt.Columns[i] = wc
		}
	}
	raw, err := json.Marshal(wt)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "encode schema %q", t.Name)
	}
	return raw, nil
}

func decodeTable(raw []byte) (*schema.Table, error) {
	var wt wireTable
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "decode schema")
	}
	t := &schema.Table{
		Name:        wt.Name,
		PrimaryKey:  wt.PrimaryKey,
		Indexes:     wt.Indexes,
		Engine:      wt.Engine,
		ForeignKeys: wt.ForeignKeys,
		Comment:     wt.Comment,
	}
	if !wt.Schemaless {
		t.Columns = make([]schema.Column, len(wt.Columns))
		for i, wc := range wt.Columns {
			c := schema.Column{Name: wc.Name, Type: columnKind(wc.Type), Nullable: wc.Nullable, Unique: wc.Unique, Comment: wc.Comment}
			if wc.Default != nil {
				dv, err := fromWire(*wc.Default)
				if err != nil {
					return nil, err
				}
				c.Default = &dv
			}
			t.Columns[i] = c
		}
	}
	return t, nil
}
