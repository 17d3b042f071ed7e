package evaluate

import (
	"strings"

	"gluedb/value"
)

// Context is one row's identifier-resolution scope: Labels/Values name one
// relation's columns, Next chains to further relations accumulated by the
// join stage, and Outer reaches an enclosing row for correlated subqueries.
// It mirrors the original executor's FilterContext chain of named blocks.
type Context struct {
	Alias  string
	Labels []string
	Values []value.Value
	Next   *Context
	Outer  *Context
}

// Get resolves a bare identifier against this row and its joined blocks,
// then its enclosing context.
func (c *Context) Get(name string) (value.Value, bool) {
	for cur := c; cur != nil; cur = cur.Next {
		if v, ok := cur.lookup(name); ok {
			return v, true
		}
	}
	if c != nil && c.Outer != nil {
		return c.Outer.Get(name)
	}
	return value.Value{}, false
}

// GetAlias resolves a qualified `alias.column` reference.
func (c *Context) GetAlias(alias, name string) (value.Value, bool) {
	for cur := c; cur != nil; cur = cur.Next {
		if strings.EqualFold(cur.Alias, alias) {
			if v, ok := cur.lookup(name); ok {
				return v, true
			}
		}
	}
	if c != nil && c.Outer != nil {
		return c.Outer.GetAlias(alias, name)
	}
	return value.Value{}, false
}

func (c *Context) lookup(name string) (value.Value, bool) {
	for i, l := range c.Labels {
		if strings.EqualFold(l, name) {
			return c.Values[i], true
		}
	}
	return value.Value{}, false
}
