package ast

import (
	"fmt"
	"strings"
)

// ToSQL renders an expression back to SQL text, used by SHOW INDEXES,
// dictionary views, and error messages that quote the offending
// expression. It is not required to round-trip byte-for-byte with the
// original source text, only to be unambiguous.
func ToSQL(e Expr) string {
	switch n := e.(type) {
	case nil:
		return ""
	case *Literal:
		return n.Value.String()
	case *TypedString:
		return fmt.Sprintf("%s '%s'", n.Type, n.Text)
	case *Identifier:
		return n.Name
	case *CompoundIdentifier:
		return strings.Join(n.Parts, ".")
	case *Nested:
		return "(" + ToSQL(n.Inner) + ")"
	case *BinaryOp:
		return fmt.Sprintf("%s %s %s", ToSQL(n.Left), n.Op, ToSQL(n.Right))
	case *UnaryOp:
		return fmt.Sprintf("%s%s", n.Op, ToSQL(n.Expr))
	case *Between:
		neg := ""
		if n.Negated {
			neg = "NOT "
		}
		return fmt.Sprintf("%s %sBETWEEN %s AND %s", ToSQL(n.Expr), neg, ToSQL(n.Low), ToSQL(n.High))
	case *IsNull:
		if n.Negated {
			return ToSQL(n.Expr) + " IS NOT NULL"
		}
		return ToSQL(n.Expr) + " IS NULL"
	case *Case:
		var b strings.Builder
		b.WriteString("CASE")
		if n.Operand != nil {
			fmt.Fprintf(&b, " %s", ToSQL(n.Operand))
		}
		for _, w := range n.Whens {
			fmt.Fprintf(&b, " WHEN %s THEN %s", ToSQL(w.When), ToSQL(w.Then))
		}
		if n.Else != nil {
			fmt.Fprintf(&b, " ELSE %s", ToSQL(n.Else))
		}
		b.WriteString(" END")
		return b.String()
	case *Function:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = ToSQL(a)
		}
		prefix := ""
		if n.Distinct {
			prefix = "DISTINCT "
		}
		return fmt.Sprintf("%s(%s%s)", n.Name, prefix, strings.Join(args, ", "))
	case *Aggregate:
		arg := "*"
		if n.Arg != nil {
			arg = ToSQL(n.Arg)
		}
		prefix := ""
		if n.Distinct {
			prefix = "DISTINCT "
		}
		return fmt.Sprintf("%s(%s%s)", n.Func, prefix, arg)
	case *Cast:
		return fmt.Sprintf("CAST(%s AS %s)", ToSQL(n.Expr), n.Type)
	case *InList:
		items := make([]string, len(n.List))
		for i, item := range n.List {
			items[i] = ToSQL(item)
		}
		neg := ""
		if n.Negated {
			neg = "NOT "
		}
		return fmt.Sprintf("%s %sIN (%s)", ToSQL(n.Expr), neg, strings.Join(items, ", "))
	case *InSubquery:
		neg := ""
		if n.Negated {
			neg = "NOT "
		}
		return fmt.Sprintf("%s %sIN (%s)", ToSQL(n.Expr), neg, "SELECT ...")
	case *Subquery:
		return "(SELECT ...)"
	case *Exists:
		neg := ""
		if n.Negated {
			neg = "NOT "
		}
		return neg + "EXISTS (SELECT ...)"
	case *Wildcard:
		return "*"
	case *QualifiedWildcard:
		return n.Alias + ".*"
	case *MapIndex:
		return fmt.Sprintf("%s['%s']", ToSQL(n.Obj), n.Key)
	default:
		return fmt.Sprintf("<%T>", n)
	}
}
