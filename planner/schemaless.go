package planner

import (
	"gluedb/ast"
	"gluedb/errs"
	"gluedb/schema"
)

// PlanSchemaless rewrites bare column references against document-shaped
// (schemaless) tables into `_doc['col']` map lookups, and rejects a wildcard
// projection over a join that mixes a schemaless table with a schemaful one
// (§4.4.2). It is a no-op when no table in schemas is schemaless.
func PlanSchemaless(schemas map[string]*schema.Table, stmt ast.Statement) (ast.Statement, error) {
	schemaless := map[string]bool{}
	for name, t := range schemas {
		if t.IsSchemaless() {
			schemaless[lowerName(name)] = true
		}
	}
	if len(schemaless) == 0 {
		return stmt, nil
	}
	p := &schemalessPlanner{schemaless: schemaless}
	return p.statement(stmt)
}

type schemalessPlanner struct {
	schemaless map[string]bool
}

func (p *schemalessPlanner) isSchemaless(name string) bool {
	return p.schemaless[lowerName(name)]
}

func (p *schemalessPlanner) statement(stmt ast.Statement) (ast.Statement, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return p.selectStmt(s)
	case *ast.Insert:
		if err := p.validateInsertSource(s); err != nil {
			return nil, err
		}
		table := s.Table
		if src, ok := s.Source.(*ast.SelectSource); ok {
			sel, err := p.selectStmt(src.Select)
			if err != nil {
				return nil, err
			}
			src.Select = sel
		} else if src, ok := s.Source.(*ast.ValuesSource); ok {
			for _, row := range src.Rows {
				for i, e := range row {
					rewritten, err := p.validateAndRewriteExpr(e)
					if err != nil {
						return nil, err
					}
					row[i] = rewritten
				}
			}
		}
		if p.isSchemaless(table) {
			s.Columns = []string{schema.ReservedDocColumn}
		}
		return s, nil
	case *ast.Update:
		alias := ""
		if p.isSchemaless(s.Table) {
			alias = s.Table
		}
		for i, a := range s.Assignments {
			rewritten, err := p.validateAndRewriteExpr(a.Value)
			if err != nil {
				return nil, err
			}
			s.Assignments[i].Value = p.rewriteExprWithAlias(rewritten, alias)
		}
		if s.Where != nil {
			rewritten, err := p.validateAndRewriteExpr(s.Where)
			if err != nil {
				return nil, err
			}
			s.Where = p.rewriteExprWithAlias(rewritten, alias)
		}
		return s, nil
	case *ast.Delete:
		alias := ""
		if p.isSchemaless(s.Table) {
			alias = s.Table
		}
		if s.Where != nil {
			rewritten, err := p.validateAndRewriteExpr(s.Where)
			if err != nil {
				return nil, err
			}
			s.Where = p.rewriteExprWithAlias(rewritten, alias)
		}
		return s, nil
	default:
		return stmt, nil
	}
}

func (p *schemalessPlanner) validateInsertSource(ins *ast.Insert) error {
	if src, ok := ins.Source.(*ast.SelectSource); ok {
		return p.validateSelect(src.Select)
	}
	if src, ok := ins.Source.(*ast.ValuesSource); ok {
		for _, row := range src.Rows {
			for _, e := range row {
				if err := p.validateExpr(e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *schemalessPlanner) selectStmt(sel *ast.Select) (*ast.Select, error) {
	if err := p.validateSelect(sel); err != nil {
		return nil, err
	}

	alias := tableAlias(sel.From)
	schemaless := alias != "" && p.isSchemaless(alias)

	for i, item := range sel.Projection {
		rewritten, err := p.rewriteSelectItem(item, alias, schemaless)
		if err != nil {
			return nil, err
		}
		sel.Projection[i] = rewritten
	}

	if err := p.rewriteTableFactor(sel.From); err != nil {
		return nil, err
	}
	for i := range sel.Joins {
		if err := p.rewriteJoin(&sel.Joins[i], alias); err != nil {
			return nil, err
		}
	}

	if sel.Where != nil {
		rewritten, err := p.rewriteExpr(sel.Where, alias)
		if err != nil {
			return nil, err
		}
		sel.Where = rewritten
	}
	for i, g := range sel.GroupBy {
		rewritten, err := p.rewriteExpr(g, alias)
		if err != nil {
			return nil, err
		}
		sel.GroupBy[i] = rewritten
	}
	if sel.Having != nil {
		rewritten, err := p.rewriteExpr(sel.Having, alias)
		if err != nil {
			return nil, err
		}
		sel.Having = rewritten
	}
	for i, ob := range sel.OrderBy {
		rewritten, err := p.rewriteExpr(ob.Expr, alias)
		if err != nil {
			return nil, err
		}
		sel.OrderBy[i].Expr = rewritten
	}

	return sel, nil
}

func tableAlias(factor ast.TableFactor) string {
	t, ok := factor.(*ast.Table)
	if !ok {
		return ""
	}
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

func (p *schemalessPlanner) rewriteSelectItem(item ast.SelectItem, alias string, schemaless bool) (ast.SelectItem, error) {
	switch it := item.(type) {
	case *ast.ExprItem:
		rewritten, err := p.rewriteExpr(it.Expr, alias)
		if err != nil {
			return nil, err
		}
		it.Expr = rewritten
		return it, nil
	case *ast.Wildcard:
		if schemaless {
			return &ast.ExprItem{Expr: &ast.Identifier{Name: schema.ReservedDocColumn}, Alias: schema.ReservedDocColumn}, nil
		}
		return it, nil
	case *ast.QualifiedWildcard:
		if p.isSchemaless(it.Alias) {
			return &ast.ExprItem{Expr: &ast.Identifier{Name: schema.ReservedDocColumn}, Alias: schema.ReservedDocColumn}, nil
		}
		return it, nil
	default:
		return item, nil
	}
}

func (p *schemalessPlanner) rewriteTableFactor(factor ast.TableFactor) error {
	if d, ok := factor.(*ast.Derived); ok {
		sel, err := p.selectStmt(d.Select)
		if err != nil {
			return err
		}
		d.Select = sel
	}
	return nil
}

func (p *schemalessPlanner) rewriteJoin(join *ast.Join, alias string) error {
	if err := p.rewriteTableFactor(join.Relation); err != nil {
		return err
	}
	switch exec := join.Executor.(type) {
	case *ast.NestedLoopJoin:
		if exec.On != nil {
			rewritten, err := p.rewriteExpr(exec.On, alias)
			if err != nil {
				return err
			}
			exec.On = rewritten
		}
	case *ast.HashJoin:
		rewritten, err := p.rewriteExpr(exec.KeyExpr, alias)
		if err != nil {
			return err
		}
		exec.KeyExpr = rewritten
		rewritten, err = p.rewriteExpr(exec.ValueExpr, alias)
		if err != nil {
			return err
		}
		exec.ValueExpr = rewritten
		if exec.WhereClause != nil {
			rewritten, err := p.rewriteExpr(exec.WhereClause, alias)
			if err != nil {
				return err
			}
			exec.WhereClause = rewritten
		}
	}
	return nil
}

// rewriteExpr validates subqueries reachable from e and then rewrites bare
// identifiers against the leaf relation's alias (when schemaless).
func (p *schemalessPlanner) rewriteExpr(e ast.Expr, alias string) (ast.Expr, error) {
	if err := p.validateExpr(e); err != nil {
		return nil, err
	}
	return p.rewriteExprWithAlias(e, alias), nil
}

// validateAndRewriteExpr is rewriteExpr without a leaf-table alias context,
// used for INSERT/UPDATE/DELETE expressions where only qualified
// CompoundIdentifier references can name a schemaless table.
func (p *schemalessPlanner) validateAndRewriteExpr(e ast.Expr) (ast.Expr, error) {
	if err := p.validateExpr(e); err != nil {
		return nil, err
	}
	return p.rewriteExprWithAlias(e, ""), nil
}

func (p *schemalessPlanner) rewriteExprWithAlias(e ast.Expr, alias string) ast.Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		if alias != "" && p.isSchemaless(alias) {
			return &ast.MapIndex{Obj: &ast.Identifier{Name: schema.ReservedDocColumn}, Key: n.Name}
		}
		return n
	case *ast.CompoundIdentifier:
		if len(n.Parts) == 2 && p.isSchemaless(n.Parts[0]) {
			return &ast.MapIndex{
				Obj: &ast.CompoundIdentifier{Parts: []string{n.Parts[0], schema.ReservedDocColumn}},
				Key: n.Parts[1],
			}
		}
		return n
	case *ast.Nested:
		return &ast.Nested{Inner: p.rewriteExprWithAlias(n.Inner, alias)}
	case *ast.BinaryOp:
		return &ast.BinaryOp{Left: p.rewriteExprWithAlias(n.Left, alias), Op: n.Op, Right: p.rewriteExprWithAlias(n.Right, alias)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{Op: n.Op, Expr: p.rewriteExprWithAlias(n.Expr, alias)}
	case *ast.Between:
		return &ast.Between{
			Expr: p.rewriteExprWithAlias(n.Expr, alias), Negated: n.Negated,
			Low: p.rewriteExprWithAlias(n.Low, alias), High: p.rewriteExprWithAlias(n.High, alias),
		}
	case *ast.IsNull:
		return &ast.IsNull{Expr: p.rewriteExprWithAlias(n.Expr, alias), Negated: n.Negated}
	case *ast.Case:
		var operand ast.Expr
		if n.Operand != nil {
			operand = p.rewriteExprWithAlias(n.Operand, alias)
		}
		whens := make([]ast.WhenClause, len(n.Whens))
		for i, w := range n.Whens {
			whens[i] = ast.WhenClause{When: p.rewriteExprWithAlias(w.When, alias), Then: p.rewriteExprWithAlias(w.Then, alias)}
		}
		var elseExpr ast.Expr
		if n.Else != nil {
			elseExpr = p.rewriteExprWithAlias(n.Else, alias)
		}
		return &ast.Case{Operand: operand, Whens: whens, Else: elseExpr}
	case *ast.Function:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.rewriteExprWithAlias(a, alias)
		}
		return &ast.Function{Name: n.Name, Args: args, Distinct: n.Distinct}
	case *ast.Aggregate:
		if n.Arg == nil {
			return n
		}
		return &ast.Aggregate{Func: n.Func, Arg: p.rewriteExprWithAlias(n.Arg, alias), Distinct: n.Distinct}
	case *ast.Cast:
		return &ast.Cast{Expr: p.rewriteExprWithAlias(n.Expr, alias), Type: n.Type}
	case *ast.InList:
		list := make([]ast.Expr, len(n.List))
		for i, item := range n.List {
			list[i] = p.rewriteExprWithAlias(item, alias)
		}
		return &ast.InList{Expr: p.rewriteExprWithAlias(n.Expr, alias), List: list, Negated: n.Negated}
	case *ast.InSubquery:
		return &ast.InSubquery{Expr: p.rewriteExprWithAlias(n.Expr, alias), Subquery: n.Subquery, Negated: n.Negated}
	default:
		return e
	}
}

// validateExpr walks every subquery reachable from e (Subquery/Exists/
// InSubquery) and runs the mixed-wildcard-join check on each, short-
// circuiting on the first violation found.
func (p *schemalessPlanner) validateExpr(e ast.Expr) error {
	switch n := e.(type) {
	case nil:
		return nil
	case *ast.Subquery:
		return p.validateSelect(n.Select)
	case *ast.Exists:
		return p.validateSelect(n.Select)
	case *ast.InSubquery:
		if err := p.validateExpr(n.Expr); err != nil {
			return err
		}
		return p.validateSelect(n.Subquery)
	case *ast.Nested:
		return p.validateExpr(n.Inner)
	case *ast.BinaryOp:
		if err := p.validateExpr(n.Left); err != nil {
			return err
		}
		return p.validateExpr(n.Right)
	case *ast.UnaryOp:
		return p.validateExpr(n.Expr)
	case *ast.Between:
		if err := p.validateExpr(n.Expr); err != nil {
			return err
		}
		if err := p.validateExpr(n.Low); err != nil {
			return err
		}
		return p.validateExpr(n.High)
	case *ast.IsNull:
		return p.validateExpr(n.Expr)
	case *ast.Case:
		if n.Operand != nil {
			if err := p.validateExpr(n.Operand); err != nil {
				return err
			}
		}
		for _, w := range n.Whens {
			if err := p.validateExpr(w.When); err != nil {
				return err
			}
			if err := p.validateExpr(w.Then); err != nil {
				return err
			}
		}
		if n.Else != nil {
			return p.validateExpr(n.Else)
		}
		return nil
	case *ast.Function:
		for _, a := range n.Args {
			if err := p.validateExpr(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.Aggregate:
		if n.Arg == nil {
			return nil
		}
		return p.validateExpr(n.Arg)
	case *ast.Cast:
		return p.validateExpr(n.Expr)
	case *ast.InList:
		if err := p.validateExpr(n.Expr); err != nil {
			return err
		}
		for _, item := range n.List {
			if err := p.validateExpr(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func (p *schemalessPlanner) validateSelect(sel *ast.Select) error {
	if err := p.validateMixedJoinWildcard(sel); err != nil {
		return err
	}
	if err := p.rewriteTableFactorValidateOnly(sel.From); err != nil {
		return err
	}
	for _, j := range sel.Joins {
		if err := p.rewriteTableFactorValidateOnly(j.Relation); err != nil {
			return err
		}
		switch exec := j.Executor.(type) {
		case *ast.NestedLoopJoin:
			if err := p.validateExpr(exec.On); err != nil {
				return err
			}
		case *ast.HashJoin:
			if err := p.validateExpr(exec.KeyExpr); err != nil {
				return err
			}
			if err := p.validateExpr(exec.ValueExpr); err != nil {
				return err
			}
			if err := p.validateExpr(exec.WhereClause); err != nil {
				return err
			}
		}
	}
	for _, item := range sel.Projection {
		if it, ok := item.(*ast.ExprItem); ok {
			if err := p.validateExpr(it.Expr); err != nil {
				return err
			}
		}
	}
	if err := p.validateExpr(sel.Where); err != nil {
		return err
	}
	for _, g := range sel.GroupBy {
		if err := p.validateExpr(g); err != nil {
			return err
		}
	}
	if err := p.validateExpr(sel.Having); err != nil {
		return err
	}
	for _, ob := range sel.OrderBy {
		if err := p.validateExpr(ob.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (p *schemalessPlanner) rewriteTableFactorValidateOnly(factor ast.TableFactor) error {
	if d, ok := factor.(*ast.Derived); ok {
		return p.validateSelect(d.Select)
	}
	return nil
}

func (p *schemalessPlanner) validateMixedJoinWildcard(sel *ast.Select) error {
	if len(sel.Joins) == 0 {
		return nil
	}
	hasWildcard := false
	for _, item := range sel.Projection {
		if _, ok := item.(*ast.Wildcard); ok {
			hasWildcard = true
			break
		}
	}
	if !hasWildcard {
		return nil
	}

	hasSchemaless, hasSchemaful := false, false
	relations := append([]ast.TableFactor{sel.From}, joinRelations(sel.Joins)...)
	for _, rel := range relations {
		t, ok := rel.(*ast.Table)
		if !ok {
			continue
		}
		if p.isSchemaless(t.Name) {
			hasSchemaless = true
		} else {
			hasSchemaful = true
		}
	}
	if hasSchemaless && hasSchemaful {
		return errs.New(errs.KindSchemalessMixedJoinWildcard, "wildcard projection cannot mix schemaless and schemaful tables in a join")
	}
	return nil
}

func joinRelations(joins []ast.Join) []ast.TableFactor {
	out := make([]ast.TableFactor, len(joins))
	for i, j := range joins {
		out[i] = j.Relation
	}
	return out
}
