package executor

import (
	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/evaluate"
	"gluedb/value"
)

// joinSource applies one Join against the left-hand rowSource. Both sides
// are materialized up front: a join consumes its left input fully
// regardless of strategy, and the right side is re-probed once per left
// row, so fetching it once avoids re-scanning storage per left row.
type joinSource struct {
	ex        *Executor
	join      ast.Join
	left      []joinedRow
	right     []joinedRow
	rightSide ast.TableFactor
	pos       int
	pending   []joinedRow
	outer     *evaluate.Context

	// rightByKey indexes right by its HashJoin key expression, built once up
	// front so a probe is a map lookup instead of a rescan of every right row.
	rightByKey map[string][]joinedRow
}

func (ex *Executor) applyJoin(left rowSource, join ast.Join, outer *evaluate.Context) (rowSource, error) {
	leftRows, err := drain(left)
	if err != nil {
		return nil, err
	}
	rightSrc, err := ex.fetchRelation(join.Relation, outer)
	if err != nil {
		return nil, err
	}
	rightRows, err := drain(rightSrc)
	if err != nil {
		return nil, err
	}
	js := &joinSource{ex: ex, join: join, left: leftRows, right: rightRows, rightSide: join.Relation, outer: outer}

	if hj, ok := join.Executor.(*ast.HashJoin); ok {
		js.rightByKey = make(map[string][]joinedRow, len(rightRows))
		for _, r := range rightRows {
			rightKey, err := ex.eval.Eval(r.ctx, nil, hj.KeyExpr)
			if err != nil {
				return nil, err
			}
			k := string(value.EncodeKey(rightKey.ToValue()))
			js.rightByKey[k] = append(js.rightByKey[k], r)
		}
		ex.log.Debug("join: hash", zap.Int("left_rows", len(leftRows)), zap.Int("right_rows", len(rightRows)))
	} else {
		ex.log.Debug("join: nested loop", zap.Int("left_rows", len(leftRows)), zap.Int("right_rows", len(rightRows)))
	}
	return js, nil
}

func (js *joinSource) Next() (joinedRow, bool, error) {
	for {
		if len(js.pending) > 0 {
			r := js.pending[0]
			js.pending = js.pending[1:]
			return r, true, nil
		}
		if js.pos >= len(js.left) {
			return joinedRow{}, false, nil
		}
		left := js.left[js.pos]
		js.pos++

		matches, err := js.matchesFor(left)
		if err != nil {
			return joinedRow{}, false, err
		}
		if len(matches) == 0 && js.join.Operator == ast.JoinLeft {
			matches = []joinedRow{js.nullPadded(left)}
		}
		js.pending = matches
	}
}

func (js *joinSource) matchesFor(left joinedRow) ([]joinedRow, error) {
	switch exec := js.join.Executor.(type) {
	case *ast.HashJoin:
		return js.hashMatches(left, exec)
	case *ast.NestedLoopJoin:
		return js.nestedLoopMatches(left, exec.On)
	case nil:
		return js.nestedLoopMatches(left, nil)
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unknown join executor %T", exec)
	}
}

func (js *joinSource) nestedLoopMatches(left joinedRow, on ast.Expr) ([]joinedRow, error) {
	var out []joinedRow
	for _, r := range js.right {
		combined := js.combine(left, r)
		if on == nil {
			out = append(out, combined)
			continue
		}
		pass, err := js.passes(combined, on)
		if err != nil {
			return nil, err
		}
		if pass {
			out = append(out, combined)
		}
	}
	return out, nil
}

func (js *joinSource) hashMatches(left joinedRow, hj *ast.HashJoin) ([]joinedRow, error) {
	leftKey, err := js.ex.eval.Eval(left.ctx, nil, hj.ValueExpr)
	if err != nil {
		return nil, err
	}
	leftEnc := string(value.EncodeKey(leftKey.ToValue()))

	var out []joinedRow
	for _, r := range js.rightByKey[leftEnc] {
		combined := js.combine(left, r)
		if hj.WhereClause != nil {
			pass, err := js.passes(combined, hj.WhereClause)
			if err != nil {
				return nil, err
			}
			if !pass {
				continue
			}
		}
		out = append(out, combined)
	}
	return out, nil
}

// combine chains a copy of right's block onto left's, so a reference
// resolves against the most recently joined relation first. A copy is
// required because the same materialized right row is reused across every
// left row this join processes.
func (js *joinSource) combine(left, right joinedRow) joinedRow {
	rightCopy := *right.ctx
	rightCopy.Next = left.ctx
	return joinedRow{ctx: &rightCopy}
}

func (js *joinSource) nullPadded(left joinedRow) joinedRow {
	labels, _ := js.ex.relationLabels(js.rightSide)
	nulls := make([]value.Value, len(labels))
	for i := range nulls {
		nulls[i] = value.NewNull()
	}
	rightCtx := singleBlockContext(relationAlias(js.rightSide), labels, nulls)
	rightCtx.Next = left.ctx
	return joinedRow{ctx: rightCtx}
}

func (js *joinSource) passes(row joinedRow, expr ast.Expr) (bool, error) {
	v, err := js.ex.eval.Eval(row.ctx, nil, expr)
	if err != nil {
		return false, err
	}
	b, ok := v.ToValue().Bool()
	return ok && b, nil
}
