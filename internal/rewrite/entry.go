package rewrite

import (
	"context"

	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// Rewrite is the compiler's entry point: it rejects unions,
// infers the input query against model, clones it, and rebuilds every
// clause from the inference result. outer is the enclosing query's env, nil
// for a top-level call; subquery recursion (expand columns, where-exists,
// IN/EXISTS subqueries) passes the current env through so correlated
// references resolve against it.
func Rewrite(ctx context.Context, model csn.Model, q *cqn.Query, outer *env) (*cqn.Query, error) {
	if q == nil {
		return nil, nil
	}
	if q.Kind == cqn.KindSetOp {
		return nil, unionNotSupportedErr()
	}

	rc, err := newRewriteCtx(ctx, model, q, outer)
	if err != nil {
		return nil, err
	}
	if err := rc.cancelled(); err != nil {
		return nil, err
	}

	out := q.Clone()
	out.Sources = rc.env.sources
	if alias, ok := rc.env.soleAlias(); ok {
		out.Target = rc.env.sources[alias]
	}

	if q.Kind != cqn.KindSelect {
		if err := rewriteNonSelect(rc, q, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	elements, err := inferElements(rc, q.Columns)
	if err != nil {
		return nil, err
	}
	out.Elements = elements

	from, extraWhere, err := rewriteFrom(rc, q.From)
	if err != nil {
		return nil, err
	}

	where := q.Where
	where = andTokens(extraWhere, where)
	if len(where) > 0 {
		where, err = rewriteTokens(rc, where, false)
		if err != nil {
			return nil, err
		}
	}
	where, err = lowerSearch(rc, where, q.Search, elements)
	if err != nil {
		return nil, err
	}

	columns, err := rewriteColumns(rc, q.Columns)
	if err != nil {
		return nil, err
	}

	var having cqn.Tokens
	if len(q.Having) > 0 {
		having, err = rewriteTokens(rc, q.Having, false)
		if err != nil {
			return nil, err
		}
	}

	groupBy, err := rewriteGroupBy(rc, q.GroupBy)
	if err != nil {
		return nil, err
	}
	orderBy, err := rewriteOrderBy(rc, q.OrderBy)
	if err != nil {
		return nil, err
	}

	out.From, err = materializeJoins(rc, from)
	if err != nil {
		return nil, err
	}
	out.Columns = columns
	out.Where = where
	out.Having = having
	out.GroupBy = groupBy
	out.OrderBy = orderBy
	out.Search = nil
	out.JoinTree = rc.tree

	return out, nil
}
