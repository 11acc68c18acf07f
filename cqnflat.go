// Package cqnflat implements a pure, stateless compiler that normalizes an
// object-graph CQN query over a CSN entity-relationship schema into a flat,
// SQL-shaped CQN: association paths become joins or correlated subqueries,
// structured elements flatten into underscore-joined column names, and every
// clause is rebuilt to reference only physical, flat columns.
//
// # Module structure
//
//   - pkg/csn — the read-only entity-relationship schema accessor
//   - pkg/cqn — the query object notation AST, both nested (input) and flat (output)
//   - pkg/cqnerr — the closed set of failures a rewrite can raise
//   - internal/rewrite — the resolver, join tree, element inferencer, and clause rewriter
package cqnflat

import (
	"context"

	"github.com/cdslang/cqnflat/internal/rewrite"
	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// Rewrite normalizes q against model and returns the flattened query.
//
// Rewrite never mutates q: the input is read-only throughout, and the
// returned *cqn.Query is a fully independent structural clone carrying its
// own inferred Sources, Target, Elements, and JoinTree.
//
// Rewrite is pure and holds no state across calls: two goroutines may call
// Rewrite concurrently with the same model and even the same q, since each
// call allocates its own resolution side-table and join tree and never
// touches q's fields. model itself is never written to.
//
// ctx is checked between subquery recursion steps; a query nested many
// levels deep (an expand under an expand, or an exists chain several
// associations long) can be aborted mid-rewrite by cancelling ctx.
//
// Example:
//
//	flat, err := cqnflat.Rewrite(ctx, model, query)
//	if err != nil {
//		var cerr *cqnerr.Error
//		if errors.As(err, &cerr) {
//			// cerr.Kind, cerr.Path, cerr.Suggestion
//		}
//	}
func Rewrite(ctx context.Context, model csn.Model, q *cqn.Query) (*cqn.Query, error) {
	return rewrite.Rewrite(ctx, model, q, nil)
}
