package rewrite

import (
	"context"

	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// rewriteCtx is the single mutable working set for one query's inference and
// rewrite. It owns the link side-table and the join tree; nothing here is
// shared with the caller's input query or with sibling/parent rewriteCtx
// instances beyond read-only csn.Model access.
type rewriteCtx struct {
	goCtx context.Context
	model csn.Model
	env   *env
	links *linkTable
	tree  *cqn.JoinTree

	// query is the input SELECT this context infers over.
	query *cqn.Query
}

// newRewriteCtx builds a fresh working context for one query, resolving its
// `from` sources into an env and preparing an empty join tree and link table.
func newRewriteCtx(goCtx context.Context, model csn.Model, q *cqn.Query, outer *env) (*rewriteCtx, error) {
	sources, order, err := collectSources(model, q.From)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateAliases(order); err != nil {
		return nil, err
	}
	e := newEnv(model, sources, order, q.Localized, outer)
	return &rewriteCtx{
		goCtx: goCtx,
		model: model,
		env:   e,
		links: newLinkTable(),
		tree:  cqn.NewJoinTree(),
		query: q,
	}, nil
}

func checkDuplicateAliases(order []string) error {
	seen := map[string]bool{}
	for _, a := range order {
		if seen[a] {
			return dupAliasErr(a)
		}
		seen[a] = true
	}
	return nil
}

// freshAlias allocates a unique synthesized alias for an expand subquery.
func (rc *rewriteCtx) freshAlias(hint string) string {
	return rc.tree.AddAlias(hint)
}

// cancelled reports whether the caller's context has been cancelled, checked
// between subquery recursion steps.
func (rc *rewriteCtx) cancelled() error {
	if rc.goCtx == nil {
		return nil
	}
	return rc.goCtx.Err()
}
