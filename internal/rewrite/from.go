package rewrite

import (
	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// rewriteFrom rebuilds the `from` clause. A single-source
// `from` is passed through unchanged (join materialization, if any, happens
// later once every clause has contributed to the join tree). A multi-step
// `from.ref` — `from Books:author.publisher` — is lowered into a single-source
// `from` on the last step's entity, with every earlier step folded into
// `where` as a reversed where-exists chain, since only the final step is a
// queryable row in the flattened output.
//
// The chain must be built backward, not forward: the final step's alias is
// the only one visible to the surrounding query, so the association nearest
// the final step correlates directly to it, and every earlier hop's owning
// entity — down to the root — is introduced as a fresh, existentially
// quantified alias nested one level further in, never as the root entity's
// own bare name (which is not a resolvable alias in the flattened output).
func rewriteFrom(rc *rewriteCtx, from *cqn.FromClause) (*cqn.FromClause, cqn.Tokens, error) {
	if from == nil || from.Ref == nil || len(from.Ref.Steps) == 1 {
		return from.Clone(), nil, nil
	}

	steps := from.Ref.Steps
	owners, assocs, err := resolveChainOwners(rc.model, steps)
	if err != nil {
		return nil, nil, err
	}

	last := steps[len(steps)-1]
	alias := from.As
	if alias == "" {
		alias = last.Name
	}

	extraWhere, err := backwardExistsChain(rc, steps, owners, assocs, len(assocs)-1, alias)
	if err != nil {
		return nil, nil, err
	}

	out := &cqn.FromClause{As: alias, Ref: cqn.NewRef(owners[len(owners)-1].Name)}
	return out, extraWhere, nil
}

// resolveChainOwners walks a multi-step from-path's association hops,
// returning the entity Definition owning each hop (owners[0] is the root,
// resolved as a top-level model name) and the association Definition each
// hop traverses (assocs[i] connects owners[i] to owners[i+1]).
func resolveChainOwners(model csn.Model, steps []cqn.Step) ([]*csn.Definition, []*csn.Definition, error) {
	owners := make([]*csn.Definition, len(steps))
	assocs := make([]*csn.Definition, len(steps)-1)

	root, err := model.Lookup(steps[0].Name)
	if err != nil {
		return nil, nil, err
	}
	owners[0] = root
	for i := 1; i < len(steps); i++ {
		els := model.Elements(owners[i-1])
		assoc, ok := els.Get(steps[i].Name)
		if !ok || !assoc.IsAssociation() {
			return nil, nil, unknownNameErr((&cqn.Ref{Steps: steps}).Dotted())
		}
		target, err := model.Target(assoc)
		if err != nil {
			return nil, nil, err
		}
		assocs[i-1] = assoc
		owners[i] = target
	}
	return owners, assocs, nil
}

// backwardExistsChain builds the nested exists chain for assocs[0..hopIdx],
// where assocs[hopIdx] is owned by owners[hopIdx] and correlates to
// correlateAlias, an alias already in scope one level out. Any earlier hop
// nests one level further in, correlated to the fresh alias this call
// introduces for owners[hopIdx].
func backwardExistsChain(rc *rewriteCtx, steps []cqn.Step, owners, assocs []*csn.Definition, hopIdx int, correlateAlias string) (cqn.Tokens, error) {
	assoc := assocs[hopIdx]
	owner := owners[hopIdx]

	inner := rc.freshAlias(owner.Name)
	where := materializeOnCondition(rc.model, assoc, inner, correlateAlias)
	if steps[hopIdx+1].HasFilter() {
		where = andTokens(where, steps[hopIdx+1].Filter)
	}

	if hopIdx > 0 {
		nested, err := backwardExistsChain(rc, steps, owners, assocs, hopIdx-1, inner)
		if err != nil {
			return nil, err
		}
		where = andTokens(where, nested)
	}

	sub := &cqn.Query{
		Kind: cqn.KindSelect,
		From: &cqn.FromClause{As: inner, Ref: cqn.NewRef(owner.Name)},
		// EXISTS never reads its select list, but inferElements requires every
		// literal column to carry an alias, so the placeholder needs one too.
		Columns: []cqn.Column{{Val: &cqn.Literal{Val: 1}, As: "one"}},
		Where:   where,
	}
	return cqn.Tokens{cqn.Kw("exists"), cqn.SubqueryTok(sub)}, nil
}

// existsChainFrom lowers the direct operand of a WHERE `exists` keyword when
// it is a bare association-path reference: `exists author.publisher` becomes
// `exists (select 1 from Authors as a where a.ID = b.author_ID and exists
// (select 1 from Publishers as p where p.ID = a.publisher_ID))`. Unlike the
// `from`-chain case, sourceAlias here is always an alias already valid in
// the enclosing scope, so the chain nests forward from it rather than
// backward from a final correlated alias.
func existsChainFrom(rc *rewriteCtx, assoc *csn.Definition, sourceAlias string, steps []cqn.Step) (cqn.Tokens, error) {
	step := steps[0]
	target, err := rc.model.Target(assoc)
	if err != nil {
		return nil, err
	}

	inner := rc.freshAlias(step.Name)
	where := materializeOnCondition(rc.model, assoc, sourceAlias, inner)
	if step.HasFilter() {
		where = andTokens(where, step.Filter)
	}

	if len(steps) > 1 {
		els := rc.model.Elements(target)
		next, ok := els.Get(steps[1].Name)
		if !ok || !next.IsAssociation() {
			return nil, unknownNameErr(steps[1].Name)
		}
		nested, err := existsChainFrom(rc, next, inner, steps[1:])
		if err != nil {
			return nil, err
		}
		where = andTokens(where, nested)
	}

	sub := &cqn.Query{
		Kind:    cqn.KindSelect,
		From:    &cqn.FromClause{As: inner, Ref: cqn.NewRef(target.Name)},
		Columns: []cqn.Column{{Val: &cqn.Literal{Val: 1}, As: "one"}},
		Where:   where,
	}
	return cqn.Tokens{cqn.Kw("exists"), cqn.SubqueryTok(sub)}, nil
}
