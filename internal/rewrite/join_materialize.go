package rewrite

import "github.com/cdslang/cqnflat/pkg/cqn"

// materializeJoins replaces a single-source `from` with a left-join tree
// built from every join-relevant reference the query accumulated during
// inference. A query whose join tree stayed empty — every
// association reference was absorbed as foreign-key-only or lowered to
// where-exists — keeps its original single-source `from` unchanged.
func materializeJoins(rc *rewriteCtx, from *cqn.FromClause) (*cqn.FromClause, error) {
	if rc.tree.Empty() {
		return from, nil
	}

	result := from
	var walk func(node *cqn.JoinTreeNode) error
	walk = func(node *cqn.JoinTreeNode) error {
		target, err := rc.model.Target(node.Assoc)
		if err != nil {
			return err
		}
		on := materializeOnCondition(rc.model, node.Assoc, node.SourceAlias, node.Alias)
		if len(node.Filter) > 0 {
			// The filter is written relative to the association's target row
			// (target/node.Alias), not the enclosing query's own sources.
			filterToks, err := rewriteTokensIn(rc, node.Filter, false, target, node.Alias)
			if err != nil {
				return err
			}
			on = andTokens(on, filterToks)
		}
		result = &cqn.FromClause{Join: &cqn.JoinNode{
			Kind: "left",
			Args: []*cqn.FromClause{result, {As: node.Alias, Ref: cqn.NewRef(target.Name)}},
			On:   on,
		}}
		for _, child := range node.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range rc.tree.Roots() {
		if err := walk(root); err != nil {
			return nil, err
		}
	}
	return result, nil
}
