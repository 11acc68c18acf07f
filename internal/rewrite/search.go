package rewrite

import "github.com/cdslang/cqnflat/pkg/cqn"

// searchableColumns returns the columns a `search` clause matches against:
// every scalar element visible in the query's already-inferred output, in
// declaration order. The list is not narrowed to string-typed elements: only
// an element that has both a Def and a non-string TypeHint is left out. A
// real deployment would consult
// @cds.search annotations to narrow this list; that refinement is out of
// scope here.
func searchableColumns(elements *cqn.ElementSet) []cqn.Column {
	var out []cqn.Column
	elements.Each(func(name string, el *cqn.Element) {
		if el.Kind != cqn.ElemScalar {
			return
		}
		if el.Def != nil && el.TypeHint != "" && el.TypeHint != "string" {
			return
		}
		out = append(out, cqn.Column{Ref: cqn.NewRef(name)})
	})
	return out
}

// lowerSearch appends the query's `search` clause to `where` as an
// AND-connected `search(cols..., term)` predicate, leaving
// the actual full-text semantics of the `search` function to whatever engine
// executes the flattened query.
func lowerSearch(rc *rewriteCtx, where cqn.Tokens, search *cqn.Search, elements *cqn.ElementSet) (cqn.Tokens, error) {
	if search == nil {
		return where, nil
	}
	cols := searchableColumns(elements)
	args := make(cqn.Tokens, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, cqn.RefTok(&cqn.Ref{Steps: []cqn.Step{{Name: c.Ref.Last()}}}))
	}
	args = append(args, search.Expr...)
	pred := cqn.Tokens{cqn.FuncTok("search", args...)}
	return andTokens(where, pred), nil
}
