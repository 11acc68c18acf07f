package rewrite

import "github.com/cdslang/cqnflat/pkg/cqn"

// rewriteOrderBy rewrites orderBy/groupBy columns the same way where refs
// are rewritten, additionally rejecting a structured element that would
// expand to more than one physical column: ordering by it
// would be positional and unstable across schema changes.
func rewriteOrderBy(rc *rewriteCtx, cols []cqn.Column) ([]cqn.Column, error) {
	var out []cqn.Column
	for _, col := range cols {
		if col.Ref == nil {
			out = append(out, col.Clone())
			continue
		}
		link, err := resolveRef(rc, col.Ref, resolveOpts{})
		if err != nil {
			return nil, err
		}
		if link.Leaf.IsStructured() || link.Leaf.IsAssociation() {
			return nil, ambiguousOrderByErr(col.Ref.Dotted())
		}
		out = append(out, cqn.Column{
			Ref: &cqn.Ref{
				Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: link.FlatName}},
				Sort:  col.Ref.Sort,
				Nulls: col.Ref.Nulls,
			},
		})
	}
	return out, nil
}

// rewriteGroupBy applies the same ref-flattening as orderBy but permits no
// sort/nulls annotation and does not reject structured elements — CAP models
// allow grouping by every leaf of a structured element implicitly, out of
// scope for the flattening core, so a structured groupBy entry here is left
// to expand at the caller's later processing stage if ever added.
func rewriteGroupBy(rc *rewriteCtx, cols []cqn.Column) ([]cqn.Column, error) {
	var out []cqn.Column
	for _, col := range cols {
		if col.Ref == nil {
			out = append(out, col.Clone())
			continue
		}
		link, err := resolveRef(rc, col.Ref, resolveOpts{})
		if err != nil {
			return nil, err
		}
		if link.Leaf.IsAssociation() {
			return nil, ambiguousOrderByErr(col.Ref.Dotted())
		}
		out = append(out, cqn.Column{Ref: &cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: link.FlatName}}}})
	}
	return out, nil
}
