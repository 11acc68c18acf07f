package rewrite

import (
	"strings"

	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// rewriteColumns rebuilds the projection list from the already-inferred
// element set: every ref column flattens to alias.column references (one for
// a scalar, one per scalar leaf for a structured element, one per foreign key
// for a bare managed association), expand-over-association columns become correlated
// subquery columns, and inline columns spread into their flattened siblings.
// EmptyProjection is raised when nothing survives (every column was a
// bind-parameter placeholder or a fully virtual composition).
func rewriteColumns(rc *rewriteCtx, columns []cqn.Column) ([]cqn.Column, error) {
	return rewriteColumnsIn(rc, columns, nil, "")
}

// rewriteColumnsIn rebuilds a column list whose refs are relative to
// baseDef/baseAlias rather than the query's own sources — an expand or
// inline column list, nested under the structured element or association
// target it belongs to. baseDef is nil for a query's top-level projection.
func rewriteColumnsIn(rc *rewriteCtx, columns []cqn.Column, baseDef *csn.Definition, baseAlias string) ([]cqn.Column, error) {
	explicit, err := explicitColumnNames(rc, columns, baseDef, baseAlias)
	if err != nil {
		return nil, err
	}

	var out []cqn.Column
	for _, col := range columns {
		switch {
		case col.Star:
			flat, err := flattenWildcard(rc, col, explicit)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)

		case col.Param != nil:
			continue

		case col.Ref != nil:
			cols, err := rewriteRefColumn(rc, col, baseDef, baseAlias)
			if err != nil {
				return nil, err
			}
			out = append(out, cols...)

		case col.Xpr != nil:
			xpr, err := rewriteTokens(rc, col.Xpr, false)
			if err != nil {
				return nil, err
			}
			c := col.Clone()
			c.Xpr = xpr
			out = append(out, c)

		case col.Select != nil:
			sub, err := Rewrite(rc.goCtx, rc.model, col.Select, rc.env)
			if err != nil {
				return nil, err
			}
			c := col.Clone()
			c.Select = sub
			out = append(out, c)

		default:
			out = append(out, col.Clone())
		}
	}
	if len(out) == 0 {
		return nil, emptyProjectionErr()
	}
	return out, nil
}

// flattenWildcard expands `*` into one plain-ref column per combined
// element, in source declaration order, mirroring expandWildcard's wildcard
// pass: associations are skipped, a structured element flattens into one
// column per scalar leaf named by its underscore-joined flat name, and
// excluded/already-explicit names (see excludingSet/explicitColumnNames)
// are skipped rather than re-emitted.
func flattenWildcard(rc *rewriteCtx, col cqn.Column, explicit map[string]bool) ([]cqn.Column, error) {
	excluded := excludingSet(rc, col)
	var out []cqn.Column
	seen := map[string]bool{}
	for _, alias := range rc.env.sourceOrder {
		def := rc.env.sources[alias]
		els := rc.model.Elements(def)
		if els == nil {
			continue
		}
		for _, name := range els.Names() {
			if seen[name] || excluded[name] || explicit[name] {
				continue
			}
			seen[name] = true
			child, _ := els.Get(name)
			if child == nil || child.PersistenceSkipFlag || child.IsAssociation() {
				continue
			}
			if child.IsStructured() {
				for _, leaf := range scalarLeaves(rc.model, child) {
					flat := leaf.FlatName()
					if excluded[flat] || explicit[flat] {
						continue
					}
					out = append(out, cqn.Column{Ref: &cqn.Ref{Steps: []cqn.Step{{Name: alias}, {Name: flat}}}, As: flat})
				}
				continue
			}
			out = append(out, cqn.Column{Ref: &cqn.Ref{Steps: []cqn.Step{{Name: alias}, {Name: name}}}, As: name})
		}
	}
	return out, nil
}

func rewriteRefColumn(rc *rewriteCtx, col cqn.Column, baseDef *csn.Definition, baseAlias string) ([]cqn.Column, error) {
	opts := resolveOpts{AllowAssocResult: len(col.Expand) > 0}
	var link *refLink
	var err error
	if baseDef != nil {
		link, err = resolveRefIn(rc, col.Ref, baseDef, baseAlias, opts)
	} else {
		link, err = resolveRef(rc, col.Ref, opts)
	}
	if err != nil {
		return nil, err
	}

	if len(col.Expand) > 0 {
		return expandColumn(rc, col, link)
	}
	if len(col.Inline) > 0 {
		return inlineColumn(rc, col, link)
	}
	if link.Leaf.IsStructured() {
		return flattenLeafColumns(col, link, scalarLeaves(rc.model, link.Leaf)), nil
	}
	if link.Leaf.IsAssociation() {
		return flattenAssocColumns(col, link), nil
	}

	name := outputName(link, col.As)
	flat := cqn.Column{
		Ref:         &cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: link.FlatName}}},
		As:          name,
		Cast:        col.Cast,
		Annotations: col.Annotations,
	}
	return []cqn.Column{flat}, nil
}

// flattenLeafColumns rebuilds a bare structured reference, without
// expand/inline, into one physical column per scalar leaf: each named by its
// own flat name unless `as` overrides, in which case leaves become
// as_<leafTail> (§4.5).
func flattenLeafColumns(col cqn.Column, link *refLink, leaves []*csn.Definition) []cqn.Column {
	out := make([]cqn.Column, 0, len(leaves))
	for _, leaf := range leaves {
		flat := leaf.FlatName()
		name := flatLeafName(strings.TrimPrefix(flat, link.FlatName+"_"), flat, col.As)
		out = append(out, cqn.Column{
			Ref: &cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: flat}}},
			As:  name,
		})
	}
	return out
}

// flattenAssocColumns rebuilds a bare managed-association reference, without
// expand/inline, into its foreign-key mirror columns in the source table —
// the same shape a trailing foreign-key read produces.
func flattenAssocColumns(col cqn.Column, link *refLink) []cqn.Column {
	out := make([]cqn.Column, 0, len(link.Leaf.Assoc.ForeignKeys))
	for _, fk := range link.Leaf.Assoc.ForeignKeys {
		flat := fk.FlatName()
		name := flatLeafName(fk.Name, flat, col.As)
		out = append(out, cqn.Column{
			Ref: &cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: flat}}},
			As:  name,
		})
	}
	return out
}

// expandColumn lowers `expand` into a correlated subquery column (association
// target) or spreads a structured element's own columns.
func expandColumn(rc *rewriteCtx, col cqn.Column, link *refLink) ([]cqn.Column, error) {
	name := outputName(link, col.As)
	if !link.Leaf.IsAssociation() {
		inner, err := rewriteColumnsIn(rc, col.Expand, link.Leaf, link.FinalAlias)
		if err != nil {
			return nil, err
		}
		return []cqn.Column{{Ref: &cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: link.FlatName}}}, As: name, Expand: inner}}, nil
	}

	target, err := rc.model.Target(link.Leaf)
	if err != nil {
		return nil, err
	}
	subAlias := rc.freshAlias(target.Name)
	on := materializeOnCondition(rc.model, link.Leaf, link.FinalAlias, subAlias)
	sub := &cqn.Query{
		Kind:    cqn.KindSelect,
		From:    &cqn.FromClause{As: subAlias, Ref: cqn.NewRef(target.Name)},
		Columns: col.Expand,
		Where:   on,
		Expand:  true,
		One:     rc.model.IsToOne(link.Leaf),
	}
	rewritten, err := Rewrite(rc.goCtx, rc.model, sub, rc.env)
	if err != nil {
		return nil, err
	}
	return []cqn.Column{{Select: rewritten, As: name}}, nil
}

// inlineColumn spreads a structured element's own columns into the parent
// projection with an underscore-joined name prefix.
func inlineColumn(rc *rewriteCtx, col cqn.Column, link *refLink) ([]cqn.Column, error) {
	prefix := outputName(link, col.As)
	var out []cqn.Column
	for _, sub := range col.Inline {
		if sub.Ref != nil {
			subLink, err := resolveRefIn(rc, sub.Ref, link.Leaf, link.FinalAlias, resolveOpts{})
			if err != nil {
				return nil, err
			}
			if subLink.Leaf.IsAssociation() {
				return nil, assocInExpressionErr(sub.Ref.Dotted())
			}
		}
		cols, err := rewriteRefColumn(rc, sub, link.Leaf, link.FinalAlias)
		if err != nil {
			return nil, err
		}
		for i := range cols {
			cols[i].As = prefix + "_" + cols[i].As
		}
		out = append(out, cols...)
	}
	return out, nil
}
