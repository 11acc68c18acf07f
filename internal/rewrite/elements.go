package rewrite

import (
	"strings"

	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// inferElements computes a query's output element set from its
// (not yet rewritten) columns. It resolves every ref column via resolveRef so
// the join tree and link table are fully populated before rewriting begins.
func inferElements(rc *rewriteCtx, columns []cqn.Column) (*cqn.ElementSet, error) {
	out := cqn.NewElementSet()

	explicit, err := explicitColumnNames(rc, columns, nil, "")
	if err != nil {
		return nil, err
	}

	for _, col := range columns {
		switch {
		case col.Star:
			if err := expandWildcard(rc, col, explicit, out); err != nil {
				return nil, err
			}

		case col.Param != nil:
			// Bind parameters are virtual: never materialized.
			continue

		case col.Val != nil:
			name := col.As
			if name == "" {
				return nil, expectingAliasErr("<literal>")
			}
			out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar})
			rc.env.registerSelfName(name)

		case col.Xpr != nil || col.Func != nil:
			name := col.As
			if name == "" {
				return nil, expectingAliasErr(name)
			}
			out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar, Annotations: col.Annotations})
			rc.env.registerSelfName(name)

		case col.Select != nil:
			name := col.As
			if name == "" {
				return nil, expectingAliasErr(name)
			}
			out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemSubquery, Subquery: col.Select})
			rc.env.registerSelfName(name)

		case col.Ref != nil:
			if err := inferRefColumn(rc, col, out); err != nil {
				return nil, err
			}

		default:
			continue
		}
	}
	return out, nil
}

func outputName(link *refLink, as string) string {
	if as != "" {
		return as
	}
	return link.FlatName
}

func inferRefColumn(rc *rewriteCtx, col cqn.Column, out *cqn.ElementSet) error {
	link, err := resolveRef(rc, col.Ref, resolveOpts{AllowAssocResult: len(col.Expand) > 0})
	if err != nil {
		return err
	}

	switch {
	case len(col.Expand) > 0:
		return inferExpand(rc, col, link, out)

	case len(col.Inline) > 0:
		return inferInline(rc, col, link, out)

	case link.Leaf.IsStructured():
		return inferFlattenedLeaves(rc, col, link, scalarLeaves(rc.model, link.Leaf), out)

	case link.Leaf.IsAssociation():
		return inferAssocForeignKeys(rc, col, link, out)

	default:
		name := outputName(link, col.As)
		if out.Has(name) {
			return dupElementErr(name)
		}
		out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar, Def: link.Leaf, Annotations: col.Annotations})
		rc.env.registerSelfName(name)
		return nil
	}
}

// flatLeafName names a flattened leaf column: its own physical flat name
// unless `as` overrides, in which case it becomes as_<tail> (§4.5).
func flatLeafName(tail, physical, as string) string {
	if as == "" {
		return physical
	}
	return as + "_" + tail
}

// inferFlattenedLeaves infers one ElemScalar element per leaf for a
// structured reference used bare, without expand/inline.
func inferFlattenedLeaves(rc *rewriteCtx, col cqn.Column, link *refLink, leaves []*csn.Definition, out *cqn.ElementSet) error {
	for _, leaf := range leaves {
		physical := leaf.FlatName()
		name := flatLeafName(strings.TrimPrefix(physical, link.FlatName+"_"), physical, col.As)
		if out.Has(name) {
			return dupElementErr(name)
		}
		out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar, Def: leaf, Annotations: col.Annotations})
		rc.env.registerSelfName(name)
	}
	return nil
}

// inferAssocForeignKeys infers one ElemScalar element per foreign key for a
// bare managed-association reference used without expand/inline: the same
// foreign-key-mirror shape a trailing foreign-key read produces, in the
// source table rather than a joined one.
func inferAssocForeignKeys(rc *rewriteCtx, col cqn.Column, link *refLink, out *cqn.ElementSet) error {
	for _, fk := range link.Leaf.Assoc.ForeignKeys {
		name := flatLeafName(fk.Name, fk.FlatName(), col.As)
		if out.Has(name) {
			return dupElementErr(name)
		}
		out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar, Def: link.Leaf, Annotations: col.Annotations})
		rc.env.registerSelfName(name)
	}
	return nil
}

// inferExpand handles `expand` over a structured element (produces a nested
// ElemStructured) or over an association (produces a correlated
// ElemSubquery, the "expand-to-subquery" shape).
func inferExpand(rc *rewriteCtx, col cqn.Column, link *refLink, out *cqn.ElementSet) error {
	name := outputName(link, col.As)
	if link.Leaf.IsAssociation() {
		sub := &cqn.Query{
			Kind:    cqn.KindSelect,
			Columns: col.Expand,
			Expand:  true,
			One:     rc.model.IsToOne(link.Leaf),
		}
		out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemSubquery, Subquery: sub, Annotations: col.Annotations})
		return nil
	}
	out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemStructured, Annotations: col.Annotations})
	return nil
}

// inferInline flattens a structured element's own columns into the parent's
// name space with an underscore prefix.
func inferInline(rc *rewriteCtx, col cqn.Column, link *refLink, out *cqn.ElementSet) error {
	prefix := outputName(link, col.As)
	for _, sub := range col.Inline {
		if sub.Ref == nil {
			continue
		}
		subLink, err := resolveRefIn(rc, sub.Ref, link.Leaf, link.FinalAlias, resolveOpts{})
		if err != nil {
			return err
		}
		if subLink.Leaf.IsAssociation() {
			return assocInExpressionErr(sub.Ref.Dotted())
		}
		name := prefix + "_" + outputName(subLink, sub.As)
		if out.Has(name) {
			return dupElementErr(name)
		}
		out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar, Def: subLink.Leaf})
		rc.env.registerSelfName(name)
	}
	return nil
}

// expandWildcard adds every combined-elements entry not already present,
// detecting the case where the same output name is produced by more than
// one source. Associations are never projected by a wildcard, and a
// structured element flattens into one entry per scalar leaf, underscore-
// joined via csn.Definition.FlatName, rather than a single structured entry.
// explicit holds every output name already supplied by another column in
// the same projection list (whether it comes before or after the wildcard),
// and excluding names from Query.Excluding/col.Excluding are skipped the
// same way — both are skipped ahead of the ambiguity check, so an
// already-covered name never raises AmbiguousWildcard. Any other name
// contributed by more than one source raises AmbiguousWildcard. Because the
// wildcard skips an explicit name, the explicit column keeps its own
// position: one listed after the wildcard comes after all of the wildcard's
// entries and does not take the slot the wildcard would have given it.
func expandWildcard(rc *rewriteCtx, col cqn.Column, explicit map[string]bool, out *cqn.ElementSet) error {
	excluded := excludingSet(rc, col)
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
			hits := rc.env.combined[name]
			if len(hits) > 1 {
				alts := make([]string, len(hits))
				for i, h := range hits {
					alts[i] = h.Alias + "." + name
				}
				return ambiguousWildcardErr(name, alts)
			}
			hit := hits[0]
			if hit.Def.PersistenceSkipFlag || hit.Def.IsAssociation() {
				continue
			}
			if hit.Def.IsStructured() {
				for _, leaf := range scalarLeaves(rc.model, hit.Def) {
					flat := leaf.FlatName()
					if excluded[flat] || explicit[flat] {
						continue
					}
					out.Add(flat, &cqn.Element{Name: flat, Kind: cqn.ElemScalar, Def: leaf})
					rc.env.registerSelfName(flat)
				}
				continue
			}
			out.Add(name, &cqn.Element{Name: name, Kind: cqn.ElemScalar, Def: hit.Def})
			rc.env.registerSelfName(name)
		}
	}
	return nil
}

// scalarLeaves returns every scalar leaf reachable from def, in declaration
// order, recursing into nested structured elements and skipping
// associations and persistence-skip elements. Used to flatten a structured
// element into its per-leaf physical columns for a `*` wildcard expansion.
func scalarLeaves(model csn.Model, def *csn.Definition) []*csn.Definition {
	els := model.Elements(def)
	if els == nil {
		return nil
	}
	var out []*csn.Definition
	els.Each(func(_ string, child *csn.Definition) bool {
		switch {
		case child.PersistenceSkipFlag || child.IsAssociation():
		case child.IsStructured():
			out = append(out, scalarLeaves(model, child)...)
		default:
			out = append(out, child)
		}
		return true
	})
	return out
}

// excludingSet merges a query's top-level Excluding list with a wildcard
// column's own Excluding list (e.g. from `expand { * excluding {x} }`).
func excludingSet(rc *rewriteCtx, col cqn.Column) map[string]bool {
	out := make(map[string]bool, len(rc.query.Excluding)+len(col.Excluding))
	for _, n := range rc.query.Excluding {
		out[n] = true
	}
	for _, n := range col.Excluding {
		out[n] = true
	}
	return out
}

// explicitColumnNames resolves every non-wildcard column's output name, so a
// wildcard column in the same projection list can skip a name already
// supplied explicitly, wherever in the list it appears. baseDef/baseAlias
// scope resolution exactly like rewriteColumnsIn/inferInline do, for a
// wildcard nested in an expand/inline column list. Ref resolution is
// memoized on rc (resolveRef) or trivially cheap (resolveRefIn), so
// resolving here doesn't meaningfully repeat work done again for real
// afterward.
func explicitColumnNames(rc *rewriteCtx, columns []cqn.Column, baseDef *csn.Definition, baseAlias string) (map[string]bool, error) {
	names := map[string]bool{}
	for _, col := range columns {
		switch {
		case col.Star:
			continue

		case col.Ref != nil:
			link, err := resolveRefScoped(rc, col.Ref, baseDef, baseAlias, resolveOpts{AllowAssocResult: len(col.Expand) > 0})
			if err != nil {
				return nil, err
			}
			if len(col.Inline) > 0 {
				prefix := outputName(link, col.As)
				for _, sub := range col.Inline {
					if sub.Ref == nil {
						continue
					}
					subLink, err := resolveRefIn(rc, sub.Ref, link.Leaf, link.FinalAlias, resolveOpts{})
					if err != nil {
						return nil, err
					}
					names[prefix+"_"+outputName(subLink, sub.As)] = true
				}
				continue
			}
			if len(col.Expand) > 0 {
				names[outputName(link, col.As)] = true
				continue
			}
			if link.Leaf.IsStructured() {
				for _, leaf := range scalarLeaves(rc.model, link.Leaf) {
					physical := leaf.FlatName()
					names[flatLeafName(strings.TrimPrefix(physical, link.FlatName+"_"), physical, col.As)] = true
				}
				continue
			}
			if link.Leaf.IsAssociation() {
				for _, fk := range link.Leaf.Assoc.ForeignKeys {
					names[flatLeafName(fk.Name, fk.FlatName(), col.As)] = true
				}
				continue
			}
			names[outputName(link, col.As)] = true

		case col.As != "":
			names[col.As] = true
		}
	}
	return names, nil
}
