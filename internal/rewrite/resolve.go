package rewrite

import (
	"strings"

	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// resolveOpts tunes resolveRef for the position the ref occupies, since the
// same path grammar means different things in a `from`, an `exists` operand,
// an infix filter, or a plain column/where value.
type resolveOpts struct {
	// ExistsContext is true when the ref is the operand of an `exists`
	// predicate: inline filters and unmanaged-association navigation are
	// always legal here, since the whole chain lowers to a where-exists
	// subquery rather than a join.
	ExistsContext bool
	// AllowAssocResult is true when the path is permitted to terminate on an
	// association itself (a `from` root, or the argument of `exists`/`expand`),
	// rather than requiring a scalar or structured leaf.
	AllowAssocResult bool
}

// resolveRef resolves one path reference against rc's environment, following
// the step-0 priority order and the target element set of the previous step
// thereafter. It never mutates ref; the result is
// recorded in rc.links keyed by ref's identity.
func resolveRef(rc *rewriteCtx, ref *cqn.Ref, opts resolveOpts) (*refLink, error) {
	if link, ok := rc.links.get(ref); ok {
		return link, nil
	}
	if ref == nil || len(ref.Steps) == 0 {
		return nil, unknownNameErr("")
	}

	def, alias, kind, err := resolveStepZero(rc, ref.Steps[0].Name)
	if err != nil {
		return nil, err
	}
	link := &refLink{}
	switch kind {
	case hitPseudo:
		link.Pseudo = true
	case hitSelf:
		link.SelfName = true
	case hitOuter:
		link.Outer = true
	}

	if err := walkSteps(rc, link, ref, def, alias, 0, opts); err != nil {
		return nil, err
	}
	rc.links.set(ref, link)
	return link, nil
}

// resolveRefIn resolves ref against baseDef's own element set directly,
// bypassing step-0 source resolution entirely: an expand or inline column
// list is written relative to the structured element or association target
// it is nested under, not to the enclosing query's own sources, so its
// first step must look itself up as a child of baseDef exactly like any
// later step would. Results are not cached in rc.links, since the same *Ref
// value nested under two different expand/inline parents would otherwise
// collide.
func resolveRefIn(rc *rewriteCtx, ref *cqn.Ref, baseDef *csn.Definition, baseAlias string, opts resolveOpts) (*refLink, error) {
	if ref == nil || len(ref.Steps) == 0 {
		return nil, unknownNameErr("")
	}
	link := &refLink{}
	if err := walkSteps(rc, link, ref, baseDef, baseAlias, -1, opts); err != nil {
		return nil, err
	}
	return link, nil
}

// walkSteps resolves ref.Steps[0:] against curDef/curAlias, which are already
// established for the step at index resolvedIdx (resolveStepZero's result for
// a top-level ref, or -1 when curDef/curAlias are a container the whole of
// ref.Steps must look itself up inside of). Every later step (and step 0 in
// the resolveRefIn case) is looked up as a child of the previous step's
// target element set.
func walkSteps(rc *rewriteCtx, link *refLink, ref *cqn.Ref, curDef *csn.Definition, curAlias string, resolvedIdx int, opts resolveOpts) error {
	var node *cqn.JoinTreeNode
	var flatTail string

	for i, step := range ref.Steps {
		last := i == len(ref.Steps)-1

		if i != resolvedIdx {
			if curDef == nil {
				return unknownNameErr(ref.Dotted())
			}
			els := rc.model.Elements(curDef)
			child, ok := els.Get(step.Name)
			if !ok {
				return unknownNameErr(ref.Dotted())
			}
			curDef = child
		}

		if step.HasFilter() && !curDef.IsAssociation() {
			return filterOnNonAssocErr(ref.Dotted())
		}

		if !curDef.IsAssociation() {
			flatTail = step.Name
			if curDef != nil && curDef.Parent != nil && !link.Pseudo {
				flatTail = curDef.FlatName()
			}
			link.Steps = append(link.Steps, stepLink{Def: curDef, Target: nil, Alias: curAlias})
			continue
		}

		// Association step: either absorbed as a trailing foreign-key read, or
		// materialized as a join-tree node.
		if !opts.ExistsContext && step.HasFilter() && !rc.model.IsManaged(curDef) {
			return unmanagedInInfixFilterErr(ref.Dotted())
		}

		if fk, ok := trailingForeignKey(rc.model, curDef, ref.Steps[i:]); ok {
			link.Steps = append(link.Steps, stepLink{Def: curDef, Target: nil, Alias: curAlias})
			flatTail = fk.FlatName()
			break
		}

		if last && !opts.AllowAssocResult {
			if step.HasFilter() {
				return filterWithoutNavigationErr(ref.Dotted())
			}
			if !rc.model.IsManaged(curDef) {
				return assocInExpressionErr(ref.Dotted())
			}
		}

		// A permitted terminal association (expand, exists-as-value, or a
		// structural-comparison operand) or a bare managed association used as
		// a value (which flattens to its own foreign-key leaves in the source
		// table, the same shape a trailing foreign-key read produces) is left
		// unmaterialized here: curDef stays the association itself and
		// curAlias stays its owner's alias, since the caller fans it out
		// rather than joining through it.
		if last && (opts.AllowAssocResult || rc.model.IsManaged(curDef)) {
			link.Steps = append(link.Steps, stepLink{Def: curDef, Target: nil, Alias: curAlias})
			flatTail = step.Name
			break
		}

		if !opts.ExistsContext && !rc.model.IsManaged(curDef) && !last {
			return nonFkInInfixFilterErr(ref.Dotted())
		}

		target, err := rc.model.Target(curDef)
		if err != nil {
			return err
		}
		node = rc.tree.MergeStep(node, curDef, step.Name, step.Filter, curAlias)
		curAlias = node.Alias
		link.JoinRelevant = true
		link.Steps = append(link.Steps, stepLink{Def: curDef, Target: target, Alias: curAlias, JoinNode: node})
		curDef = target
		flatTail = step.Name
	}

	link.Leaf = curDef
	link.FlatName = flatTail
	link.FinalAlias = curAlias
	return nil
}

type stepZeroHit int

const (
	hitSource stepZeroHit = iota
	hitPseudo
	hitSelf
	hitOuter
	hitCombined
)

// resolveStepZero implements the step-0 priority order:
// pseudo-namespace, then this query's own from-alias, then a first-pass
// self/projection name, then an enclosing query's alias, then the
// combined-elements index (with ambiguity detection).
func resolveStepZero(rc *rewriteCtx, name string) (*csn.Definition, string, stepZeroHit, error) {
	if def, ok := csn.LookupPseudo(name); ok {
		return def, name, hitPseudo, nil
	}
	if def, ok := rc.env.lookupSource(name); ok {
		return def, name, hitSource, nil
	}
	if _, ok := rc.env.selfNames[name]; ok {
		return nil, "", hitSelf, nil
	}
	if def, ok := rc.env.lookupOuterAlias(name); ok {
		return def, name, hitOuter, nil
	}
	if hits, ok := rc.env.combined[name]; ok {
		if len(hits) > 1 {
			alts := make([]string, len(hits))
			for i, h := range hits {
				alts[i] = h.Alias + "." + name
			}
			return nil, "", hitCombined, ambiguousNameErr(name, alts)
		}
		return hits[0].Def, hits[0].Alias, hitCombined, nil
	}
	if alt, ok := suggestByCase(rc.env.combined, name); ok {
		return nil, "", hitCombined, unknownNameSuggestErr(name, alt)
	}
	return nil, "", hitCombined, unknownNameErr(name)
}

// suggestByCase looks for a combined-elements entry differing from name only
// by case, the one typo shape cheap enough to catch without a full fuzzy
// match: a qualified `alias.name` suggestion for the first such hit found.
func suggestByCase(combined map[string][]sourceHit, name string) (string, bool) {
	lower := strings.ToLower(name)
	for candidate, hits := range combined {
		if len(hits) == 0 || strings.ToLower(candidate) != lower {
			continue
		}
		return hits[0].Alias + "." + candidate, true
	}
	return "", false
}

// trailingForeignKey reports whether steps (starting at the association step
// itself) is exactly [assoc, fkName]: a managed association immediately
// followed by one of its own foreign-key element names, the one shape the
// resolver absorbs without a join.
func trailingForeignKey(model csn.Model, assoc *csn.Definition, steps []cqn.Step) (csn.ForeignKey, bool) {
	if !model.IsManaged(assoc) || len(steps) != 2 {
		return csn.ForeignKey{}, false
	}
	name := steps[1].Name
	for _, fk := range assoc.Assoc.ForeignKeys {
		if fk.Name == name {
			return fk, true
		}
	}
	return csn.ForeignKey{}, false
}
