package rewrite

import (
	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// rewriteTokens walks a where/having/on token stream, replacing every ref
// token with its flattened alias.column form, recursing into nested
// expressions, function arguments, lists, and subqueries.
// existsOperand is true while walking the direct operand of an `exists`
// keyword, where inline filters and unmanaged-association navigation are
// permitted without restriction.
func rewriteTokens(rc *rewriteCtx, toks cqn.Tokens, existsOperand bool) (cqn.Tokens, error) {
	return rewriteTokensIn(rc, toks, existsOperand, nil, "")
}

// rewriteTokensIn is rewriteTokens scoped to a container Definition/alias
// instead of rc's own `from` sources: an association step's inline filter
// (`author[name = 'Poe']`) is written relative to the association's target
// row, not the enclosing query's sources, exactly like an expand/inline
// column list. baseDef nil means "resolve against rc's own sources", the
// ordinary top-level case.
func rewriteTokensIn(rc *rewriteCtx, toks cqn.Tokens, existsOperand bool, baseDef *csn.Definition, baseAlias string) (cqn.Tokens, error) {
	out := make(cqn.Tokens, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]

		if t.Kind == cqn.TokRef && i+2 < len(toks) && toks[i+1].Kind == cqn.TokKeyword && comparisonOps[toks[i+1].Keyword] {
			result, handled, err := tryStructuralComparison(rc, existsOperand, t.Ref, toks[i+1].Keyword, toks[i+2], baseDef, baseAlias)
			if err != nil {
				return nil, err
			}
			if handled {
				out = append(out, result)
				i += 2
				existsOperand = false
				continue
			}
		}

		switch t.Kind {
		case cqn.TokKeyword:
			if t.IsKeyword("exists") && i+1 < len(toks) && toks[i+1].Kind == cqn.TokRef {
				// An inline filter never itself navigates a further association by
				// `exists`; the chain-lowering helper always resolves against the
				// query's own top-level sources.
				chain, err := lowerExistsRef(rc, toks[i+1].Ref)
				if err != nil {
					return nil, err
				}
				processed, err := rewriteTokens(rc, chain, false)
				if err != nil {
					return nil, err
				}
				out = append(out, processed...)
				i++
				existsOperand = false
				continue
			}
			out = append(out, t)
			existsOperand = t.IsKeyword("exists")

		case cqn.TokRef:
			link, err := resolveRefScoped(rc, t.Ref, baseDef, baseAlias, resolveOpts{ExistsContext: existsOperand, AllowAssocResult: existsOperand})
			if err != nil {
				return nil, err
			}
			if link.Leaf.IsStructured() {
				return nil, structInExpressionErr(t.Ref.Dotted())
			}
			if link.Leaf.IsAssociation() {
				return nil, assocInExpressionErr(t.Ref.Dotted())
			}
			flat := &cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: link.FlatName}}, Cast: t.Ref.Cast}
			out = append(out, cqn.RefTok(flat))
			existsOperand = false

		case cqn.TokXpr:
			inner, err := rewriteTokensIn(rc, t.Xpr, false, baseDef, baseAlias)
			if err != nil {
				return nil, err
			}
			out = append(out, cqn.XprTok(inner))

		case cqn.TokFunc:
			args, err := rewriteTokensIn(rc, t.Func.Args, false, baseDef, baseAlias)
			if err != nil {
				return nil, err
			}
			out = append(out, cqn.FuncTok(t.Func.Name, args...))

		case cqn.TokList:
			if len(t.List) == 0 && len(out) >= 2 && out[len(out)-1].IsKeyword("in") {
				// Empty-list normalization: `x in ()` is always
				// false, `x not in ()` and `not x in ()` are always true,
				// independent of x. Drop the "in" keyword, the operand, and a
				// "not" standing either between them or before the operand.
				negated := len(out) >= 3 &&
					(out[len(out)-2].IsKeyword("not") || out[len(out)-3].IsKeyword("not"))
				trim := 2
				if negated {
					trim = 3
				}
				out = out[:len(out)-trim]
				out = append(out, cqn.LitTok(negated))
				continue
			}
			list, err := rewriteTokensIn(rc, t.List, false, baseDef, baseAlias)
			if err != nil {
				return nil, err
			}
			out = append(out, cqn.ListTok(list...))

		case cqn.TokSubquery:
			// A nested SELECT gets its own rewriteCtx scoped to its own `from`, so
			// it is never affected by an enclosing filter's scope.
			sub, err := Rewrite(rc.goCtx, rc.model, t.Sub, rc.env)
			if err != nil {
				return nil, err
			}
			out = append(out, cqn.SubqueryTok(sub))

		default:
			out = append(out, t)
		}
	}
	return out, nil
}

// resolveRefScoped resolves ref against baseDef/baseAlias when baseDef is
// non-nil, or against rc's own sources otherwise.
func resolveRefScoped(rc *rewriteCtx, ref *cqn.Ref, baseDef *csn.Definition, baseAlias string, opts resolveOpts) (*refLink, error) {
	if baseDef != nil {
		return resolveRefIn(rc, ref, baseDef, baseAlias, opts)
	}
	return resolveRef(rc, ref, opts)
}

// lowerExistsRef rewrites the direct operand of an `exists` keyword when it
// is a bare association reference rather than an already-explicit subquery:
// `exists books` becomes `exists (select 1 from Books as books where
// books.author_ID = Authors.ID)`, the reverse of the on-condition a join
// over the same association would use.
func lowerExistsRef(rc *rewriteCtx, ref *cqn.Ref) (cqn.Tokens, error) {
	def, alias, kind, err := resolveStepZero(rc, ref.Steps[0].Name)
	if err != nil {
		return nil, err
	}
	if kind == hitSelf || kind == hitPseudo || !def.IsAssociation() {
		return nil, assocInExpressionErr(ref.Dotted())
	}
	return existsChainFrom(rc, def, alias, ref.Steps)
}

// comparisonOps names the operator keywords that may head a structural
// comparison; orderingOps is the subset structured operands cannot use.
var comparisonOps = map[string]bool{"=": true, "<>": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
var orderingOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}
var negativeOps = map[string]bool{"<>": true, "!=": true}

// leafSpec is one physical leaf reachable from a structured element or a
// managed association's foreign-key set: suffix is the name matched between
// the two comparison operands, flat is the physical column it addresses.
type leafSpec struct {
	suffix string
	flat   string
}

// structuralLeaves returns the leaf set of a structured element or managed
// association, in declaration order, or nil if leaf is neither.
func structuralLeaves(rc *rewriteCtx, leaf *csn.Definition) []leafSpec {
	switch {
	case leaf.IsStructured():
		var out []leafSpec
		rc.model.Elements(leaf).Each(func(name string, child *csn.Definition) bool {
			out = append(out, leafSpec{suffix: name, flat: child.FlatName()})
			return true
		})
		return out
	case leaf.IsAssociation() && rc.model.IsManaged(leaf):
		out := make([]leafSpec, len(leaf.Assoc.ForeignKeys))
		for i, fk := range leaf.Assoc.ForeignKeys {
			out[i] = leafSpec{suffix: fk.Name, flat: fk.FlatName()}
		}
		return out
	default:
		return nil
	}
}

// tryStructuralComparison recognizes `ref op operand`, where ref resolves to
// a structured element or a managed association, and lowers it into an
// ANDed/ORed sequence of per-leaf comparisons. handled is false when lref is
// a plain scalar, leaving the token unconsumed for the caller's default
// handling.
func tryStructuralComparison(rc *rewriteCtx, existsOperand bool, lref *cqn.Ref, op string, rhs cqn.Token, baseDef *csn.Definition, baseAlias string) (cqn.Token, bool, error) {
	link, err := resolveRefScoped(rc, lref, baseDef, baseAlias, resolveOpts{ExistsContext: existsOperand, AllowAssocResult: true})
	if err != nil {
		return cqn.Token{}, true, err
	}

	leftLeaves := structuralLeaves(rc, link.Leaf)
	if leftLeaves == nil {
		if link.Leaf.IsAssociation() {
			// An unmanaged association has no foreign-key leaf set to compare by.
			return cqn.Token{}, true, assocInExpressionErr(lref.Dotted())
		}
		return cqn.Token{}, false, nil
	}

	if orderingOps[op] {
		return cqn.Token{}, true, unsupportedStructuralComparisonErr(op)
	}

	rightIsNull := rhs.Kind == cqn.TokLiteral && rhs.Literal != nil && rhs.Literal.Val == nil

	var rightLeaves []leafSpec
	var rightAlias string
	var rightDotted string
	if !rightIsNull {
		if rhs.Kind != cqn.TokRef {
			return cqn.Token{}, true, cannotCompareStructWithValueErr(lref.Dotted())
		}
		rlink, err := resolveRefScoped(rc, rhs.Ref, baseDef, baseAlias, resolveOpts{ExistsContext: existsOperand, AllowAssocResult: true})
		if err != nil {
			return cqn.Token{}, true, err
		}
		rightLeaves = structuralLeaves(rc, rlink.Leaf)
		if rightLeaves == nil {
			if rlink.Leaf.IsAssociation() {
				return cqn.Token{}, true, assocInExpressionErr(rhs.Ref.Dotted())
			}
			return cqn.Token{}, true, cannotCompareStructWithValueErr(lref.Dotted())
		}
		rightAlias = rlink.FinalAlias
		rightDotted = rhs.Ref.Dotted()
	}

	segments, err := matchLeaves(lref.Dotted(), rightDotted, leftLeaves, rightLeaves)
	if err != nil {
		return cqn.Token{}, true, err
	}

	connective := "and"
	if negativeOps[op] {
		connective = "or"
	}

	var combined cqn.Tokens
	for i, pair := range segments {
		if i > 0 {
			combined = append(combined, cqn.Kw(connective))
		}
		leftRef := cqn.RefTok(&cqn.Ref{Steps: []cqn.Step{{Name: link.FinalAlias}, {Name: pair.left.flat}}})
		if rightIsNull {
			combined = append(combined, leftRef, cqn.Kw("is"))
			if negativeOps[op] {
				combined = append(combined, cqn.Kw("not"))
			}
			combined = append(combined, cqn.Kw("null"))
			continue
		}
		rightRef := cqn.RefTok(&cqn.Ref{Steps: []cqn.Step{{Name: rightAlias}, {Name: pair.right.flat}}})
		combined = append(combined, leftRef, cqn.Kw(op), rightRef)
	}

	return cqn.XprTok(combined), true, nil
}

type leafPair struct {
	left, right leafSpec
}

// matchLeaves pairs left and right leaf sets by suffix name, in left's
// declaration order, failing with StructuralShapeMismatch listing every
// unmatched path on either side. right may be nil, matching every left leaf
// against itself (the null-comparison shape).
func matchLeaves(leftPath, rightPath string, left, right []leafSpec) ([]leafPair, error) {
	if right == nil {
		out := make([]leafPair, len(left))
		for i, l := range left {
			out[i] = leafPair{left: l, right: l}
		}
		return out, nil
	}

	rightBySuffix := make(map[string]leafSpec, len(right))
	for _, r := range right {
		rightBySuffix[r.suffix] = r
	}
	seen := make(map[string]bool, len(left))

	var out []leafPair
	var unmatched []string
	for _, l := range left {
		seen[l.suffix] = true
		r, ok := rightBySuffix[l.suffix]
		if !ok {
			unmatched = append(unmatched, leftPath+"."+l.suffix)
			continue
		}
		out = append(out, leafPair{left: l, right: r})
	}
	for _, r := range right {
		if !seen[r.suffix] {
			unmatched = append(unmatched, rightPath+"."+r.suffix)
		}
	}
	if len(unmatched) > 0 {
		return nil, structuralShapeMismatchErr(unmatched)
	}
	return out, nil
}
