package rewrite

import (
	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// materializeOnCondition builds the token-stream on-condition joining
// sourceAlias, the row the association is defined on (always $self in an
// unmanaged on-condition), to targetAlias, the association's target row.
// Every call site — a materialized join, an expand subquery, or a
// where-exists chain — passes sourceAlias as the owning entity's own alias,
// so $self always means the same side.
func materializeOnCondition(model csn.Model, assoc *csn.Definition, sourceAlias, targetAlias string) cqn.Tokens {
	if model.IsManaged(assoc) {
		return managedOnCondition(assoc, sourceAlias, targetAlias)
	}
	return unmanagedOnCondition(assoc.Assoc.OnCondition, sourceAlias, targetAlias)
}

// managedOnCondition pairs each foreign key on sourceAlias with the matching
// key element on targetAlias, ANDed together.
func managedOnCondition(assoc *csn.Definition, sourceAlias, targetAlias string) cqn.Tokens {
	var toks cqn.Tokens
	for i, fk := range assoc.Assoc.ForeignKeys {
		if i > 0 {
			toks = append(toks, cqn.Kw("and"))
		}
		toks = append(toks,
			cqn.RefTok(&cqn.Ref{Steps: []cqn.Step{{Name: sourceAlias}, {Name: fk.FlatName()}}}),
			cqn.Kw("="),
			cqn.RefTok(&cqn.Ref{Steps: []cqn.Step{{Name: targetAlias}, {Name: fk.Name}}}),
		)
	}
	return toks
}

// unmanagedOnCondition translates the schema-level csn.OnCondition into a
// query-level cqn.Tokens stream, substituting $self with sourceAlias and
// every other path with targetAlias. Resolved at on-condition
// materialization time rather than model-load time, since the alias each
// side needs is only known once a query navigates the association.
func unmanagedOnCondition(cond csn.OnCondition, sourceAlias, targetAlias string) cqn.Tokens {
	selfAlias, otherAlias := sourceAlias, targetAlias
	toks := make(cqn.Tokens, 0, len(cond))
	for _, term := range cond {
		if term.Keyword != "" {
			toks = append(toks, cqn.Kw(term.Keyword))
			continue
		}
		path := term.Path
		alias := otherAlias
		rest := path
		if len(path) > 0 && path[0] == "$self" {
			alias = selfAlias
			rest = path[1:]
		}
		steps := make([]cqn.Step, 0, len(rest)+1)
		steps = append(steps, cqn.Step{Name: alias})
		for _, p := range rest {
			steps = append(steps, cqn.Step{Name: p})
		}
		toks = append(toks, cqn.RefTok(&cqn.Ref{Steps: steps}))
	}
	return toks
}

// andTokens joins a and b with "and", omitting either side if empty.
func andTokens(a, b cqn.Tokens) cqn.Tokens {
	switch {
	case len(a) == 0:
		return b
	case len(b) == 0:
		return a
	}
	out := make(cqn.Tokens, 0, len(a)+len(b)+1)
	out = append(out, a...)
	out = append(out, cqn.Kw("and"))
	out = append(out, b...)
	return out
}
