// Package rewrite implements the two-phase compiler at the heart of this
// module: inference attaches resolution metadata to a
// query without mutating it, and rewriting clones the
// query and rebuilds every clause from that metadata.
//
// The package is purely functional and single-threaded per call: a
// rewriteCtx is allocated fresh for every top-level Rewrite call (and every
// subquery recursion gets its own child scope), holds only
// owned working structures, and is discarded once rewriting completes.
package rewrite

import (
	"github.com/cdslang/cqnflat/pkg/csn"
)

// sourceHit is one (alias, definition) pair contributing a name to the
// combined-elements index.
type sourceHit struct {
	Alias string
	Def   *csn.Definition
}

// env is the per-query resolution environment threaded through inference:
// the source-alias map, the combined-elements index built from it, the
// self/projection two-pass registry, and a link to the enclosing query's env
// for outer-alias resolution inside a subquery.
type env struct {
	model csn.Model

	// sources maps each `from` alias to the Definition it selects from.
	sources map[string]*csn.Definition
	// sourceOrder preserves declaration order for deterministic iteration.
	sourceOrder []string

	// combined indexes every source's elements by unqualified name, for
	// step-0 resolution of an unqualified reference and for AmbiguousName
	// detection.
	combined map[string][]sourceHit

	// selfNames holds the first-pass registered names of this query's own
	// plain (non-ref) output columns, so a ref in a later column, where, or
	// orderBy clause may refer back to them.
	selfNames map[string]struct{}

	// localized records whether the enclosing query requested localized data.
	// Nothing in this package reads it: source resolution does not call
	// csn.Model.LocalizedViewFor, so a localized query selects from the
	// entities it names.
	localized bool

	outer *env
}

// newEnv builds an env from a query's already-resolved sources.
func newEnv(model csn.Model, sources map[string]*csn.Definition, order []string, localized bool, outer *env) *env {
	e := &env{
		model:       model,
		sources:     sources,
		sourceOrder: order,
		combined:    map[string][]sourceHit{},
		selfNames:   map[string]struct{}{},
		localized:   localized,
		outer:       outer,
	}
	for _, alias := range order {
		def := sources[alias]
		els := model.Elements(def)
		els.Each(func(name string, child *csn.Definition) bool {
			e.combined[name] = append(e.combined[name], sourceHit{Alias: alias, Def: child})
			return true
		})
	}
	return e
}

// registerSelfName records a plain output column's name for first-pass
// self-reference resolution.
func (e *env) registerSelfName(name string) {
	if name != "" {
		e.selfNames[name] = struct{}{}
	}
}

// lookupSource returns the Definition for a from-alias, if step0 names one
// exactly.
func (e *env) lookupSource(alias string) (*csn.Definition, bool) {
	d, ok := e.sources[alias]
	return d, ok
}

// lookupOuterAlias resolves step0 against an enclosing query's aliases, for
// correlated references inside a subquery.
func (e *env) lookupOuterAlias(alias string) (*csn.Definition, bool) {
	if e.outer == nil {
		return nil, false
	}
	if d, ok := e.outer.sources[alias]; ok {
		return d, true
	}
	return e.outer.lookupOuterAlias(alias)
}

// soleAlias returns the single from-alias when the query has exactly one
// source, used to compute Query.Target.
func (e *env) soleAlias() (string, bool) {
	if len(e.sourceOrder) == 1 {
		return e.sourceOrder[0], true
	}
	return "", false
}
