package rewrite

import (
	"github.com/cdslang/cqnflat/pkg/cqn"
	"github.com/cdslang/cqnflat/pkg/csn"
)

// stepLink is the resolution metadata attached to one Ref step: the
// resolved Definition, the target entity in which the following step
// resolves, and the table alias this step's row is
// addressed by in the output.
type stepLink struct {
	Def    *csn.Definition
	Target *csn.Definition
	Alias  string
	// JoinNode is set when this step required a join-tree node (it is
	// join-relevant); nil when the step was absorbed into a foreign-key-only
	// flattening and never needs its own row.
	JoinNode *cqn.JoinTreeNode
}

// refLink is the full per-reference resolution result the resolver produces
// for one cqn.Ref. It never touches the Ref itself; it is kept in a
// side-table keyed by *cqn.Ref identity.
type refLink struct {
	Steps []stepLink

	// Pseudo is true when step 0 resolved in the pseudo-namespace; such refs
	// bypass join-tree merging and alias prepending entirely.
	Pseudo bool
	// SelfName is true when step 0 resolved against the query's own
	// first-pass output-column names rather than a schema element.
	SelfName bool
	// Outer is true when step 0 resolved against an enclosing query's alias.
	Outer bool

	// JoinRelevant is true when at least one association step in the chain
	// could not be absorbed as foreign-key-only and required a join-tree
	// node.
	JoinRelevant bool

	// FlatName is the underscore-joined output column name: skips alias segments of renamed foreign keys so the flat name
	// matches the physical column.
	FlatName string

	// FinalAlias is the table alias the flattened output ref should use:
	// a source alias for a foreign-key-only or plain scalar reference, or
	// the last touched join-tree node's alias for a join-relevant one.
	FinalAlias string

	// Leaf is the final resolved Definition (the scalar/association/structured
	// element the whole path denotes).
	Leaf *csn.Definition
}

// lastStep returns the resolution of the final path step.
func (rl *refLink) lastStep() stepLink {
	return rl.Steps[len(rl.Steps)-1]
}

// linkTable is the per-call side-table mapping *cqn.Ref identity to its
// resolution. Scoped to one rewriteCtx, and thus to one Rewrite call: every
// subquery recursion builds its own rewriteCtx with its own table, so
// concurrent Rewrite calls sharing the same immutable input never share
// mutable state.
type linkTable struct {
	byRef map[*cqn.Ref]*refLink
}

func newLinkTable() *linkTable {
	return &linkTable{byRef: map[*cqn.Ref]*refLink{}}
}

func (lt *linkTable) set(ref *cqn.Ref, link *refLink) {
	lt.byRef[ref] = link
}

func (lt *linkTable) get(ref *cqn.Ref) (*refLink, bool) {
	l, ok := lt.byRef[ref]
	return l, ok
}
