package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdslang/cqnflat/pkg/cqn"
)

func TestMaterializeJoins_EmptyTreePassesFromThrough(t *testing.T) {
	q := &cqn.Query{From: &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}}
	rc := newCtx(t, q)

	from := &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}
	out, err := materializeJoins(rc, from)
	require.NoError(t, err)
	assert.Same(t, from, out)
}

func TestMaterializeJoins_SingleAssociationProducesLeftJoin(t *testing.T) {
	q := &cqn.Query{From: &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}}
	rc := newCtx(t, q)

	_, err := resolveRef(rc, cqn.NewRef("b", "author", "name"), resolveOpts{})
	require.NoError(t, err)

	from := &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}
	out, err := materializeJoins(rc, from)
	require.NoError(t, err)
	require.NotNil(t, out.Join)
	assert.Equal(t, "left", out.Join.Kind)
	require.Len(t, out.Join.Args, 2)
	assert.Same(t, from, out.Join.Args[0])
	assert.Equal(t, "Authors", out.Join.Args[1].Ref.Dotted())
	assert.Equal(t, "author", out.Join.Args[1].As)
	require.NotEmpty(t, out.Join.On)
}

func TestMaterializeJoins_ChainedAssociationsNestLeftJoins(t *testing.T) {
	q := &cqn.Query{From: &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}}
	rc := newCtx(t, q)

	_, err := resolveRef(rc, cqn.NewRef("b", "author", "publisher", "name"), resolveOpts{})
	require.NoError(t, err)

	from := &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}
	out, err := materializeJoins(rc, from)
	require.NoError(t, err)
	require.NotNil(t, out.Join)
	// the publisher hop is walked last, so it wraps the author join as its
	// outer arg: the outermost join's second arg is the last hop, Publishers.
	assert.Equal(t, "Publishers", out.Join.Args[1].Ref.Dotted())
	require.NotNil(t, out.Join.Args[0].Join, "the second hop must nest the first join, not replace it")
	assert.Equal(t, "Authors", out.Join.Args[0].Join.Args[1].Ref.Dotted())
}

func TestMaterializeJoins_FilteredStepAndsFilterIntoOn(t *testing.T) {
	q := &cqn.Query{From: &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}}
	rc := newCtx(t, q)

	ref := &cqn.Ref{Steps: []cqn.Step{
		{Name: "b"},
		{Name: "author", Filter: cqn.Tokens{
			cqn.RefTok(cqn.NewRef("name")), cqn.Kw("="), cqn.LitTok("Poe"),
		}},
		{Name: "name"},
	}}
	_, err := resolveRef(rc, ref, resolveOpts{})
	require.NoError(t, err)

	from := &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}
	out, err := materializeJoins(rc, from)
	require.NoError(t, err)
	require.NotNil(t, out.Join)
	// the on-condition is the fk equality anded with the filter's rewritten form.
	found := false
	for _, tok := range out.Join.On {
		if tok.IsKeyword("and") {
			found = true
		}
	}
	assert.True(t, found, "a filtered navigation step must and its filter into the join's on-condition")
}

func TestMaterializeJoins_SharedPrefixReusesOneJoinNode(t *testing.T) {
	q := &cqn.Query{From: &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}}
	rc := newCtx(t, q)

	_, err := resolveRef(rc, cqn.NewRef("b", "author", "name"), resolveOpts{})
	require.NoError(t, err)
	_, err = resolveRef(rc, cqn.NewRef("b", "author", "publisher", "name"), resolveOpts{})
	require.NoError(t, err)

	// author is referenced twice (once directly, once as a prefix of
	// author.publisher); the join tree must have deduplicated it to one root
	// with one child, not two separate author joins.
	require.Len(t, rc.tree.Roots(), 1)
	assert.Len(t, rc.tree.Roots()[0].Children, 1)

	from := &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}
	out, err := materializeJoins(rc, from)
	require.NoError(t, err)
	require.NotNil(t, out.Join)
	require.NotNil(t, out.Join.Args[0].Join)
}
