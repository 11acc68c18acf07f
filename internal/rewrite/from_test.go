package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdslang/cqnflat/pkg/cqn"
)

func TestRewriteFrom_SingleSourcePassesThrough(t *testing.T) {
	q := &cqn.Query{From: &cqn.FromClause{As: "b", Ref: cqn.NewRef("Books")}}
	rc := newCtx(t, q)

	out, extra, err := rewriteFrom(rc, q.From)
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.Equal(t, "b", out.As)
	assert.Equal(t, "Books", out.Ref.Dotted())
}

func TestRewriteFrom_MultiStepLowersToWhereExists(t *testing.T) {
	// from Books:author.publisher
	from := &cqn.FromClause{Ref: cqn.NewRef("Books", "author", "publisher")}
	q := &cqn.Query{From: from}
	rc := newCtx(t, q)

	out, extra, err := rewriteFrom(rc, from)
	require.NoError(t, err)
	require.NotEmpty(t, extra)

	assert.Equal(t, "publisher", out.As, "the final step's name becomes the single-source alias")
	assert.Equal(t, "Publishers", out.Ref.Dotted())

	require.True(t, extra[0].IsKeyword("exists"))
	require.Equal(t, cqn.TokSubquery, extra[1].Kind)
	sub := extra[1].Sub
	assert.Equal(t, "Authors", sub.From.Ref.Dotted(), "the hop nearest the final alias correlates directly to it")

	// The author-to-Books hop is nested one level further in, correlated to
	// the fresh alias this outer subquery introduced for Authors, not
	// sitting beside it at the top level.
	require.NotEmpty(t, sub.Where)
	var nestedSub *cqn.Query
	for i, tok := range sub.Where {
		if tok.Kind == cqn.TokKeyword && tok.IsKeyword("exists") {
			require.Equal(t, cqn.TokSubquery, sub.Where[i+1].Kind)
			nestedSub = sub.Where[i+1].Sub
		}
	}
	require.NotNil(t, nestedSub, "author's where must nest the Books exists chain")
	assert.Equal(t, "Books", nestedSub.From.Ref.Dotted())
}
