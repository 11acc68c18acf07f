package cqn

import (
	"testing"

	"github.com/cdslang/cqnflat/pkg/csn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinTree_AddAlias_DeduplicatesOnCollision(t *testing.T) {
	jt := NewJoinTree()
	assert.Equal(t, "author", jt.AddAlias("author"))
	assert.Equal(t, "author_2", jt.AddAlias("author"))
	assert.Equal(t, "author_3", jt.AddAlias("author"))
	assert.Equal(t, "publisher", jt.AddAlias("publisher"))
}

func TestJoinTree_MergeStep_DedupsSamePrefixAndFilter(t *testing.T) {
	jt := NewJoinTree()
	assoc := &csn.Definition{Kind: csn.KindAssociation, Name: "author"}

	n1 := jt.MergeStep(nil, assoc, "author", nil, "b")
	n2 := jt.MergeStep(nil, assoc, "author", nil, "b")

	assert.Same(t, n1, n2, "two references sharing the same canonical path must share one join-tree node")
	assert.Equal(t, "b", n1.SourceAlias)
	assert.Len(t, jt.Roots(), 1)
}

func TestJoinTree_MergeStep_DistinctFiltersGetDistinctNodes(t *testing.T) {
	jt := NewJoinTree()
	assoc := &csn.Definition{Kind: csn.KindAssociation, Name: "books"}

	filterA := Tokens{RefTok(NewRef("stock")), Kw(">"), LitTok(0)}
	filterB := Tokens{RefTok(NewRef("stock")), Kw("="), LitTok(0)}

	n1 := jt.MergeStep(nil, assoc, "books", filterA, "a")
	n2 := jt.MergeStep(nil, assoc, "books", filterB, "a")

	assert.NotSame(t, n1, n2)
	assert.NotEqual(t, n1.Alias, n2.Alias)
	assert.Len(t, jt.Roots(), 2)
}

func TestJoinTree_MergeStep_ChildInheritsParentAlias(t *testing.T) {
	jt := NewJoinTree()
	author := &csn.Definition{Kind: csn.KindAssociation, Name: "author"}
	country := &csn.Definition{Kind: csn.KindAssociation, Name: "country"}

	root := jt.MergeStep(nil, author, "author", nil, "b")
	child := jt.MergeStep(root, country, "country", nil, "b")

	assert.Equal(t, root.Alias, child.SourceAlias, "a child node's source alias is its parent's own alias, not the tree root's")
	require.Len(t, root.Children, 1)
	assert.Same(t, child, root.Children[0])
	assert.Same(t, root, child.Parent())
}

func TestJoinTree_Lookup(t *testing.T) {
	jt := NewJoinTree()
	assoc := &csn.Definition{Name: "author"}
	node := jt.MergeStep(nil, assoc, "author", nil, "b")

	found, ok := jt.Lookup(node.Key)
	require.True(t, ok)
	assert.Same(t, node, found)

	_, ok = jt.Lookup("no.such.key")
	assert.False(t, ok)
}

func TestJoinTree_Empty(t *testing.T) {
	jt := NewJoinTree()
	assert.True(t, jt.Empty())

	jt.MergeStep(nil, &csn.Definition{Name: "author"}, "author", nil, "b")
	assert.False(t, jt.Empty())

	var nilTree *JoinTree
	assert.True(t, nilTree.Empty())
}
