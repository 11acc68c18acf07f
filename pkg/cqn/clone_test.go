package cqn

import (
	"testing"

	"github.com/cdslang/cqnflat/pkg/csn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuery() *Query {
	return &Query{
		Kind:    KindSelect,
		From:    &FromClause{Ref: NewRef("Books"), As: "b"},
		Columns: []Column{{Ref: NewRef("title"), As: "t"}},
		Where:   Tokens{RefTok(NewRef("b", "ID")), Kw("="), LitTok(1)},
		GroupBy: []Column{{Ref: NewRef("author")}},
		OrderBy: []Column{{Ref: func() *Ref { r := NewRef("title"); r.Sort = "asc"; return r }()}},
		Limit:   &Limit{Rows: refPtr(LitTok(10))},
		Search:  &Search{Expr: Tokens{LitTok("dune")}},
		With:    map[string]Tokens{"title": {LitTok("new title")}},
		Sources: map[string]*csn.Definition{"b": {Name: "Books"}},
	}
}

func refPtr(t Token) *Token { return &t }

func TestQuery_Clone_StructurallyEqualButIndependent(t *testing.T) {
	q := sampleQuery()
	clone := q.Clone()

	assert.Equal(t, q.Kind, clone.Kind)
	assert.Equal(t, q.From.Ref.Dotted(), clone.From.Ref.Dotted())
	assert.Equal(t, q.Where, clone.Where)

	clone.From.Ref.Steps[0].Name = "mutated"
	assert.Equal(t, "Books", q.From.Ref.Steps[0].Name)

	clone.Where[2].Literal.Val = 999
	assert.Equal(t, 1, q.Where[2].Literal.Val)

	clone.With["title"][0].Literal.Val = "mutated"
	assert.Equal(t, "new title", q.With["title"][0].Literal.Val)
}

func TestQuery_Clone_DropsInferenceHiddenProperties(t *testing.T) {
	q := sampleQuery()
	clone := q.Clone()

	assert.Nil(t, clone.Sources, "a clone is re-inferred by its own Rewrite call, so hidden properties must not survive")
	assert.Nil(t, clone.Target)
	assert.Nil(t, clone.Elements)
	assert.Nil(t, clone.JoinTree)
}

func TestQuery_Clone_Nil(t *testing.T) {
	var q *Query
	assert.Nil(t, q.Clone())
}

func TestFromClause_Clone_Join(t *testing.T) {
	f := &FromClause{
		Join: &JoinNode{
			Kind: "left",
			Args: []*FromClause{{Ref: NewRef("Books"), As: "b"}, {Ref: NewRef("Authors"), As: "a"}},
			On:   Tokens{RefTok(NewRef("b", "author_ID")), Kw("="), RefTok(NewRef("a", "ID"))},
		},
	}

	clone := f.Clone()
	require.NotNil(t, clone.Join)
	assert.Len(t, clone.Join.Args, 2)

	clone.Join.Args[0].Ref.Steps[0].Name = "mutated"
	assert.Equal(t, "Books", f.Join.Args[0].Ref.Steps[0].Name)
}

func TestLimit_Clone(t *testing.T) {
	l := &Limit{Rows: refPtr(LitTok(5)), Offset: refPtr(LitTok(2))}
	clone := l.Clone()
	assert.Equal(t, l, clone)

	clone.Rows.Literal.Val = 99
	assert.Equal(t, 5, l.Rows.Literal.Val)

	var nilLimit *Limit
	assert.Nil(t, nilLimit.Clone())
}
