package cqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRef(t *testing.T) {
	r := NewRef("author", "books", "title")
	assert.Equal(t, "author", r.First())
	assert.Equal(t, "title", r.Last())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, "author.books.title", r.Dotted())
	for _, s := range r.Steps {
		assert.False(t, s.HasFilter())
	}
}

func TestRef_NilSafe(t *testing.T) {
	var r *Ref
	assert.Equal(t, "", r.First())
	assert.Equal(t, "", r.Last())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "", r.Dotted())
	assert.Nil(t, r.Clone())
}

func TestRef_Clone_IsDeep(t *testing.T) {
	r := &Ref{
		Steps:     []Step{{Name: "books", Filter: Tokens{Kw("exists")}}},
		As:        "b",
		Cast:      &Cast{Type: "cds.String"},
		Excluding: []string{"secret"},
	}

	clone := r.Clone()
	assert.Equal(t, r, clone)

	clone.Steps[0].Name = "mutated"
	clone.Excluding[0] = "mutated"
	clone.Cast.Type = "mutated"
	assert.Equal(t, "books", r.Steps[0].Name)
	assert.Equal(t, "secret", r.Excluding[0])
	assert.Equal(t, "cds.String", r.Cast.Type)
}

func TestStep_HasFilter(t *testing.T) {
	assert.False(t, Step{Name: "x"}.HasFilter())
	assert.True(t, Step{Name: "x", Filter: Tokens{Kw("exists")}}.HasFilter())
}
