package csn

import (
	"testing"

	"github.com/cdslang/cqnflat/pkg/cqnerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixtureModel() *StaticModel {
	author := &Definition{Kind: KindEntity, Name: "Authors", Keys: []string{"ID"}}
	book := &Definition{Kind: KindEntity, Name: "Books", Keys: []string{"ID"}}
	bookLocalized := &Definition{Kind: KindEntity, Name: "Books_texts", Keys: []string{"ID"}}
	book.LocalizedFlag = true

	authorAssoc := &Definition{
		Kind: KindAssociation, Name: "author", Parent: book,
		Assoc: &Association{Target: "Authors", Managed: true, Cardinality: ToOne},
	}
	skipped := &Definition{Kind: KindElement, Name: "internalNote", PersistenceSkipFlag: true, Parent: book}
	book.Elements = NewElements(authorAssoc, skipped)

	return NewStaticModel(
		map[string]*Definition{
			"Authors":      author,
			"Books":        book,
			"Books_texts":  bookLocalized,
			"Books.author": authorAssoc,
		},
		map[string]string{"Books": "Books_texts"},
	)
}

func TestStaticModel_Lookup(t *testing.T) {
	m := buildFixtureModel()

	d, err := m.Lookup("Books")
	require.NoError(t, err)
	assert.Equal(t, "Books", d.Name)

	_, err = m.Lookup("NoSuchEntity")
	require.Error(t, err)
	assert.True(t, cqnerr.Is(err, cqnerr.UnknownName))
}

func TestStaticModel_Target(t *testing.T) {
	m := buildFixtureModel()
	assoc, err := m.Lookup("Books.author")
	require.NoError(t, err)

	target, err := m.Target(assoc)
	require.NoError(t, err)
	assert.Equal(t, "Authors", target.Name)

	book, _ := m.Lookup("Books")
	_, err = m.Target(book)
	assert.Error(t, err, "target of a non-association must fail")
}

func TestStaticModel_IsManagedIsToOne(t *testing.T) {
	m := buildFixtureModel()
	assoc, _ := m.Lookup("Books.author")

	assert.True(t, m.IsManaged(assoc))
	assert.True(t, m.IsToOne(assoc))
	assert.False(t, m.IsManaged(nil))
	assert.False(t, m.IsToOne(nil))
}

func TestStaticModel_PersistenceSkip(t *testing.T) {
	m := buildFixtureModel()
	book, _ := m.Lookup("Books")
	skipped, _ := book.Elements.Get("internalNote")

	assert.True(t, m.PersistenceSkip(skipped))
	assert.False(t, m.PersistenceSkip(book))
	assert.False(t, m.PersistenceSkip(nil))
}

func TestStaticModel_LocalizedViewFor(t *testing.T) {
	m := buildFixtureModel()
	book, _ := m.Lookup("Books")

	assert.Equal(t, book, m.LocalizedViewFor(book, false), "non-localized request returns the input unchanged")

	localized := m.LocalizedViewFor(book, true)
	assert.Equal(t, "Books_texts", localized.Name)

	author, _ := m.Lookup("Authors")
	assert.Equal(t, author, m.LocalizedViewFor(author, true), "entity without LocalizedFlag is returned unchanged")
}

func TestStaticModel_LocalizedViewFor_MissingVariantFallsBack(t *testing.T) {
	broken := &Definition{Kind: KindEntity, Name: "Reviews", LocalizedFlag: true}
	m := NewStaticModel(
		map[string]*Definition{"Reviews": broken},
		map[string]string{"Reviews": "Reviews_texts"},
	)

	assert.Same(t, broken, m.LocalizedViewFor(broken, true))
}

func TestNewStaticModel_NilLocalizedMap(t *testing.T) {
	m := NewStaticModel(map[string]*Definition{}, nil)
	book := &Definition{Kind: KindEntity, Name: "Books", LocalizedFlag: true}
	assert.Same(t, book, m.LocalizedViewFor(book, true))
}
