package modelio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdslang/cqnflat/pkg/csn"
)

func writeModel(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadModel_ScalarElementsAndKeys(t *testing.T) {
	path := writeModel(t, `
entities:
  Books:
    keys: [ID]
    elements:
      ID:
        type: Integer
      title:
        type: String
`)
	model, err := LoadModel(path)
	require.NoError(t, err)

	def, err := model.Lookup("Books")
	require.NoError(t, err)
	assert.Equal(t, csn.KindEntity, def.Kind)
	assert.Equal(t, []string{"ID"}, model.Keys(def))

	els := model.Elements(def)
	require.NotNil(t, els)
	assert.Equal(t, []string{"ID", "title"}, els.Names(), "element order must match the document's declaration order")
}

func TestLoadModel_PreservesDeclarationOrderRegardlessOfNameSort(t *testing.T) {
	// Names are deliberately out of alphabetical order: a naive map-based
	// decode would still often produce alphabetical order by accident, so
	// this checks the document's actual, non-alphabetical order survives.
	path := writeModel(t, `
entities:
  Widgets:
    elements:
      zeta:
        type: String
      alpha:
        type: String
      mu:
        type: String
`)
	model, err := LoadModel(path)
	require.NoError(t, err)

	def, err := model.Lookup("Widgets")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mu"}, model.Elements(def).Names())
}

func TestLoadModel_StructuredElementNestsChildren(t *testing.T) {
	path := writeModel(t, `
entities:
  Authors:
    keys: [ID]
    elements:
      ID:
        type: Integer
      address:
        elements:
          street:
            type: String
          city:
            type: String
`)
	model, err := LoadModel(path)
	require.NoError(t, err)

	def, err := model.Lookup("Authors")
	require.NoError(t, err)

	address, ok := model.Elements(def).Get("address")
	require.True(t, ok)
	assert.Equal(t, csn.KindStructured, address.Kind)
	assert.Equal(t, []string{"street", "city"}, model.Elements(address).Names())

	street, ok := model.Elements(address).Get("street")
	require.True(t, ok)
	assert.Equal(t, "address_street", street.FlatName())
}

func TestLoadModel_ManagedAssociationBuildsForeignKeys(t *testing.T) {
	path := writeModel(t, `
entities:
  Authors:
    keys: [ID]
    elements:
      ID:
        type: Integer
  Books:
    keys: [ID]
    elements:
      ID:
        type: Integer
      author_ID:
        type: Integer
      author:
        association:
          target: Authors
          cardinality: one
          managed: true
          foreignKeys:
            - name: ID
              as: author_ID
`)
	model, err := LoadModel(path)
	require.NoError(t, err)

	books, err := model.Lookup("Books")
	require.NoError(t, err)

	author, ok := model.Elements(books).Get("author")
	require.True(t, ok)
	assert.True(t, model.IsManaged(author))
	assert.True(t, model.IsToOne(author))
	require.Len(t, author.Assoc.ForeignKeys, 1)
	assert.Equal(t, "author_ID", author.Assoc.ForeignKeys[0].FlatName())

	target, err := model.Target(author)
	require.NoError(t, err)
	assert.Equal(t, "Authors", target.Name)
}

func TestLoadModel_UnmanagedAssociationParsesOnCondition(t *testing.T) {
	path := writeModel(t, `
entities:
  Books:
    keys: [ID]
    elements:
      ID:
        type: Integer
  Reviews:
    keys: [ID]
    elements:
      ID:
        type: Integer
      book_ID:
        type: Integer
  Books2:
    keys: [ID]
    elements:
      ID:
        type: Integer
      reviews:
        association:
          target: Reviews
          cardinality: many
          managed: false
          onCondition:
            - reviews.book_ID
            - "="
            - $self.ID
`)
	model, err := LoadModel(path)
	require.NoError(t, err)

	books2, err := model.Lookup("Books2")
	require.NoError(t, err)
	reviews, ok := model.Elements(books2).Get("reviews")
	require.True(t, ok)
	assert.False(t, model.IsManaged(reviews))
	require.Len(t, reviews.Assoc.OnCondition, 3)
	assert.Equal(t, []string{"reviews", "book_ID"}, reviews.Assoc.OnCondition[0].Path)
	assert.Equal(t, "=", reviews.Assoc.OnCondition[1].Keyword)
	assert.Equal(t, []string{"$self", "ID"}, reviews.Assoc.OnCondition[2].Path)
}

func TestLoadModel_PersistenceSkipAndLocalizedFlags(t *testing.T) {
	path := writeModel(t, `
localized:
  Books: Books_texts
entities:
  Books:
    keys: [ID]
    elements:
      ID:
        type: Integer
      virtualTotal:
        type: Integer
        persistenceSkip: true
      title:
        type: String
        localized: true
`)
	model, err := LoadModel(path)
	require.NoError(t, err)

	books, err := model.Lookup("Books")
	require.NoError(t, err)
	virtual, ok := model.Elements(books).Get("virtualTotal")
	require.True(t, ok)
	assert.True(t, model.PersistenceSkip(virtual))

	title, ok := model.Elements(books).Get("title")
	require.True(t, ok)
	assert.True(t, title.LocalizedFlag)
}

func TestLoadModel_MissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadModel_InvalidYAML(t *testing.T) {
	path := writeModel(t, "entities: [unterminated\n")
	_, err := LoadModel(path)
	assert.Error(t, err)
}

func TestLoadModel_ElementsNotAMapping(t *testing.T) {
	path := writeModel(t, `
entities:
  Books:
    elements: nope
`)
	_, err := LoadModel(path)
	assert.Error(t, err)
}
