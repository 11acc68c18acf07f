package rewrite

import (
	"github.com/cdslang/cqnflat/pkg/csn"
)

// testModel builds a small in-memory schema used across this package's
// tests: Books -(author)-> Authors -(publisher)-> Publishers, plus an
// unmanaged Books <- Reviews backlink and a structured Authors.address.
//
// Authors and Books both carry their managed association's foreign-key
// mirror element declared explicitly (author_ID, publisher_ID), matching
// how a real CSN db-flavor document represents a managed association.
func testModel() csn.Model {
	publishers := &csn.Definition{Kind: csn.KindEntity, Name: "Publishers", Keys: []string{"ID"}}
	publishers.Elements = csn.NewElements(
		&csn.Definition{Kind: csn.KindElement, Name: "ID", Parent: publishers},
		&csn.Definition{Kind: csn.KindElement, Name: "name", Parent: publishers},
	)

	authors := &csn.Definition{Kind: csn.KindEntity, Name: "Authors", Keys: []string{"ID"}}
	address := &csn.Definition{Kind: csn.KindStructured, Name: "address", Parent: authors}
	address.Elements = csn.NewElements(
		&csn.Definition{Kind: csn.KindElement, Name: "street", Parent: address},
		&csn.Definition{Kind: csn.KindElement, Name: "city", Parent: address},
	)
	authorPublisher := &csn.Definition{
		Kind: csn.KindAssociation, Name: "publisher", Parent: authors,
		Assoc: &csn.Association{
			Target:      "Publishers",
			Cardinality: csn.ToOne,
			Managed:     true,
			ForeignKeys: []csn.ForeignKey{{Name: "ID", As: "publisher_ID"}},
		},
	}
	authors.Elements = csn.NewElements(
		&csn.Definition{Kind: csn.KindElement, Name: "ID", Parent: authors},
		&csn.Definition{Kind: csn.KindElement, Name: "name", Parent: authors},
		address,
		authorPublisher,
		&csn.Definition{Kind: csn.KindElement, Name: "publisher_ID", Parent: authors},
	)

	books := &csn.Definition{Kind: csn.KindEntity, Name: "Books", Keys: []string{"ID"}}
	bookAuthor := &csn.Definition{
		Kind: csn.KindAssociation, Name: "author", Parent: books,
		Assoc: &csn.Association{
			Target:      "Authors",
			Cardinality: csn.ToOne,
			Managed:     true,
			ForeignKeys: []csn.ForeignKey{{Name: "ID", As: "author_ID"}},
		},
	}
	bookReviews := &csn.Definition{
		Kind: csn.KindAssociation, Name: "reviews", Parent: books,
		Assoc: &csn.Association{
			Target:      "Reviews",
			Cardinality: csn.ToMany,
			Managed:     false,
			OnCondition: csn.OnCondition{
				{Path: []string{"book_ID"}},
				{Keyword: "="},
				{Path: []string{"$self", "ID"}},
			},
		},
	}
	books.Elements = csn.NewElements(
		&csn.Definition{Kind: csn.KindElement, Name: "ID", Parent: books},
		&csn.Definition{Kind: csn.KindElement, Name: "title", Parent: books},
		&csn.Definition{Kind: csn.KindElement, Name: "stock", Parent: books},
		&csn.Definition{Kind: csn.KindElement, Name: "discontinued", Parent: books},
		bookAuthor,
		&csn.Definition{Kind: csn.KindElement, Name: "author_ID", Parent: books},
		bookReviews,
	)

	reviews := &csn.Definition{Kind: csn.KindEntity, Name: "Reviews", Keys: []string{"ID"}}
	reviewBook := &csn.Definition{
		Kind: csn.KindAssociation, Name: "book", Parent: reviews,
		Assoc: &csn.Association{
			Target:      "Books",
			Cardinality: csn.ToOne,
			Managed:     true,
			ForeignKeys: []csn.ForeignKey{{Name: "ID", As: "book_ID"}},
		},
	}
	reviews.Elements = csn.NewElements(
		&csn.Definition{Kind: csn.KindElement, Name: "ID", Parent: reviews},
		&csn.Definition{Kind: csn.KindElement, Name: "rating", Parent: reviews},
		reviewBook,
		&csn.Definition{Kind: csn.KindElement, Name: "book_ID", Parent: reviews},
	)

	defs := map[string]*csn.Definition{
		"Books":      books,
		"Authors":    authors,
		"Publishers": publishers,
		"Reviews":    reviews,
	}
	return csn.NewStaticModel(defs, nil)
}
