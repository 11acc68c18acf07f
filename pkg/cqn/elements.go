package cqn

import "github.com/cdslang/cqnflat/pkg/csn"

// ElementKind classifies an inferred output Element.
type ElementKind int

const (
	// ElemScalar is a plain scalar output column.
	ElemScalar ElementKind = iota
	// ElemStructured is a nested structured element produced by `inline`/`expand`
	// over a structured element.
	ElemStructured
	// ElemSubquery is a correlated-subquery element produced by `expand` over
	// an association.
	ElemSubquery
)

// Element is one entry of the query's inferred output shape.
type Element struct {
	Name string
	Kind ElementKind

	// Def is the leaf Definition backing a scalar element, when known
	// (nil for computed expressions/functions/literals).
	Def *csn.Definition
	// TypeHint carries the inferred scalar type when Def is nil: "string",
	// "boolean", "integer", "decimal", or "" for an opaque type.
	TypeHint string
	// Key marks an element that keeps its source key-ness (e.g. from a cast
	// override).
	Key bool

	// Nested holds the child element set for ElemStructured.
	Nested *ElementSet
	// Subquery holds the correlated subquery for ElemSubquery; Subquery.One
	// records to-one vs to-many shape.
	Subquery *Query

	Annotations map[string]interface{}
}

// ElementSet is the ordered name -> Element mapping produced by the element
// inferencer. The "combined elements" index used during resolution is a
// separate alias-aware map kept by the rewriter, not an ElementSet.
type ElementSet struct {
	order  []string
	byName map[string]*Element
}

// NewElementSet returns an empty ElementSet.
func NewElementSet() *ElementSet {
	return &ElementSet{byName: map[string]*Element{}}
}

// Add appends el under name. When name is already present, its element is
// replaced and it keeps its existing position.
func (es *ElementSet) Add(name string, el *Element) {
	if _, exists := es.byName[name]; !exists {
		es.order = append(es.order, name)
	}
	es.byName[name] = el
}

// Has reports whether name is already present.
func (es *ElementSet) Has(name string) bool {
	_, ok := es.byName[name]
	return ok
}

// Get returns the element named name, if present.
func (es *ElementSet) Get(name string) (*Element, bool) {
	el, ok := es.byName[name]
	return el, ok
}

// Names returns element names in declaration order.
func (es *ElementSet) Names() []string {
	out := make([]string, len(es.order))
	copy(out, es.order)
	return out
}

// Len returns the number of elements.
func (es *ElementSet) Len() int { return len(es.order) }

// Each calls fn for every element in declaration order.
func (es *ElementSet) Each(fn func(name string, el *Element)) {
	for _, name := range es.order {
		fn(name, es.byName[name])
	}
}
