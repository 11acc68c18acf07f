package csn

import "github.com/cdslang/cqnflat/pkg/cqnerr"

// Model is the read-only view over an entity-relationship schema that the
// rewriter consumes. Implementations are expected to hold their Definitions
// in memory; nothing in this interface performs I/O.
type Model interface {
	// Lookup resolves a qualified name to its Definition. Fails with
	// cqnerr.UnknownName when the name is not present.
	Lookup(name string) (*Definition, error)
	// Elements returns def's child elements, or nil if def has none.
	Elements(def *Definition) *Elements
	// Keys returns def's primary key element names.
	Keys(def *Definition) []string
	// Target resolves an association Definition to its target entity.
	Target(assoc *Definition) (*Definition, error)
	// IsManaged reports whether assoc is a managed (foreign-key) association.
	IsManaged(assoc *Definition) bool
	// IsToOne reports whether assoc has to-one cardinality.
	IsToOne(assoc *Definition) bool
	// PersistenceSkip reports whether def is excluded from persistence.
	PersistenceSkip(def *Definition) bool
	// LocalizedViewFor returns the localized variant of def when localized
	// is true and def permits localization, else def unchanged.
	LocalizedViewFor(def *Definition, localized bool) *Definition
}

// StaticModel is an in-memory Model built once and never mutated afterward.
// It is the Model implementation used throughout this module; nothing about
// the rewriter depends on it being static, but schema loading and caching
// against a live catalog are out of scope, so a live/remote Model
// implementation is not provided here.
type StaticModel struct {
	defs map[string]*Definition
	// localized maps an entity name to the name of its localized variant.
	localized map[string]string
}

// NewStaticModel builds a StaticModel from a flat map of qualified name to
// Definition. localized optionally maps an entity's qualified name to its
// localized-variant qualified name.
func NewStaticModel(defs map[string]*Definition, localized map[string]string) *StaticModel {
	if localized == nil {
		localized = map[string]string{}
	}
	return &StaticModel{defs: defs, localized: localized}
}

// Lookup implements Model.
func (m *StaticModel) Lookup(name string) (*Definition, error) {
	d, ok := m.defs[name]
	if !ok {
		return nil, cqnerr.New(cqnerr.UnknownName, name, "no such definition in the model")
	}
	return d, nil
}

// Elements implements Model.
func (m *StaticModel) Elements(def *Definition) *Elements {
	if def == nil {
		return nil
	}
	return def.Elements
}

// Keys implements Model.
func (m *StaticModel) Keys(def *Definition) []string {
	if def == nil {
		return nil
	}
	return def.Keys
}

// Target implements Model.
func (m *StaticModel) Target(assoc *Definition) (*Definition, error) {
	if assoc == nil || assoc.Assoc == nil {
		return nil, cqnerr.New(cqnerr.UnknownName, "", "definition is not an association")
	}
	return m.Lookup(assoc.Assoc.Target)
}

// IsManaged implements Model.
func (m *StaticModel) IsManaged(assoc *Definition) bool {
	return assoc != nil && assoc.Assoc != nil && assoc.Assoc.Managed
}

// IsToOne implements Model.
func (m *StaticModel) IsToOne(assoc *Definition) bool {
	return assoc != nil && assoc.Assoc != nil && assoc.Assoc.Cardinality == ToOne
}

// PersistenceSkip implements Model.
func (m *StaticModel) PersistenceSkip(def *Definition) bool {
	return def != nil && def.PersistenceSkipFlag
}

// LocalizedViewFor implements Model.
func (m *StaticModel) LocalizedViewFor(def *Definition, localized bool) *Definition {
	if def == nil || !localized || !def.LocalizedFlag {
		return def
	}
	if variantName, ok := m.localized[def.Name]; ok {
		if variant, err := m.Lookup(variantName); err == nil {
			return variant
		}
	}
	return def
}
