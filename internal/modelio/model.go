// Package modelio loads the boundary formats this compiler consumes and
// produces: a YAML CSN model document and JSON CQN query documents. Nothing
// in pkg/csn or pkg/cqn depends on this package — it exists purely so the
// demonstration CLI has something to read and write.
package modelio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cdslang/cqnflat/pkg/csn"
)

// modelDoc is the on-disk YAML shape of a CSN model: a flat list of entities,
// each with elements that may themselves be scalar, structured, or
// association-typed.
type modelDoc struct {
	Localized map[string]string     `yaml:"localized"`
	Entities  map[string]*entityDoc `yaml:"entities"`
}

type entityDoc struct {
	Keys     []string  `yaml:"keys"`
	Elements yaml.Node `yaml:"elements"`
}

type elementDoc struct {
	Type            string          `yaml:"type"`
	PersistenceSkip bool            `yaml:"persistenceSkip"`
	Localized       bool            `yaml:"localized"`
	Elements        yaml.Node       `yaml:"elements"`
	Association     *associationDoc `yaml:"association"`
}

// orderedElements walks an `elements:` mapping node in document order,
// returning each entry's name alongside its still-undecoded value node. A
// plain Go map loses declaration order on unmarshal, and this module's
// wildcard expansion (spec.md §4.5) must reproduce a document's element
// order exactly, so the mapping is walked from its node form instead of
// decoding straight into map[string]*elementDoc.
func orderedElements(node yaml.Node) ([]string, []*yaml.Node, error) {
	if node.Kind == 0 {
		return nil, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("expected a mapping node, got kind %d", node.Kind)
	}
	names := make([]string, 0, len(node.Content)/2)
	values := make([]*yaml.Node, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		names = append(names, node.Content[i].Value)
		values = append(values, node.Content[i+1])
	}
	return names, values, nil
}

type associationDoc struct {
	Target      string   `yaml:"target"`
	Cardinality string   `yaml:"cardinality"`
	Managed     bool     `yaml:"managed"`
	ForeignKeys []fkDoc  `yaml:"foreignKeys"`
	OnCondition []string `yaml:"onCondition"`
	Backlink    string   `yaml:"backlink"`
}

type fkDoc struct {
	Name string `yaml:"name"`
	As   string `yaml:"as"`
}

// LoadModel reads a YAML CSN document from path and builds a csn.StaticModel.
func LoadModel(path string) (csn.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	var doc modelDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing model yaml: %w", err)
	}

	defs := make(map[string]*csn.Definition, len(doc.Entities))
	for name, ent := range doc.Entities {
		defs[name] = &csn.Definition{Kind: csn.KindEntity, Name: name, Keys: ent.Keys}
	}
	for name, ent := range doc.Entities {
		elements, err := buildElements(defs[name], ent.Elements)
		if err != nil {
			return nil, fmt.Errorf("parsing model yaml: entity %q: %w", name, err)
		}
		defs[name].Elements = elements
	}
	return csn.NewStaticModel(defs, doc.Localized), nil
}

func buildElements(parent *csn.Definition, node yaml.Node) (*csn.Elements, error) {
	names, values, err := orderedElements(node)
	if err != nil {
		return nil, err
	}
	children := make([]*csn.Definition, 0, len(names))
	for i, name := range names {
		var ed elementDoc
		if err := values[i].Decode(&ed); err != nil {
			return nil, fmt.Errorf("element %q: %w", name, err)
		}
		child := &csn.Definition{
			Name:                name,
			Parent:              parent,
			PersistenceSkipFlag: ed.PersistenceSkip,
			LocalizedFlag:       ed.Localized,
		}
		switch {
		case ed.Association != nil:
			child.Kind = csn.KindAssociation
			child.Assoc = buildAssociation(ed.Association)
		case ed.Elements.Kind != 0:
			child.Kind = csn.KindStructured
			nested, err := buildElements(child, ed.Elements)
			if err != nil {
				return nil, fmt.Errorf("element %q: %w", name, err)
			}
			child.Elements = nested
		default:
			child.Kind = csn.KindElement
		}
		children = append(children, child)
	}
	return csn.NewElements(children...), nil
}

func buildAssociation(ad *associationDoc) *csn.Association {
	a := &csn.Association{
		Target:   ad.Target,
		Managed:  ad.Managed,
		Backlink: ad.Backlink,
	}
	if ad.Cardinality == "many" {
		a.Cardinality = csn.ToMany
	}
	for _, fk := range ad.ForeignKeys {
		a.ForeignKeys = append(a.ForeignKeys, csn.ForeignKey{Name: fk.Name, As: fk.As})
	}
	a.OnCondition = parseOnCondition(ad.OnCondition)
	return a
}

// parseOnCondition turns the flat token strings of the YAML document into
// csn.CondTerm values: "and", "or" and "=" are keywords, and every other
// token is a path (split by splitPath).
func parseOnCondition(toks []string) csn.OnCondition {
	var out csn.OnCondition
	for _, tok := range toks {
		switch tok {
		case "and", "or", "=":
			out = append(out, csn.CondTerm{Keyword: tok})
		default:
			out = append(out, csn.CondTerm{Path: splitPath(tok)})
		}
	}
	return out
}

func splitPath(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
