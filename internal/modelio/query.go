package modelio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cdslang/cqnflat/pkg/cqn"
)

// LoadQuery reads a JSON CQN query document from path.
func LoadQuery(path string) (*cqn.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var q cqn.Query
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("parsing query json: %w", err)
	}
	return &q, nil
}

// WriteQuery writes q to path as indented JSON.
func WriteQuery(path string, q *cqn.Query) error {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding query json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	return nil
}
