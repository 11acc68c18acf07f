package rewrite

import "github.com/cdslang/cqnflat/pkg/cqn"
import "github.com/cdslang/cqnflat/pkg/csn"

// collectSources walks a `from` clause and returns the alias -> Definition
// map plus declaration order that seeds a query's env.
//
// A plain ref `from`
// contributes one source, aliased by its explicit `as` or its last step's
// name. A join node (already-materialized joins passed straight through)
// contributes one source per arg, recursively. A multi-step ref `from` (the
// where-exists-chain shape) still contributes exactly one source: the last
// step, since every earlier step is pushed into `where` rather than
// becoming an additional queryable source.
func collectSources(model csn.Model, from *cqn.FromClause) (map[string]*csn.Definition, []string, error) {
	sources := map[string]*csn.Definition{}
	var order []string

	var walk func(f *cqn.FromClause) error
	walk = func(f *cqn.FromClause) error {
		switch {
		case f == nil:
			return nil
		case f.Join != nil:
			for _, arg := range f.Join.Args {
				if err := walk(arg); err != nil {
					return err
				}
			}
			return nil
		case f.Ref != nil:
			last := f.Ref.Steps[len(f.Ref.Steps)-1]
			var def *csn.Definition
			var err error
			if len(f.Ref.Steps) == 1 {
				def, err = model.Lookup(last.Name)
			} else {
				var owners []*csn.Definition
				owners, _, err = resolveChainOwners(model, f.Ref.Steps)
				if err == nil {
					def = owners[len(owners)-1]
				}
			}
			if err != nil {
				return err
			}
			alias := f.As
			if alias == "" {
				alias = last.Name
			}
			sources[alias] = def
			order = append(order, alias)
			return nil
		case f.SubSelect != nil:
			// A derived-table source contributes no schema-backed elements;
			// its alias is tracked so DuplicateAlias detection still applies,
			// but references into it resolve against its own output columns,
			// out of scope for the association-flattening core.
			sources[f.As] = nil
			order = append(order, f.As)
			return nil
		}
		return nil
	}

	if err := walk(from); err != nil {
		return nil, nil, err
	}
	return sources, order, nil
}
