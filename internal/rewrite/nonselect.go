package rewrite

import "github.com/cdslang/cqnflat/pkg/cqn"

// rewriteNonSelect handles INSERT/UPSERT/UPDATE/DELETE/STREAM: these share only `from`/`into` and `where` with SELECT and never
// carry a join tree of their own, since they target exactly one entity.
func rewriteNonSelect(rc *rewriteCtx, q *cqn.Query, out *cqn.Query) error {
	if q.Into != nil {
		def, err := rc.model.Lookup(q.Into.Last())
		if err != nil {
			return err
		}
		into := cqn.NewRef(def.Name)
		into.As = q.Into.As
		out.Into = into
	}

	if len(q.Where) > 0 {
		where, err := rewriteTokens(rc, q.Where, false)
		if err != nil {
			return err
		}
		out.Where = where
	}

	if q.With != nil {
		out.With = make(map[string]cqn.Tokens, len(q.With))
		for col, toks := range q.With {
			rewritten, err := rewriteTokens(rc, toks, false)
			if err != nil {
				return err
			}
			out.With[col] = rewritten
		}
	}

	return nil
}
