package cqn

// Clone returns a structural deep copy of q, dropping the inference-time
// hidden properties (Sources, Target, Elements, JoinTree) since a clone is
// always re-inferred by its own call to Rewrite.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	out := &Query{
		Kind:      q.Kind,
		Where:     q.Where.Clone(),
		Having:    q.Having.Clone(),
		Limit:     q.Limit.Clone(),
		Localized: q.Localized,
		Distinct:  q.Distinct,
		Expand:    q.Expand,
		One:       q.One,
	}
	out.From = q.From.Clone()
	out.Columns = cloneColumns(q.Columns)
	out.GroupBy = cloneColumns(q.GroupBy)
	out.OrderBy = cloneColumns(q.OrderBy)
	if q.Search != nil {
		out.Search = &Search{Expr: q.Search.Expr.Clone()}
	}
	if q.Excluding != nil {
		out.Excluding = append([]string(nil), q.Excluding...)
	}
	out.Into = q.Into.Clone()
	if q.With != nil {
		out.With = make(map[string]Tokens, len(q.With))
		for k, v := range q.With {
			out.With[k] = v.Clone()
		}
	}
	if q.SetOp != nil {
		out.SetOp = &SetOperation{Op: q.SetOp.Op, Left: q.SetOp.Left.Clone(), Right: q.SetOp.Right.Clone()}
	}
	return out
}

// Clone returns a deep copy of l, or nil.
func (l *Limit) Clone() *Limit {
	if l == nil {
		return nil
	}
	out := &Limit{}
	if l.Rows != nil {
		r := l.Rows.Clone()
		out.Rows = &r
	}
	if l.Offset != nil {
		o := l.Offset.Clone()
		out.Offset = &o
	}
	return out
}

// Clone returns a deep copy of f, or nil.
func (f *FromClause) Clone() *FromClause {
	if f == nil {
		return nil
	}
	out := &FromClause{As: f.As}
	out.Ref = f.Ref.Clone()
	out.SubSelect = f.SubSelect.Clone()
	if f.Join != nil {
		j := &JoinNode{Kind: f.Join.Kind, On: f.Join.On.Clone()}
		for _, arg := range f.Join.Args {
			j.Args = append(j.Args, arg.Clone())
		}
		out.Join = j
	}
	return out
}

func cloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of c.
func (c Column) Clone() Column {
	out := c
	if c.Val != nil {
		v := *c.Val
		out.Val = &v
	}
	if c.Param != nil {
		p := *c.Param
		out.Param = &p
	}
	out.Ref = c.Ref.Clone()
	out.Xpr = c.Xpr.Clone()
	if c.Func != nil {
		out.Func = &FuncCall{Name: c.Func.Name, Args: c.Func.Args.Clone()}
	}
	out.Select = c.Select.Clone()
	out.Expand = cloneColumns(c.Expand)
	out.Inline = cloneColumns(c.Inline)
	if c.Cast != nil {
		cast := *c.Cast
		out.Cast = &cast
	}
	if c.Excluding != nil {
		out.Excluding = append([]string(nil), c.Excluding...)
	}
	if c.Annotations != nil {
		out.Annotations = make(map[string]interface{}, len(c.Annotations))
		for k, v := range c.Annotations {
			out.Annotations[k] = v
		}
	}
	return out
}
