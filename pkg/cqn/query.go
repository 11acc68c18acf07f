package cqn

import "github.com/cdslang/cqnflat/pkg/csn"

// QueryKind tags the variant a Query represents.
type QueryKind int

const (
	// KindSelect is a SELECT query, the only kind with the full clause set.
	KindSelect QueryKind = iota
	// KindInsert is an INSERT statement.
	KindInsert
	// KindUpsert is an UPSERT statement.
	KindUpsert
	// KindUpdate is an UPDATE statement.
	KindUpdate
	// KindDelete is a DELETE statement.
	KindDelete
	// KindStream is the vestigial STREAM statement.
	KindStream
	// KindSetOp is a SET/union query; rewriting always rejects it (UnionNotSupported).
	KindSetOp
)

// Query is the tagged variant over {SELECT, INSERT, UPSERT, UPDATE, DELETE,
// STREAM} plus a SetOp marker used only to detect and reject unions.
type Query struct {
	Kind QueryKind `json:"kind"`

	// SELECT clauses.
	From      *FromClause `json:"from,omitempty"`
	Columns   []Column    `json:"columns,omitempty"`
	Where     Tokens      `json:"where,omitempty"`
	GroupBy   []Column    `json:"groupBy,omitempty"`
	Having    Tokens      `json:"having,omitempty"`
	OrderBy   []Column    `json:"orderBy,omitempty"`
	Limit     *Limit      `json:"limit,omitempty"`
	Search    *Search     `json:"search,omitempty"`
	Excluding []string    `json:"excluding,omitempty"`
	Localized bool        `json:"localized,omitempty"`
	Distinct  bool        `json:"distinct,omitempty"`
	// Expand and One are set on a SELECT synthesized from an `expand` column:
	// Expand marks it as a correlated-subquery projection, One records
	// whether the association is to-one (a single struct result) or
	// to-many (a collection result).
	Expand bool `json:"expand,omitempty"`
	One    bool `json:"one,omitempty"`

	// Non-SELECT clauses: INSERT/UPSERT/UPDATE/DELETE/STREAM
	// share only From and Where with SELECT, plus these:
	Into *Ref              `json:"into,omitempty"` // INSERT.into / UPSERT.into, normalized to a single-step ref
	With map[string]Tokens `json:"with,omitempty"`  // UPDATE.with, one token stream per assigned column

	// SetOp is non-nil only for KindSetOp; Rewrite always rejects it.
	SetOp *SetOperation `json:"setOp,omitempty"`

	// Derived properties populated by inference/rewriting: sources (alias ->
	// source definition), target (single source or nil when multiple), the
	// output element set, and the join tree. These are reachable on the
	// returned query without mutating the caller's input query, and are
	// deliberately excluded from the JSON wire form: they are derived, not
	// part of the query a caller submits.
	Sources  map[string]*csn.Definition `json:"-"`
	Target   *csn.Definition            `json:"-"`
	Elements *ElementSet                `json:"-"`
	JoinTree *JoinTree                  `json:"-"`
}

// SetOperation represents UNION/INTERSECT/EXCEPT; always rejected by Rewrite.
type SetOperation struct {
	Op    string
	Left  *Query
	Right *Query
}

// Limit represents SQL LIMIT/OFFSET.
type Limit struct {
	Rows   *Token
	Offset *Token
}

// Search represents the source-level search clause, lowered into a
// where-appended `search(...)` predicate.
type Search struct {
	Expr Tokens
}

// FromClause is either a path reference, a join node, or a nested SELECT.
type FromClause struct {
	Ref       *Ref   `json:"ref,omitempty"`
	Join      *JoinNode `json:"join,omitempty"`
	SubSelect *Query `json:"SELECT,omitempty"`
	As        string `json:"as,omitempty"`
}

// JoinNode is a join tree materialized into the output `from`: a left join pairing two or more FromClause args under an on-condition.
type JoinNode struct {
	Kind string        `json:"join"` // "left" (the only kind this compiler emits)
	Args []*FromClause `json:"args"`
	On   Tokens        `json:"on,omitempty"`
}

// Column is one projected item: exactly one of Val/Param/Ref/Xpr/Func/Select/
// Star/Expand/Inline is meaningful.
type Column struct {
	Val    *Literal `json:"val,omitempty"`
	Param  *Param   `json:"param,omitempty"`
	Ref    *Ref     `json:"ref,omitempty"`
	Xpr    Tokens   `json:"xpr,omitempty"`
	Func   *FuncCall `json:"func,omitempty"`
	Select *Query   `json:"SELECT,omitempty"`
	Star   bool     `json:"star,omitempty"`

	Expand []Column `json:"expand,omitempty"`
	Inline []Column `json:"inline,omitempty"`

	As        string   `json:"as,omitempty"`
	Cast      *Cast    `json:"cast,omitempty"`
	Excluding []string `json:"excluding,omitempty"`

	Annotations map[string]interface{} `json:"annotations,omitempty"`
}

// IsVirtual reports whether this column produces no physical output (a
// param placeholder that is bound at execution time rather than
// materialized).
func (c Column) IsVirtual() bool {
	return c.Param != nil
}
