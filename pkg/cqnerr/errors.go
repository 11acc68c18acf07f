// Package cqnerr defines the closed set of failures the query-normalization
// compiler can raise. Every failure aborts the current rewrite; none are
// retried or partially recovered.
package cqnerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the fixed failure modes a rewrite can produce.
type Kind string

// The full taxonomy. Each is raised exactly where documented in its comment.
const (
	// UnknownName is raised when a path root or step is not found in the model.
	UnknownName Kind = "UnknownName"
	// AmbiguousName is raised when an unqualified step resolves in multiple sources.
	AmbiguousName Kind = "AmbiguousName"
	// FilterOnNonAssoc is raised when an inline filter is attached to a scalar or structured step.
	FilterOnNonAssoc Kind = "FilterOnNonAssoc"
	// UnmanagedInInfixFilter is raised when an unmanaged association is traversed inside a non-exists filter.
	UnmanagedInInfixFilter Kind = "UnmanagedInInfixFilter"
	// NonFkInInfixFilter is raised when a filter navigates past an association's foreign keys inside a non-exists filter.
	NonFkInInfixFilter Kind = "NonFkInInfixFilter"
	// FilterWithoutNavigation is raised when a filter is attached but the next step is neither exists nor expand.
	FilterWithoutNavigation Kind = "FilterWithoutNavigation"
	// DuplicateAlias is raised when two query sources share an alias.
	DuplicateAlias Kind = "DuplicateAlias"
	// DuplicateElement is raised when two output columns resolve to the same name.
	DuplicateElement Kind = "DuplicateElement"
	// EmptyProjection is raised when every column is virtual and no managed composition survives.
	EmptyProjection Kind = "EmptyProjection"
	// UnionNotSupported is raised when the input query is a SET/union query.
	UnionNotSupported Kind = "UnionNotSupported"
	// UnsupportedStructuralComparison is raised for <, <=, >, >= on a structured operand.
	UnsupportedStructuralComparison Kind = "UnsupportedStructuralComparison"
	// StructuralShapeMismatch is raised when structural equality operands differ in leaf set.
	StructuralShapeMismatch Kind = "StructuralShapeMismatch"
	// CannotCompareStructWithValue is raised when a structured operand is compared to a non-null scalar.
	CannotCompareStructWithValue Kind = "CannotCompareStructWithValue"
	// AmbiguousOrderBy is raised when a structured element in orderBy expands to multiple columns.
	AmbiguousOrderBy Kind = "AmbiguousOrderBy"
	// AssocInExpression is raised when an association value appears outside a permitted position.
	AssocInExpression Kind = "AssocInExpression"
	// StructInExpression is raised when a structured element appears outside a permitted position.
	StructInExpression Kind = "StructInExpression"
	// AmbiguousWildcard is raised when a wildcard produces the same name from multiple sources.
	AmbiguousWildcard Kind = "AmbiguousWildcard"
	// ExpectingAlias is raised when an expression or value column lacks an `as`.
	ExpectingAlias Kind = "ExpectingAlias"
)

// Error is the concrete error type raised by the compiler. It carries the
// dotted path of the offending reference (empty for errors that concern no
// single reference, such as EmptyProjection or UnionNotSupported) and, where
// the resolver can suggest one, a qualified alternative.
type Error struct {
	Kind       Kind
	Path       string
	Suggestion string
	Detail     string
	Wrapped    error
}

// Error renders a user-facing message including the offending path and,
// when present, a suggested qualified alternative.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Path)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Unwrap exposes any wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a sentinel for e's Kind, so callers can write
// errors.Is(err, cqnerr.ErrUnknownName) without importing the Kind constant.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*Error)
	if !ok {
		return false
	}
	return sentinel.Kind != "" && sentinel.Path == "" && sentinel.Kind == e.Kind
}

// New constructs an *Error for kind at path, with an optional detail message.
func New(kind Kind, path string, detail string) *Error {
	return &Error{Kind: kind, Path: path, Detail: detail}
}

// WithSuggestion attaches a suggested qualified alternative to e and returns e.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// Wrap constructs an *Error for kind at path, wrapping cause.
func Wrap(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Wrapped: cause}
}

// sentinel builds a zero-Path *Error usable only with errors.Is via Error.Is.
func sentinel(k Kind) *Error { return &Error{Kind: k} }

// Sentinels for each Kind, for errors.Is(err, cqnerr.ErrX) style checks.
var (
	ErrUnknownName                      = sentinel(UnknownName)
	ErrAmbiguousName                    = sentinel(AmbiguousName)
	ErrFilterOnNonAssoc                 = sentinel(FilterOnNonAssoc)
	ErrUnmanagedInInfixFilter           = sentinel(UnmanagedInInfixFilter)
	ErrNonFkInInfixFilter               = sentinel(NonFkInInfixFilter)
	ErrFilterWithoutNavigation          = sentinel(FilterWithoutNavigation)
	ErrDuplicateAlias                   = sentinel(DuplicateAlias)
	ErrDuplicateElement                 = sentinel(DuplicateElement)
	ErrEmptyProjection                  = sentinel(EmptyProjection)
	ErrUnionNotSupported                = sentinel(UnionNotSupported)
	ErrUnsupportedStructuralComparison  = sentinel(UnsupportedStructuralComparison)
	ErrStructuralShapeMismatch          = sentinel(StructuralShapeMismatch)
	ErrCannotCompareStructWithValue     = sentinel(CannotCompareStructWithValue)
	ErrAmbiguousOrderBy                 = sentinel(AmbiguousOrderBy)
	ErrAssocInExpression                = sentinel(AssocInExpression)
	ErrStructInExpression               = sentinel(StructInExpression)
	ErrAmbiguousWildcard                = sentinel(AmbiguousWildcard)
	ErrExpectingAlias                   = sentinel(ExpectingAlias)
)

// Is reports whether err is a *cqnerr.Error of the given kind, unwrapping
// through any wrapper chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err if it is a *cqnerr.Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
