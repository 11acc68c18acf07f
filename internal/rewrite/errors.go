package rewrite

import "github.com/cdslang/cqnflat/pkg/cqnerr"

func unknownNameErr(path string) error {
	return cqnerr.New(cqnerr.UnknownName, path, "not found in the model or query sources")
}

func unknownNameSuggestErr(path, suggestion string) error {
	return cqnerr.New(cqnerr.UnknownName, path, "not found").WithSuggestion(suggestion)
}

func ambiguousNameErr(path string, alternatives []string) error {
	detail := "resolves in multiple sources: "
	for i, a := range alternatives {
		if i > 0 {
			detail += ", "
		}
		detail += a
	}
	return cqnerr.New(cqnerr.AmbiguousName, path, detail)
}

func filterOnNonAssocErr(path string) error {
	return cqnerr.New(cqnerr.FilterOnNonAssoc, path, "inline filter on a non-association, non-entity step")
}

func unmanagedInInfixFilterErr(path string) error {
	return cqnerr.New(cqnerr.UnmanagedInInfixFilter, path, "unmanaged association traversed inside a non-exists infix filter")
}

func nonFkInInfixFilterErr(path string) error {
	return cqnerr.New(cqnerr.NonFkInInfixFilter, path, "navigation past foreign keys inside a non-exists infix filter")
}

func filterWithoutNavigationErr(path string) error {
	return cqnerr.New(cqnerr.FilterWithoutNavigation, path, "filter is not followed by exists or expand")
}

func dupAliasErr(alias string) error {
	return cqnerr.New(cqnerr.DuplicateAlias, alias, "two query sources share this alias")
}

func dupElementErr(name string) error {
	return cqnerr.New(cqnerr.DuplicateElement, name, "two output columns resolve to the same name")
}

func emptyProjectionErr() error {
	return cqnerr.New(cqnerr.EmptyProjection, "", "every column is virtual and no managed composition survives")
}

func unionNotSupportedErr() error {
	return cqnerr.New(cqnerr.UnionNotSupported, "", "SET/union queries are not supported")
}

func unsupportedStructuralComparisonErr(op string) error {
	return cqnerr.New(cqnerr.UnsupportedStructuralComparison, "", "operator "+op+" is not defined on structured operands")
}

func structuralShapeMismatchErr(unmatched []string) error {
	detail := "unmatched paths: "
	for i, p := range unmatched {
		if i > 0 {
			detail += ", "
		}
		detail += p
	}
	return cqnerr.New(cqnerr.StructuralShapeMismatch, "", detail)
}

func cannotCompareStructWithValueErr(path string) error {
	return cqnerr.New(cqnerr.CannotCompareStructWithValue, path, "structured operand compared to a non-null scalar")
}

func ambiguousOrderByErr(path string) error {
	return cqnerr.New(cqnerr.AmbiguousOrderBy, path, "expands to more than one column; ordering would be positional and unstable")
}

func assocInExpressionErr(path string) error {
	return cqnerr.New(cqnerr.AssocInExpression, path, "association used as a value outside a permitted position")
}

func structInExpressionErr(path string) error {
	return cqnerr.New(cqnerr.StructInExpression, path, "structured element used as a value outside a permitted position")
}

func ambiguousWildcardErr(name string, alternatives []string) error {
	detail := "produced by multiple sources: "
	for i, a := range alternatives {
		if i > 0 {
			detail += ", "
		}
		detail += a
	}
	return cqnerr.New(cqnerr.AmbiguousWildcard, name, detail)
}

func expectingAliasErr(path string) error {
	return cqnerr.New(cqnerr.ExpectingAlias, path, "expression or value column requires an explicit `as`")
}
