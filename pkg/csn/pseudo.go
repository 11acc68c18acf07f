package csn

// Pseudo-namespace: a fixed mapping of reserved path roots to synthetic
// Definitions that short-circuit resolution. Any path rooted
// in one of these bypasses join-tree merging and table-alias prepending —
// it is rendered as-is, since it never corresponds to a physical join.

// PseudoUser is the root of the current-user pseudo path ($user.id, $user.locale, ...).
const PseudoUser = "$user"

// PseudoContext is the root of the session-context pseudo path ($session.context, ...).
const PseudoContext = "$session"

var pseudoRoots = map[string]*Definition{
	PseudoUser: {
		Kind: KindStructured,
		Name: PseudoUser,
		Elements: NewElements(
			&Definition{Kind: KindElement, Name: "id"},
			&Definition{Kind: KindElement, Name: "locale"},
			&Definition{Kind: KindElement, Name: "tenant"},
		),
	},
	PseudoContext: {
		Kind: KindStructured,
		Name: PseudoContext,
		Elements: NewElements(
			&Definition{Kind: KindElement, Name: "context"},
		),
	},
}

func init() {
	for _, def := range pseudoRoots {
		def.Elements.Each(func(_ string, child *Definition) bool {
			child.Parent = def
			return true
		})
	}
}

// LookupPseudo returns the synthetic Definition for a reserved path root, if
// name names one.
func LookupPseudo(name string) (*Definition, bool) {
	d, ok := pseudoRoots[name]
	return d, ok
}

// IsPseudo reports whether def (or one of its ancestors) is rooted in the
// pseudo-namespace.
func IsPseudo(def *Definition) bool {
	for d := def; d != nil; d = d.Parent {
		if _, ok := pseudoRoots[d.Name]; ok {
			return true
		}
	}
	return false
}
