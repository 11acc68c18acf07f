package cqn

import (
	"fmt"
	"strings"

	"github.com/cdslang/cqnflat/pkg/csn"
)

// JoinTreeNode is one association traversal that must be materialized as a
// join or a where-exists subquery. Two references sharing the
// same canonical prefix share the same node, and thus the same Alias.
type JoinTreeNode struct {
	// Assoc is the association Definition this step traverses.
	Assoc *csn.Definition
	// SourceAlias is the alias of the row this step navigates from.
	SourceAlias string
	// Alias is this node's own, uniquely-assigned table alias.
	Alias string
	// Key is the canonical dotted path from the tree root, including any
	// inline-filter fingerprint, that identifies this node for deduplication.
	Key string
	// Filter is the inline filter attached to the step that produced this
	// node, if any; it participates in Key so two references at the same
	// step with different filters get distinct nodes.
	Filter Tokens

	Children []*JoinTreeNode
	parent   *JoinTreeNode
}

// Parent returns n's parent node, or nil for a root.
func (n *JoinTreeNode) Parent() *JoinTreeNode { return n.parent }

// JoinTree is the deduplicating forest of JoinTreeNodes built during
// inference. Traversal order is deterministic: insertion
// order at every level.
type JoinTree struct {
	roots    []*JoinTreeNode
	byKey    map[string]*JoinTreeNode
	aliasSeq map[string]int
}

// NewJoinTree returns an empty JoinTree.
func NewJoinTree() *JoinTree {
	return &JoinTree{byKey: map[string]*JoinTreeNode{}, aliasSeq: map[string]int{}}
}

// Roots enumerates top-level nodes in insertion order.
func (jt *JoinTree) Roots() []*JoinTreeNode { return jt.roots }

// Empty reports whether the tree has no nodes at all.
func (jt *JoinTree) Empty() bool { return jt == nil || len(jt.roots) == 0 }

// AddAlias returns a unique alias derived from shortID: shortID itself on
// first use, then shortID_2, shortID_3, ... on collision (a monotonic
// counter).
func (jt *JoinTree) AddAlias(shortID string) string {
	n, seen := jt.aliasSeq[shortID]
	if !seen {
		jt.aliasSeq[shortID] = 1
		return shortID
	}
	for {
		n++
		candidate := fmt.Sprintf("%s_%d", shortID, n)
		if _, taken := jt.aliasSeq[candidate]; !taken {
			jt.aliasSeq[shortID] = n
			jt.aliasSeq[candidate] = 1
			return candidate
		}
	}
}

// filterFingerprint renders a stable, order-preserving fingerprint of an
// inline filter for canonical-key purposes. It does not need to be valid
// SQL, only stable and distinguishing.
func filterFingerprint(filter Tokens) string {
	if len(filter) == 0 {
		return ""
	}
	var b strings.Builder
	var walk func(Tokens)
	walk = func(toks Tokens) {
		for _, t := range toks {
			switch t.Kind {
			case TokKeyword:
				b.WriteString(t.Keyword)
			case TokRef:
				b.WriteString(t.Ref.Dotted())
			case TokLiteral:
				fmt.Fprintf(&b, "%v", t.Literal.Val)
			case TokParam:
				b.WriteString("?" + t.Param.Name)
			case TokFunc:
				b.WriteString(t.Func.Name)
				b.WriteByte('(')
				walk(t.Func.Args)
				b.WriteByte(')')
			case TokXpr:
				b.WriteByte('(')
				walk(t.Xpr)
				b.WriteByte(')')
			case TokList:
				b.WriteByte('[')
				walk(t.List)
				b.WriteByte(']')
			case TokSubquery:
				b.WriteString("<subquery>")
			}
			b.WriteByte(';')
		}
	}
	walk(filter)
	return b.String()
}

// MergeStep inserts (or reuses) the node for one association step under
// parent (nil for a root step). assoc is the association Definition being
// traversed, stepName its short name, and filter its inline filter, if any.
// The canonical key is parentKey + "." + stepName [+ filter fingerprint], so
// two references sharing the same prefix and filter share the same node.
func (jt *JoinTree) MergeStep(parent *JoinTreeNode, assoc *csn.Definition, stepName string, filter Tokens, rootSourceAlias string) *JoinTreeNode {
	prefix := stepName
	if parent != nil {
		prefix = parent.Key + "." + stepName
	}
	key := prefix
	if fp := filterFingerprint(filter); fp != "" {
		key = prefix + "#" + fp
	}
	if existing, ok := jt.byKey[key]; ok {
		return existing
	}

	sourceAlias := rootSourceAlias
	if parent != nil {
		sourceAlias = parent.Alias
	}
	node := &JoinTreeNode{
		Assoc:       assoc,
		SourceAlias: sourceAlias,
		Alias:       jt.AddAlias(stepName),
		Key:         key,
		Filter:      filter,
		parent:      parent,
	}
	jt.byKey[key] = node
	if parent == nil {
		jt.roots = append(jt.roots, node)
	} else {
		parent.Children = append(parent.Children, node)
	}
	return node
}

// Lookup returns the node for an already-merged canonical key, if any.
func (jt *JoinTree) Lookup(key string) (*JoinTreeNode, bool) {
	n, ok := jt.byKey[key]
	return n, ok
}
