// internal/rules/operators.go
package rules

import (
	"strings"

	"github.com/fastgtd/smartfolder/internal/types"
)

/*
 * Non-date comparison logic.
 *
 * Implements membership, text, tag-set and parent comparisons over a single
 * record. All functions are total over compiled conditions: they return a
 * boolean for every validated input and never error.
 *
 * Why function-based: a handful of comparison families with minimal
 * behavior variation reads cleaner as plain functions dispatched by the
 * evaluation switch than as interface implementations.
 */

// matchMembership applies in/not_in over a compiled string set.
func matchMembership(op Operator, value string, set map[string]struct{}) bool {
	_, member := set[value]
	if op == OpNotIn {
		return !member
	}
	return member
}

// matchTitle applies the title operators, case-sensitive.
func matchTitle(op Operator, title, operand string) bool {
	switch op {
	case OpContains:
		return strings.Contains(title, operand)
	case OpNotContains:
		return !strings.Contains(title, operand)
	case OpEquals:
		return title == operand
	case OpStartsWith:
		return strings.HasPrefix(title, operand)
	case OpEndsWith:
		return strings.HasSuffix(title, operand)
	}
	return false
}

// matchTags applies the tag set operators. Matching is by identifier:
// a value UUID that resolves to no tag can never be in a record's tag set,
// so it degrades to non-matching (any/all) or trivially-satisfied (none)
// without being an error.
func matchTags(op Operator, node *types.Node, want map[types.TagID]struct{}) bool {
	switch op {
	case OpAny:
		for id := range want {
			if node.HasTag(id) {
				return true
			}
		}
		return false
	case OpAll:
		for id := range want {
			if !node.HasTag(id) {
				return false
			}
		}
		return true
	case OpNone:
		for id := range want {
			if node.HasTag(id) {
				return false
			}
		}
		return true
	}
	return false
}

// matchParent applies the parent_node operators. The compiled MatchesRoot
// flag stands in for the wire literal "null": a record with no parent
// compares equal to it.
func matchParent(cc *CompiledCondition, node *types.Node) bool {
	var member bool
	if node.Root() {
		member = cc.MatchesRoot
	} else {
		_, member = cc.Parents[node.ParentID]
	}
	switch cc.Operator {
	case OpEquals, OpIn:
		return member
	case OpNotEquals, OpNotIn:
		return !member
	}
	return false
}

// matchAncestor reports whether the record descends from any operand.
func matchAncestor(cc *CompiledCondition, node *types.Node, env Env) bool {
	if env == nil {
		return false
	}
	for _, ancestor := range cc.Ancestors {
		if env.IsDescendant(node.ID, ancestor) {
			return true
		}
	}
	return false
}
