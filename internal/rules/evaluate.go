// internal/rules/evaluate.go
package rules

import (
	"time"

	"github.com/fastgtd/smartfolder/internal/types"
)

/*
 * Rule evaluation.
 *
 * Evaluates a CompiledRule against a single record: the combinator folds
 * per-condition results under AND/OR with short-circuiting, and each
 * condition kind dispatches to its comparison family. Evaluation is pure
 * computation over the record plus a read-only tree projection - no I/O,
 * no mutation, no shared state - so any number of evaluations may run
 * concurrently without coordination.
 *
 * Combinator semantics:
 *   - empty conditions match nothing, under both AND and OR (a smart
 *     folder with no conditions is explicitly empty, not "everything")
 *   - AND short-circuits on the first false, OR on the first true
 *
 * Task-only kinds (task_status, task_priority, due_date, earliest_start)
 * evaluate to false against non-task records, never error. This lets rules
 * mix type guards with task tests and rely on natural short-circuiting.
 */

// Env provides O(1) tree-shape lookups during evaluation. The repository
// materializes it once per scope; per-record evaluation never goes back to
// the store.
type Env interface {
	// ChildCount returns the number of direct children of a record.
	ChildCount(id types.NodeID) int
	// IsDescendant reports whether id sits anywhere under ancestor.
	IsDescendant(id, ancestor types.NodeID) bool
}

// EvalContext carries the per-evaluation collaborators: the tree projection
// and the reference instant for relative date operators.
type EvalContext struct {
	Env Env
	Now time.Time
}

// EvaluateRule applies the full rule to one record.
func EvaluateRule(rule *CompiledRule, node *types.Node, ec EvalContext) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	switch rule.Logic {
	case types.LogicAnd:
		for i := range rule.Conditions {
			if !evaluateCondition(&rule.Conditions[i], node, ec) {
				return false
			}
		}
		return true
	case types.LogicOr:
		for i := range rule.Conditions {
			if evaluateCondition(&rule.Conditions[i], node, ec) {
				return true
			}
		}
		return false
	}
	return false
}

// evaluateCondition dispatches one condition to its comparison family.
// The switch covers every compiled kind; compilation guarantees no other
// kind reaches evaluation.
func evaluateCondition(cc *CompiledCondition, node *types.Node, ec EvalContext) bool {
	switch cc.Kind {
	case KindNodeType:
		return matchMembership(cc.Operator, string(node.Type), cc.Members)
	case KindTaskStatus:
		if node.Task == nil {
			return false
		}
		return matchMembership(cc.Operator, string(node.Task.Status), cc.Members)
	case KindTaskPriority:
		if node.Task == nil {
			return false
		}
		return matchMembership(cc.Operator, string(node.Task.Priority), cc.Members)
	case KindTitle:
		return matchTitle(cc.Operator, node.Title, cc.Text)
	case KindDueDate:
		if node.Task == nil {
			return false
		}
		return matchDate(cc, node.Task.DueAt, ec.Now)
	case KindEarliestStart:
		if node.Task == nil {
			return false
		}
		return matchDate(cc, node.Task.EarliestStartAt, ec.Now)
	case KindTagContains:
		return matchTags(cc.Operator, node, cc.TagIDs)
	case KindParentNode:
		return matchParent(cc, node)
	case KindParentAncestor:
		return matchAncestor(cc, node, ec.Env)
	case KindHasChildren:
		if ec.Env == nil {
			return false
		}
		return (ec.Env.ChildCount(node.ID) > 0) == cc.Bool
	case KindSavedFilter:
		if cc.Sub == nil {
			return false // unresolved reference matches nothing
		}
		return EvaluateRule(cc.Sub, node, ec)
	}
	return false
}
