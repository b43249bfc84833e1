// internal/rules/compile.go
package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/fastgtd/smartfolder/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles types.RuleData to CompiledRule with pre-parsed typed operands.
 * Compilation is the validation step: every structural and semantic check
 * happens here, once, before any record is evaluated. A rule that compiles
 * evaluates totally - no operator can fail on a validated condition, which
 * rules out partial result sets from a scan that dies halfway through.
 *
 * Compilation workflow:
 *   1. Check logic is exactly "AND" or "OR" (case-sensitive)
 *   2. Per condition: known kind, operator legal for kind, value arity
 *   3. Parse values into typed operands (dates, UUID sets, booleans, days)
 *   4. Resolve saved_filter references and inline the referenced rules
 *
 * Condition kinds form a closed set. An unknown kind or an unknown
 * (kind, operator) pair is a validation error naming the condition index,
 * never a silent no-op: silently dropping an unrecognized condition would
 * widen the folder's contents without any visible fault.
 *
 * Saved filters: a condition may reference another stored rule. References
 * resolve at compile time through a RuleResolver and the referenced rule is
 * inlined as a sub-rule, so evaluation stays pure. Recursion is capped at
 * MaxSavedFilterDepth, which also catches reference cycles. A reference to
 * a missing rule compiles to a match-nothing condition (the record set must
 * not silently widen when a rule disappears).
 */

// Kind identifies which record attribute a condition inspects.
type Kind int

const (
	KindUnspecified Kind = iota
	KindNodeType
	KindTaskStatus
	KindTaskPriority
	KindTitle
	KindDueDate
	KindEarliestStart
	KindTagContains
	KindParentNode
	KindParentAncestor
	KindHasChildren
	KindSavedFilter
)

// Operator is the comparison applied by a condition. One enum covers all
// kinds; kindOperators constrains which operators each kind accepts.
type Operator int

const (
	OpUnspecified Operator = iota

	// membership
	OpIn
	OpNotIn

	// text
	OpContains
	OpNotContains
	OpEquals
	OpNotEquals
	OpStartsWith
	OpEndsWith

	// tag sets
	OpAny
	OpAll
	OpNone

	// absolute dates
	OpBefore
	OpAfter
	OpOn
	OpBetween
	OpIsNull
	OpIsNotNull

	// relative dates, zero-valued
	OpIsToday
	OpYesterday
	OpTomorrow
	OpIsOverdue
	OpThisWeek
	OpNextWeek
	OpThisMonth

	// relative dates, day-parameterized
	OpOverdueByDays
	OpOverdueByMoreThan
	OpOverdueByLessThan
	OpDueInDays
	OpDueWithinDays
	OpDueInMoreThanDays
	OpWithinLastDays
	OpMoreThanDaysAgo
	OpExactlyDaysAgo
	OpWithinNextDays
)

// kindNames maps wire condition type strings to kinds.
var kindNames = map[string]Kind{
	"node_type":       KindNodeType,
	"task_status":     KindTaskStatus,
	"task_priority":   KindTaskPriority,
	"title_contains":  KindTitle,
	"due_date":        KindDueDate,
	"earliest_start":  KindEarliestStart,
	"tag_contains":    KindTagContains,
	"parent_node":     KindParentNode,
	"parent_ancestor": KindParentAncestor,
	"has_children":    KindHasChildren,
	"saved_filter":    KindSavedFilter,
}

var membershipOperators = map[string]Operator{
	"in":     OpIn,
	"not_in": OpNotIn,
}

// startDateOperators applies to earliest_start. The overdue family is
// excluded: only a due date can be overdue.
var startDateOperators = map[string]Operator{
	"before":                OpBefore,
	"after":                 OpAfter,
	"on":                    OpOn,
	"between":               OpBetween,
	"is_null":               OpIsNull,
	"is_not_null":           OpIsNotNull,
	"is_today":              OpIsToday,
	"yesterday":             OpYesterday,
	"tomorrow":              OpTomorrow,
	"this_week":             OpThisWeek,
	"next_week":             OpNextWeek,
	"this_month":            OpThisMonth,
	"due_in_days":           OpDueInDays,
	"due_within_days":       OpDueWithinDays,
	"due_in_more_than_days": OpDueInMoreThanDays,
	"within_last_days":      OpWithinLastDays,
	"more_than_days_ago":    OpMoreThanDaysAgo,
	"exactly_days_ago":      OpExactlyDaysAgo,
	"within_next_days":      OpWithinNextDays,
}

// dueDateOperators is startDateOperators plus the overdue family.
var dueDateOperators = func() map[string]Operator {
	ops := make(map[string]Operator, len(startDateOperators)+4)
	for name, op := range startDateOperators {
		ops[name] = op
	}
	ops["is_overdue"] = OpIsOverdue
	ops["overdue_by_days"] = OpOverdueByDays
	ops["overdue_by_more_than"] = OpOverdueByMoreThan
	ops["overdue_by_less_than"] = OpOverdueByLessThan
	return ops
}()

// kindOperators enumerates the complete legal operator surface per kind.
// No other (kind, operator) combination is accepted by the validator.
var kindOperators = map[Kind]map[string]Operator{
	KindNodeType:     membershipOperators,
	KindTaskStatus:   membershipOperators,
	KindTaskPriority: membershipOperators,
	KindTitle: {
		"contains":     OpContains,
		"not_contains": OpNotContains,
		"equals":       OpEquals,
		"starts_with":  OpStartsWith,
		"ends_with":    OpEndsWith,
	},
	KindDueDate:       dueDateOperators,
	KindEarliestStart: startDateOperators,
	KindTagContains: {
		"any":  OpAny,
		"all":  OpAll,
		"none": OpNone,
	},
	KindParentNode: {
		"equals":     OpEquals,
		"in":         OpIn,
		"not_equals": OpNotEquals,
		"not_in":     OpNotIn,
	},
	KindParentAncestor: {
		"equals": OpEquals,
		"in":     OpIn,
	},
	KindHasChildren: {
		"equals": OpEquals,
	},
	KindSavedFilter: {
		"equals": OpEquals,
	},
}

// CompiledCondition is a pre-parsed condition ready for evaluation.
// Operand fields are populated per kind; unused fields stay zero.
type CompiledCondition struct {
	Kind     Kind
	Operator Operator

	Members     map[string]struct{}        // node_type / task_status / task_priority sets
	Text        string                     // title operand
	TagIDs      map[types.TagID]struct{}   // tag_contains operand set
	Parents     map[types.NodeID]struct{}  // parent_node operand set
	MatchesRoot bool                       // parent_node values included the "null" literal
	Ancestors   []types.NodeID             // parent_ancestor operands, ordered
	Start       time.Time                  // absolute date operand (UTC midnight)
	End         time.Time                  // between upper bound (UTC midnight)
	Days        int                        // relative operator threshold
	Bool        bool                       // has_children operand
	Sub         *CompiledRule              // inlined saved_filter; nil = match nothing
}

// CompiledRule is a validated rule ready for evaluation.
type CompiledRule struct {
	Logic      types.Logic
	Conditions []CompiledCondition
}

// RuleResolver loads a referenced rule definition during compilation.
// Returning types.ErrRuleNotFound inlines a match-nothing condition; any
// other error aborts compilation (repository fault, not a validation fault).
type RuleResolver func(id types.RuleID) (*types.RuleData, error)

// CompileOptions carries compilation collaborators.
type CompileOptions struct {
	// Resolver resolves saved_filter references. Nil is valid: every
	// reference then compiles to match-nothing.
	Resolver RuleResolver

	depth int // saved_filter recursion depth, internal
}

// Compile validates a rule and pre-parses it for evaluation.
// All returned validation faults are *types.ValidationError.
func Compile(rule *types.RuleData, opts CompileOptions) (*CompiledRule, error) {
	if rule.Logic != types.LogicAnd && rule.Logic != types.LogicOr {
		return nil, &types.ValidationError{Index: -1, Field: "logic", Value: string(rule.Logic), Err: types.ErrInvalidLogic}
	}
	if len(rule.Conditions) > types.MaxConditions {
		return nil, &types.ValidationError{Index: -1, Field: "values", Err: types.ErrTooManyConditions}
	}

	compiled := &CompiledRule{
		Logic:      rule.Logic,
		Conditions: make([]CompiledCondition, 0, len(rule.Conditions)),
	}
	for i, cond := range rule.Conditions {
		cc, err := compileCondition(i, cond, opts)
		if err != nil {
			return nil, err
		}
		compiled.Conditions = append(compiled.Conditions, cc)
	}
	return compiled, nil
}

// compileCondition validates one condition and parses its operands.
func compileCondition(idx int, cond types.Condition, opts CompileOptions) (CompiledCondition, error) {
	kind, ok := kindNames[cond.Type]
	if !ok {
		return CompiledCondition{}, &types.ValidationError{Index: idx, Field: "type", Value: cond.Type, Err: types.ErrUnknownConditionType}
	}
	op, ok := kindOperators[kind][cond.Operator]
	if !ok {
		return CompiledCondition{}, &types.ValidationError{Index: idx, Field: "operator", Value: cond.Operator, Err: types.ErrUnknownOperator}
	}
	if len(cond.Values) > types.MaxValuesPerCondition {
		return CompiledCondition{}, &types.ValidationError{Index: idx, Field: "values", Err: types.ErrTooManyValues}
	}

	cc := CompiledCondition{Kind: kind, Operator: op}
	switch kind {
	case KindNodeType:
		return cc, compileEnumSet(idx, cond.Values, &cc, func(s string) bool {
			_, ok := types.ParseNodeType(s)
			return ok
		})
	case KindTaskStatus:
		return cc, compileEnumSet(idx, cond.Values, &cc, func(s string) bool {
			_, ok := types.ParseTaskStatus(s)
			return ok
		})
	case KindTaskPriority:
		return cc, compileEnumSet(idx, cond.Values, &cc, func(s string) bool {
			_, ok := types.ParseTaskPriority(s)
			return ok
		})
	case KindTitle:
		if len(cond.Values) != 1 {
			return cc, arityError(idx, cond.Values)
		}
		cc.Text = cond.Values[0]
		return cc, nil
	case KindDueDate, KindEarliestStart:
		return cc, compileDateCondition(idx, cond.Values, op, &cc)
	case KindTagContains:
		return cc, compileTagSet(idx, cond.Values, &cc)
	case KindParentNode:
		return cc, compileParentSet(idx, cond.Values, op, &cc)
	case KindParentAncestor:
		return cc, compileAncestors(idx, cond.Values, op, &cc)
	case KindHasChildren:
		if len(cond.Values) != 1 {
			return cc, arityError(idx, cond.Values)
		}
		b, err := parseBoolLiteral(cond.Values[0])
		if err != nil {
			return cc, &types.ValidationError{Index: idx, Field: "values", Value: cond.Values[0], Err: types.ErrMalformedBool}
		}
		cc.Bool = b
		return cc, nil
	case KindSavedFilter:
		return cc, compileSavedFilter(idx, cond.Values, &cc, opts)
	}
	// Unreachable: kindNames is the closed set handled above.
	return cc, &types.ValidationError{Index: idx, Field: "type", Value: cond.Type, Err: types.ErrUnknownConditionType}
}

// compileSavedFilter resolves a rule reference and inlines the referenced
// rule as a sub-rule, recursing with a depth cap.
func compileSavedFilter(idx int, values []string, cc *CompiledCondition, opts CompileOptions) error {
	if len(values) != 1 {
		return arityError(idx, values)
	}
	ruleID, err := types.ParseRuleID(values[0])
	if err != nil {
		return &types.ValidationError{Index: idx, Field: "values", Value: values[0], Err: types.ErrMalformedUUID}
	}
	if opts.depth >= types.MaxSavedFilterDepth {
		return &types.ValidationError{Index: idx, Field: "values", Value: values[0], Err: types.ErrSavedFilterTooDeep}
	}
	if opts.Resolver == nil {
		return nil // no resolver: reference stands, matches nothing
	}

	data, err := opts.Resolver(ruleID)
	if err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			return nil // missing rule matches nothing, never widens the result set
		}
		return fmt.Errorf("resolve saved filter %s: %w", ruleID, err)
	}

	subOpts := opts
	subOpts.depth = opts.depth + 1
	sub, err := Compile(data, subOpts)
	if err != nil {
		return err
	}
	cc.Sub = sub
	return nil
}

func arityError(idx int, values []string) error {
	return &types.ValidationError{
		Index: idx,
		Field: "values",
		Value: fmt.Sprintf("%d values", len(values)),
		Err:   types.ErrWrongArity,
	}
}
