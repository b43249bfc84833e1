// internal/rules/values.go
package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/fastgtd/smartfolder/internal/types"
)

/*
 * Value model: typed parsing of condition operands.
 *
 * Wire values are always strings; compilation converts them once into the
 * typed forms evaluation works with:
 *   - enum sets (node types, statuses, priorities) validated against their
 *     closed sets
 *   - tag and node UUID sets (membership by identifier, never by name)
 *   - calendar dates (ISO-8601 date-only, normalized to UTC midnight)
 *   - boolean and day-count literals
 *
 * Dates are calendar dates, not instants: a record instant is truncated to
 * its UTC calendar day before comparison, so "on 2024-01-17" matches any
 * time of that day.
 */

// compileEnumSet parses a membership value list against a closed enum set.
// An empty list is valid: in matches nothing, not_in matches everything.
func compileEnumSet(idx int, values []string, cc *CompiledCondition, valid func(string) bool) error {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if !valid(v) {
			return &types.ValidationError{Index: idx, Field: "values", Value: v, Err: types.ErrUnknownValue}
		}
		set[v] = struct{}{}
	}
	cc.Members = set
	return nil
}

// compileTagSet parses tag UUID operands. Well-formedness is validated
// here; whether a tag actually exists is an evaluation concern (an
// unresolved tag simply never matches).
func compileTagSet(idx int, values []string, cc *CompiledCondition) error {
	set := make(map[types.TagID]struct{}, len(values))
	for _, v := range values {
		id, err := types.ParseTagID(v)
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: v, Err: types.ErrMalformedUUID}
		}
		set[id] = struct{}{}
	}
	cc.TagIDs = set
	return nil
}

// compileParentSet parses parent_node operands. The literal "null" denotes
// root-level records (no parent) and may appear alongside concrete UUIDs.
func compileParentSet(idx int, values []string, op Operator, cc *CompiledCondition) error {
	if (op == OpEquals || op == OpNotEquals) && len(values) != 1 {
		return arityError(idx, values)
	}
	set := make(map[types.NodeID]struct{}, len(values))
	for _, v := range values {
		if v == "null" {
			cc.MatchesRoot = true
			continue
		}
		id, err := types.ParseNodeID(v)
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: v, Err: types.ErrMalformedUUID}
		}
		set[id] = struct{}{}
	}
	cc.Parents = set
	return nil
}

// compileAncestors parses parent_ancestor operands.
func compileAncestors(idx int, values []string, op Operator, cc *CompiledCondition) error {
	if op == OpEquals && len(values) != 1 {
		return arityError(idx, values)
	}
	ancestors := make([]types.NodeID, 0, len(values))
	for _, v := range values {
		id, err := types.ParseNodeID(v)
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: v, Err: types.ErrMalformedUUID}
		}
		ancestors = append(ancestors, id)
	}
	cc.Ancestors = ancestors
	return nil
}

// compileDateCondition parses date operands per operator arity:
// absolute single-date operators take 1 value, between takes exactly 2,
// presence checks and zero-valued relative operators take 0, and
// day-parameterized relative operators take 1 day count.
// A between range with start after end is valid and matches nothing.
func compileDateCondition(idx int, values []string, op Operator, cc *CompiledCondition) error {
	switch op {
	case OpBefore, OpAfter, OpOn:
		if len(values) != 1 {
			return arityError(idx, values)
		}
		d, err := parseDate(values[0])
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: values[0], Err: types.ErrMalformedDate}
		}
		cc.Start = d
		return nil
	case OpBetween:
		if len(values) != 2 {
			return arityError(idx, values)
		}
		start, err := parseDate(values[0])
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: values[0], Err: types.ErrMalformedDate}
		}
		end, err := parseDate(values[1])
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: values[1], Err: types.ErrMalformedDate}
		}
		cc.Start, cc.End = start, end
		return nil
	case OpIsNull, OpIsNotNull,
		OpIsToday, OpYesterday, OpTomorrow, OpIsOverdue,
		OpThisWeek, OpNextWeek, OpThisMonth:
		if len(values) != 0 {
			return arityError(idx, values)
		}
		return nil
	default:
		// day-parameterized relative operators
		if len(values) != 1 {
			return arityError(idx, values)
		}
		days, err := parseDayCount(values[0])
		if err != nil {
			return &types.ValidationError{Index: idx, Field: "values", Value: values[0], Err: types.ErrMalformedDayCount}
		}
		cc.Days = days
		return nil
	}
}

// parseDate parses an ISO-8601 calendar date into UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// parseBoolLiteral recognizes the boolean spellings rule editors emit:
// true/1/yes and false/0/no, case-insensitive.
func parseBoolLiteral(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, types.ErrMalformedBool
}

// parseDayCount parses a non-negative whole day threshold.
func parseDayCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, types.ErrMalformedDayCount
	}
	return n, nil
}

// dateOf truncates an instant to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addDays shifts a calendar day by n days.
func addDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}
