package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for smart folder operations.
var (
	// ErrInvalidLogic indicates a rule logic outside {AND, OR}.
	ErrInvalidLogic = errors.New("rule logic must be AND or OR")

	// ErrUnknownConditionType indicates a condition kind outside the closed set.
	ErrUnknownConditionType = errors.New("unknown condition type")

	// ErrUnknownOperator indicates an operator not legal for the condition kind.
	ErrUnknownOperator = errors.New("operator not valid for condition type")

	// ErrWrongArity indicates a values list whose length does not match the operator.
	ErrWrongArity = errors.New("wrong number of values for operator")

	// ErrMalformedDate indicates a date value that is not an ISO-8601 calendar date.
	ErrMalformedDate = errors.New("value is not an ISO-8601 calendar date")

	// ErrMalformedUUID indicates a value that is not a valid UUID literal.
	ErrMalformedUUID = errors.New("value is not a valid UUID")

	// ErrMalformedBool indicates a value that is not a recognized boolean literal.
	ErrMalformedBool = errors.New("value is not a boolean")

	// ErrMalformedDayCount indicates a day threshold that is not a whole non-negative number.
	ErrMalformedDayCount = errors.New("value is not a whole number of days")

	// ErrUnknownValue indicates a value outside the closed set for its condition kind.
	ErrUnknownValue = errors.New("value not in the legal set for condition type")

	// ErrTooManyConditions indicates a rule exceeding MaxConditions.
	ErrTooManyConditions = errors.New("rule has too many conditions")

	// ErrTooManyValues indicates a condition exceeding MaxValuesPerCondition.
	ErrTooManyValues = errors.New("condition has too many values")

	// ErrSavedFilterTooDeep indicates rule references nested past MaxSavedFilterDepth.
	ErrSavedFilterTooDeep = errors.New("saved filter references nested too deeply")

	// ErrRuleNotFound indicates a rule identifier that resolves to nothing.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrNodeNotFound indicates a node identifier that resolves to nothing.
	ErrNodeNotFound = errors.New("node not found")

	// ErrTagNotFound indicates a tag identifier that resolves to nothing.
	ErrTagNotFound = errors.New("tag not found")

	// ErrNotSmartFolder indicates contents were requested for a non-smart-folder node.
	ErrNotSmartFolder = errors.New("node is not a smart folder")
)

// ValidationError reports a structural or semantic fault in a rule,
// naming the offending condition and the specific violation. Validation
// happens once, eagerly, before any record is evaluated; a rule that fails
// validation is never partially evaluated.
type ValidationError struct {
	Index int    // condition index, -1 for rule-level faults
	Field string // "logic", "type", "operator" or "values"
	Value string // offending literal, empty when not value-specific
	Err   error  // one of the sentinel errors above
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("rule %s: %v", e.Field, e.Err)
	}
	if e.Value != "" {
		return fmt.Sprintf("condition %d %s %q: %v", e.Index, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("condition %d %s: %v", e.Index, e.Field, e.Err)
}

// Unwrap exposes the sentinel for errors.Is checks.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
