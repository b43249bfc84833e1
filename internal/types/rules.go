// internal/types/rules.go
package types

/*
 * Domain types for smart folder rule definitions.
 *
 * Provides Rule, RuleData and Condition structures consumed by
 * internal/rules for validation and evaluation. RuleData mirrors the JSON
 * wire format bit-exactly; a stored rule is the wire payload plus owning
 * metadata from the rules table.
 *
 * Key types:
 *   - Logic: AND/OR combinator selector (case-sensitive on the wire)
 *   - Condition: single typed test (kind, operator, ordered string values)
 *   - RuleData: logic plus ordered condition list
 *   - Rule: stored rule entity a smart folder subscribes to
 *
 * The engine never mutates these values; a rule is immutable once handed
 * to validation or evaluation.
 */

import "encoding/json"

// Logic selects how condition results combine across a rule.
// Only the exact strings "AND" and "OR" are valid.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition is one atomic test: a condition kind, an operator legal for
// that kind, and an ordered value list. Values is always a list on the
// wire, even for single-valued and zero-valued operators.
type Condition struct {
	Type     string   `json:"type"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// RuleData is the declarative filter owned by a smart folder.
// Matches the wire format: {"logic": "AND"|"OR", "conditions": [...]}.
type RuleData struct {
	Logic      Logic       `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// ParseRuleData decodes the rule wire format. Structural JSON faults are
// reported here; semantic validation is the rule compiler's job.
func ParseRuleData(raw []byte) (*RuleData, error) {
	var data RuleData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Rule is a stored, composable filter entity. Smart folders subscribe to a
// single rule; rules may reference other rules through saved_filter
// conditions.
type Rule struct {
	RuleID      RuleID
	OwnerID     UserID
	Name        string
	Description string
	Data        RuleData
}
