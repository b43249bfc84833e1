package types

import (
	"time"

	"github.com/google/uuid"
)

// NodeID identifies a record in the hierarchy.
// String alias enables type safety while maintaining JSON string serialization.
type NodeID string

// TagID identifies a tag. Rule matching is by identifier only; names are
// resolved separately for display.
type TagID string

// RuleID identifies a stored rule.
type RuleID string

// UserID identifies the owner of a record scope.
type UserID string

// NewNodeID generates a UUIDv7 node identifier.
// Time-ordered IDs cluster sequential inserts in B-tree pages and give the
// repository a natural creation order. Panics on clock regression
// (uuid.Must); acceptable for ID generation.
func NewNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()).String())
}

// NewTagID generates a UUIDv7 tag identifier.
func NewTagID() TagID {
	return TagID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// ParseNodeID validates and converts a string to NodeID.
// Rejects malformed UUIDs before they enter the system.
func ParseNodeID(s string) (NodeID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return NodeID(s), nil
}

// ParseTagID validates and converts a string to TagID.
func ParseTagID(s string) (TagID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return TagID(s), nil
}

// ParseRuleID validates and converts a string to RuleID.
func ParseRuleID(s string) (RuleID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return RuleID(s), nil
}

// ParseUserID validates and converts a string to UserID.
func ParseUserID(s string) (UserID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return UserID(s), nil
}

// NodeIDTime extracts the timestamp embedded in a UUIDv7 node ID.
// Enables creation-time ordering without a database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func NodeIDTime(id NodeID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
