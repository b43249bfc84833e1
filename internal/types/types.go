// Package types provides domain models shared across smartfolder components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the engine packages stay free of storage concerns.
// ID utilities in ids.go import uuid but are isolated for selective inclusion.
//
// Separation from storage: row structs and SQL mapping live in
// internal/nodes. This package contains hand-written types for concepts the
// rule engine operates on (records, enums, rule wire format, error types).
package types

import "time"

// NodeType classifies a record in the hierarchy. Closed set: the rule
// engine switches exhaustively over these values.
type NodeType string

const (
	NodeTask        NodeType = "task"
	NodeNote        NodeType = "note"
	NodeFolder      NodeType = "folder"
	NodeSmartFolder NodeType = "smart_folder"
	NodeTemplate    NodeType = "template"
)

// ParseNodeType validates a string against the closed node type set.
func ParseNodeType(s string) (NodeType, bool) {
	switch NodeType(s) {
	case NodeTask, NodeNote, NodeFolder, NodeSmartFolder, NodeTemplate:
		return NodeType(s), true
	}
	return "", false
}

// TaskStatus is the lifecycle state of a task record.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusDropped    TaskStatus = "dropped"
)

// ParseTaskStatus validates a string against the closed status set.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusTodo, StatusInProgress, StatusDone, StatusDropped:
		return TaskStatus(s), true
	}
	return "", false
}

// TaskPriority is the scheduling priority of a task record.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ParseTaskPriority validates a string against the closed priority set.
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return TaskPriority(s), true
	}
	return "", false
}

// TaskData is the task-specific payload of a Node. Nil on non-task nodes.
type TaskData struct {
	Status          TaskStatus
	Priority        TaskPriority
	DueAt           *time.Time
	EarliestStartAt *time.Time
	CompletedAt     *time.Time
	Archived        bool
}

// Node is one record in the hierarchical store. The repository materializes
// the full shape (type payload, tag set, derived attributes) in one batch so
// rule evaluation never performs per-record round trips.
//
// IsFolder is derived by the repository from the storage representation
// (a note whose body equals a reserved sentinel). The engine only ever sees
// the boolean; the sentinel string does not leak past internal/nodes.
type Node struct {
	ID        NodeID
	OwnerID   UserID
	ParentID  NodeID // empty = root-level
	Type      NodeType
	Title     string
	SortOrder int
	IsFolder  bool
	Tags      map[TagID]struct{}
	Task      *TaskData // non-nil iff Type == NodeTask
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTag reports membership of a tag identifier in the node's tag set.
// Unknown identifiers simply report false; tag resolution is display-only.
func (n *Node) HasTag(id TagID) bool {
	_, ok := n.Tags[id]
	return ok
}

// Root reports whether the node has no parent.
func (n *Node) Root() bool {
	return n.ParentID == ""
}

// Resource limits enforced by the rule engine to keep evaluation bounded.
const (
	// MaxConditions caps conditions per rule; smart folder editors build
	// small rule trees, so 32 leaves ample headroom.
	MaxConditions = 32

	// MaxValuesPerCondition caps membership operator lists to prevent
	// quadratic comparison cost on large value sets.
	MaxValuesPerCondition = 64

	// MaxTreeDepth bounds ancestor walks. The hierarchy has no cycles by
	// contract, but corrupted parent links must not hang evaluation.
	MaxTreeDepth = 64

	// MaxSavedFilterDepth caps rule-reference recursion. Rules may
	// reference other rules; a reference chain deeper than this (or a
	// reference cycle) fails validation instead of recursing forever.
	MaxSavedFilterDepth = 8

	// DefaultPreviewLimit is the preview result cap when the caller does
	// not pass one explicitly.
	DefaultPreviewLimit = 10

	// MaxPreviewLimit caps caller-supplied preview limits.
	MaxPreviewLimit = 1000
)
