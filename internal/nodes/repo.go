// Package nodes provides read access to the record hierarchy for the rule
// engine: candidate streaming, tree-shape projections, tag resolution and
// stored-rule lookup.
//
// Two implementations ship: Store (sqlx over SQLite or PostgreSQL) and
// MemStore (in-memory, for tests and offline validation). Both uphold the
// same contracts: candidates stream in natural creation order with tag sets
// and task payloads batch-loaded, and projections give O(1) child-count and
// ancestor lookups so evaluation never performs per-record round trips.
//
// Multi-tenant isolation lives here, not in the engine: every read is
// bounded by an owner scope.
package nodes

import (
	"context"
	"iter"

	"github.com/fastgtd/smartfolder/internal/types"
)

// Repository supplies the candidate records a rule is evaluated against.
type Repository interface {
	// ListCandidates streams every record in the owner's scope in natural
	// order (creation order, ties broken by ID). The sequence is lazy and
	// finite, and stops early when the consumer does; each call re-pulls
	// from the store.
	ListCandidates(ctx context.Context, owner types.UserID) iter.Seq2[types.Node, error]

	// ChildCount returns the number of direct children of a record.
	ChildCount(ctx context.Context, id types.NodeID) (int, error)

	// Projection materializes the scope's tree shape once, for O(1)
	// child-count and ancestor lookups during evaluation.
	Projection(ctx context.Context, owner types.UserID) (*Projection, error)

	// ResolveTag returns the display name for a tag identifier, or
	// types.ErrTagNotFound. Rule matching never uses names; this exists
	// for presentation only.
	ResolveTag(ctx context.Context, id types.TagID) (string, error)
}

// RuleStore loads stored rule definitions.
type RuleStore interface {
	// Get returns a stored rule, or types.ErrRuleNotFound.
	Get(ctx context.Context, id types.RuleID) (*types.Rule, error)

	// RuleForFolder returns the rule a smart folder subscribes to.
	// Errors: types.ErrNodeNotFound, types.ErrNotSmartFolder, or
	// types.ErrRuleNotFound when no rule is bound.
	RuleForFolder(ctx context.Context, folderID types.NodeID) (*types.Rule, error)
}

// Projection is a point-in-time, read-only view of a scope's tree shape.
// Safe for concurrent use; never mutated after construction.
type Projection struct {
	children map[types.NodeID]int
	parents  map[types.NodeID]types.NodeID
}

// NewProjection builds a projection from parent links (child -> parent;
// root records are absent).
func NewProjection(parents map[types.NodeID]types.NodeID) *Projection {
	children := make(map[types.NodeID]int, len(parents))
	for _, parent := range parents {
		children[parent]++
	}
	return &Projection{children: children, parents: parents}
}

// ChildCount returns the number of direct children of a record.
func (p *Projection) ChildCount(id types.NodeID) int {
	return p.children[id]
}

// IsDescendant walks parent links from id looking for ancestor. The walk
// is depth-limited: the hierarchy has no cycles by contract, but a
// corrupted parent link must terminate, not hang.
func (p *Projection) IsDescendant(id, ancestor types.NodeID) bool {
	cur := id
	for depth := 0; depth < types.MaxTreeDepth; depth++ {
		parent, ok := p.parents[cur]
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		cur = parent
	}
	return false
}
