package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastgtd/smartfolder/internal/core/db"
	"github.com/fastgtd/smartfolder/internal/types"
)

// folderBody is the reserved note body marking a note as a folder. This is
// a storage representation detail: the scan derives NodeFolder/IsFolder
// from it and the sentinel never crosses the repository boundary.
const folderBody = "Container folder"

// Store implements Repository and RuleStore over SQLite or PostgreSQL.
type Store struct {
	q *db.Queries
}

// NewStore loads the named queries and returns a store bound to the
// connection.
func NewStore(conn *sqlx.DB) (*Store, error) {
	q, err := db.LoadQueries(conn)
	if err != nil {
		return nil, err
	}
	return &Store{q: q}, nil
}

// nodeRow mirrors the list-candidates projection.
type nodeRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	ParentID  *string   `db:"parent_id"`
	NodeType  string    `db:"node_type"`
	Title     string    `db:"title"`
	SortOrder int       `db:"sort_order"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Body *string `db:"body"`

	Status          *string    `db:"status"`
	Priority        *string    `db:"priority"`
	DueAt           *time.Time `db:"due_at"`
	EarliestStartAt *time.Time `db:"earliest_start_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	Archived        *bool      `db:"archived"`
}

// toNode converts a row plus its batch-loaded tag set into the domain
// shape, deriving the folder representation.
func (r *nodeRow) toNode(tags map[types.TagID]struct{}) types.Node {
	n := types.Node{
		ID:        types.NodeID(r.ID),
		OwnerID:   types.UserID(r.OwnerID),
		Type:      types.NodeType(r.NodeType),
		Title:     r.Title,
		SortOrder: r.SortOrder,
		Tags:      tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if n.Tags == nil {
		n.Tags = map[types.TagID]struct{}{}
	}
	if r.ParentID != nil {
		n.ParentID = types.NodeID(*r.ParentID)
	}
	if n.Type == types.NodeNote && r.Body != nil && *r.Body == folderBody {
		n.Type = types.NodeFolder
		n.IsFolder = true
	}
	if n.Type == types.NodeTask {
		task := &types.TaskData{
			DueAt:           r.DueAt,
			EarliestStartAt: r.EarliestStartAt,
			CompletedAt:     r.CompletedAt,
		}
		if r.Status != nil {
			task.Status = types.TaskStatus(*r.Status)
		}
		if r.Priority != nil {
			task.Priority = types.TaskPriority(*r.Priority)
		}
		if r.Archived != nil {
			task.Archived = *r.Archived
		}
		n.Task = task
	}
	return n
}

// ListCandidates implements Repository. Tag memberships are batch-loaded
// up front, then node rows stream from a single joined query; no
// per-record round trips.
func (s *Store) ListCandidates(ctx context.Context, owner types.UserID) iter.Seq2[types.Node, error] {
	return func(yield func(types.Node, error) bool) {
		tags, err := s.tagsByNode(ctx, owner)
		if err != nil {
			yield(types.Node{}, fmt.Errorf("load tag memberships: %w", err))
			return
		}

		rows, err := s.q.Query(ctx, "list-candidates", string(owner))
		if err != nil {
			yield(types.Node{}, fmt.Errorf("list candidates: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row nodeRow
			if err := rows.StructScan(&row); err != nil {
				yield(types.Node{}, fmt.Errorf("scan candidate: %w", err))
				return
			}
			if !yield(row.toNode(tags[types.NodeID(row.ID)]), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(types.Node{}, err)
		}
	}
}

// tagsByNode loads every tag membership in the owner's scope in one query.
func (s *Store) tagsByNode(ctx context.Context, owner types.UserID) (map[types.NodeID]map[types.TagID]struct{}, error) {
	var memberships []struct {
		NodeID string `db:"node_id"`
		TagID  string `db:"tag_id"`
	}
	if err := s.q.Select(ctx, "list-node-tags", &memberships, string(owner)); err != nil {
		return nil, err
	}

	byNode := make(map[types.NodeID]map[types.TagID]struct{})
	for _, m := range memberships {
		id := types.NodeID(m.NodeID)
		if byNode[id] == nil {
			byNode[id] = make(map[types.TagID]struct{})
		}
		byNode[id][types.TagID(m.TagID)] = struct{}{}
	}
	return byNode, nil
}

// ChildCount implements Repository.
func (s *Store) ChildCount(ctx context.Context, id types.NodeID) (int, error) {
	var count int
	if err := s.q.Get(ctx, "child-count", &count, string(id)); err != nil {
		return 0, fmt.Errorf("count children of %s: %w", id, err)
	}
	return count, nil
}

// Projection implements Repository from a single parent-link query.
func (s *Store) Projection(ctx context.Context, owner types.UserID) (*Projection, error) {
	var links []struct {
		ID       string `db:"id"`
		ParentID string `db:"parent_id"`
	}
	if err := s.q.Select(ctx, "parent-links", &links, string(owner)); err != nil {
		return nil, fmt.Errorf("load parent links: %w", err)
	}

	parents := make(map[types.NodeID]types.NodeID, len(links))
	for _, l := range links {
		parents[types.NodeID(l.ID)] = types.NodeID(l.ParentID)
	}
	return NewProjection(parents), nil
}

// ResolveTag implements Repository.
func (s *Store) ResolveTag(ctx context.Context, id types.TagID) (string, error) {
	var name string
	err := s.q.Get(ctx, "resolve-tag", &name, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrTagNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve tag %s: %w", id, err)
	}
	return name, nil
}

// ruleRow mirrors the get-rule projection.
type ruleRow struct {
	ID          string  `db:"id"`
	OwnerID     string  `db:"owner_id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	RuleData    []byte  `db:"rule_data"`
}

// Get implements RuleStore. Stored rule payloads are opaque JSON in the
// rules table; structural faults in a stored payload surface as errors
// here, before validation.
func (s *Store) Get(ctx context.Context, id types.RuleID) (*types.Rule, error) {
	var row ruleRow
	err := s.q.Get(ctx, "get-rule", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load rule %s: %w", id, err)
	}

	data, err := types.ParseRuleData(row.RuleData)
	if err != nil {
		return nil, fmt.Errorf("decode rule %s payload: %w", id, err)
	}

	rule := &types.Rule{
		RuleID:  types.RuleID(row.ID),
		OwnerID: types.UserID(row.OwnerID),
		Name:    row.Name,
		Data:    *data,
	}
	if row.Description != nil {
		rule.Description = *row.Description
	}
	return rule, nil
}

// RuleForFolder implements RuleStore.
func (s *Store) RuleForFolder(ctx context.Context, folderID types.NodeID) (*types.Rule, error) {
	var row struct {
		NodeType string  `db:"node_type"`
		OwnerID  string  `db:"owner_id"`
		RuleID   *string `db:"rule_id"`
	}
	err := s.q.Get(ctx, "get-smart-folder", &row, string(folderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load smart folder %s: %w", folderID, err)
	}
	if types.NodeType(row.NodeType) != types.NodeSmartFolder {
		return nil, types.ErrNotSmartFolder
	}
	if row.RuleID == nil {
		return nil, types.ErrRuleNotFound
	}
	return s.Get(ctx, types.RuleID(*row.RuleID))
}
