package nodes

import (
	"context"
	"iter"
	"maps"
	"sync"

	"github.com/fastgtd/smartfolder/internal/types"
)

// MemStore is an in-memory Repository and RuleStore. Used by tests and by
// the offline validate command; mirrors the SQL store's contracts,
// including natural insertion order for candidates.
type MemStore struct {
	mu          sync.RWMutex
	order       []types.NodeID
	nodes       map[types.NodeID]types.Node
	children    map[types.NodeID]int
	rules       map[types.RuleID]types.Rule
	folderRules map[types.NodeID]types.RuleID
	tags        map[types.TagID]string
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:       make(map[types.NodeID]types.Node),
		children:    make(map[types.NodeID]int),
		rules:       make(map[types.RuleID]types.Rule),
		folderRules: make(map[types.NodeID]types.RuleID),
		tags:        make(map[types.TagID]string),
	}
}

// PutNode inserts or replaces a node. First insertion fixes its position in
// the natural order. The tag set is copied; the caller keeps ownership of
// its map.
func (s *MemStore) PutNode(n types.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.Tags = maps.Clone(n.Tags)
	if prev, ok := s.nodes[n.ID]; ok {
		if prev.ParentID != "" {
			s.children[prev.ParentID]--
		}
	} else {
		s.order = append(s.order, n.ID)
	}
	if n.ParentID != "" {
		s.children[n.ParentID]++
	}
	s.nodes[n.ID] = n
}

// PutRule inserts or replaces a stored rule.
func (s *MemStore) PutRule(r types.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.RuleID] = r
}

// BindFolder subscribes a smart folder to a rule.
func (s *MemStore) BindFolder(folderID types.NodeID, ruleID types.RuleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folderRules[folderID] = ruleID
}

// PutTag registers a tag display name.
func (s *MemStore) PutTag(id types.TagID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[id] = name
}

// ListCandidates implements Repository. A snapshot is taken under the read
// lock, so a sequence observes a consistent point-in-time view even when
// writers run concurrently.
func (s *MemStore) ListCandidates(ctx context.Context, owner types.UserID) iter.Seq2[types.Node, error] {
	return func(yield func(types.Node, error) bool) {
		s.mu.RLock()
		snapshot := make([]types.Node, 0, len(s.order))
		for _, id := range s.order {
			n := s.nodes[id]
			if n.OwnerID != owner {
				continue
			}
			n.Tags = maps.Clone(n.Tags)
			snapshot = append(snapshot, n)
		}
		s.mu.RUnlock()

		for _, n := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(types.Node{}, err)
				return
			}
			if !yield(n, nil) {
				return
			}
		}
	}
}

// ChildCount implements Repository.
func (s *MemStore) ChildCount(ctx context.Context, id types.NodeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.children[id], nil
}

// Projection implements Repository.
func (s *MemStore) Projection(ctx context.Context, owner types.UserID) (*Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parents := make(map[types.NodeID]types.NodeID)
	for id, n := range s.nodes {
		if n.OwnerID == owner && n.ParentID != "" {
			parents[id] = n.ParentID
		}
	}
	return NewProjection(parents), nil
}

// ResolveTag implements Repository.
func (s *MemStore) ResolveTag(ctx context.Context, id types.TagID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.tags[id]
	if !ok {
		return "", types.ErrTagNotFound
	}
	return name, nil
}

// Get implements RuleStore.
func (s *MemStore) Get(ctx context.Context, id types.RuleID) (*types.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, types.ErrRuleNotFound
	}
	return &r, nil
}

// RuleForFolder implements RuleStore.
func (s *MemStore) RuleForFolder(ctx context.Context, folderID types.NodeID) (*types.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[folderID]
	if !ok {
		return nil, types.ErrNodeNotFound
	}
	if n.Type != types.NodeSmartFolder {
		return nil, types.ErrNotSmartFolder
	}
	ruleID, ok := s.folderRules[folderID]
	if !ok {
		return nil, types.ErrRuleNotFound
	}
	r, ok := s.rules[ruleID]
	if !ok {
		return nil, types.ErrRuleNotFound
	}
	return &r, nil
}
