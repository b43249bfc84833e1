// internal/rules/engine.go
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastgtd/smartfolder/internal/nodes"
	"github.com/fastgtd/smartfolder/internal/types"
)

/*
 * Smart folder evaluation orchestration.
 *
 * The Engine ties validation, candidate streaming and per-record evaluation
 * together. It is stateless per invocation: a call's inputs are the rule,
 * the owner scope and the repository's current view, so concurrent calls
 * need no coordination and an unchanged (rule, scope) pair always yields
 * the same matches in the same order.
 *
 * Ordering: matches come back in the repository's natural order. The
 * engine never re-sorts; callers wanting a different order apply it after
 * retrieval.
 *
 * Cancellation: candidate streaming stops as soon as the context is done
 * or the preview limit is reached. Per-record evaluation itself is bounded
 * pure computation and runs to completion for the record in hand.
 *
 * The clock is injectable. Relative date operators resolve against a
 * single reference instant captured once per call, so a scan that crosses
 * midnight still evaluates every record against the same "today".
 */

// Engine evaluates smart folder rules against an owner's record scope.
type Engine struct {
	repo  nodes.Repository
	rules nodes.RuleStore
	clock func() time.Time
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the reference-time source for relative date
// operators. Tests pin it to a fixed instant.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an engine over a node repository and rule store.
func NewEngine(repo nodes.Repository, rules nodes.RuleStore, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		rules: rules,
		clock: time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks a rule without evaluating it. Saved filter references are
// resolved through the rule store so broken reference chains surface here.
func (e *Engine) Validate(ctx context.Context, rule *types.RuleData) error {
	_, err := Compile(rule, CompileOptions{Resolver: e.resolverFor(ctx)})
	return err
}

// Preview validates the rule and returns the matching records in the
// owner's scope, truncated to limit. A non-positive limit means unlimited.
// An invalid rule returns the validation error and no records.
func (e *Engine) Preview(ctx context.Context, rule *types.RuleData, owner types.UserID, limit int) ([]types.Node, error) {
	compiled, err := Compile(rule, CompileOptions{Resolver: e.resolverFor(ctx)})
	if err != nil {
		return nil, err
	}
	if limit > types.MaxPreviewLimit {
		limit = types.MaxPreviewLimit
	}
	return e.collect(ctx, compiled, owner, "", limit)
}

// ContentsOf loads the rule a smart folder subscribes to and returns the
// folder's live contents: every matching record in the owner's scope,
// excluding the folder itself, with no limit.
func (e *Engine) ContentsOf(ctx context.Context, folderID types.NodeID) ([]types.Node, error) {
	rule, err := e.rules.RuleForFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	compiled, err := Compile(&rule.Data, CompileOptions{Resolver: e.resolverFor(ctx)})
	if err != nil {
		return nil, err
	}
	return e.collect(ctx, compiled, rule.OwnerID, folderID, 0)
}

// collect streams candidates and keeps the matches, preserving repository
// order. Templates never appear in smart folder results, and a folder
// never contains itself.
func (e *Engine) collect(ctx context.Context, compiled *CompiledRule, owner types.UserID, exclude types.NodeID, limit int) ([]types.Node, error) {
	proj, err := e.repo.Projection(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load scope projection: %w", err)
	}
	ec := EvalContext{Env: proj, Now: e.clock()}

	var matches []types.Node
	scanned := 0
	for node, err := range e.repo.ListCandidates(ctx, owner) {
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		scanned++
		if node.ID == exclude || node.Type == types.NodeTemplate {
			continue
		}
		if !EvaluateRule(compiled, &node, ec) {
			continue
		}
		matches = append(matches, node)
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.log.DebugContext(ctx, "smart folder evaluated",
		"owner", string(owner),
		"conditions", len(compiled.Conditions),
		"scanned", scanned,
		"matched", len(matches))
	return matches, nil
}

// resolverFor adapts the rule store to the compiler's resolver contract.
func (e *Engine) resolverFor(ctx context.Context) RuleResolver {
	if e.rules == nil {
		return nil
	}
	return func(id types.RuleID) (*types.RuleData, error) {
		r, err := e.rules.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &r.Data, nil
	}
}
