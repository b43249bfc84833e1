// internal/rules/evaluate_test.go
package rules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fastgtd/smartfolder/internal/types"
)

// fakeEnv is a canned tree projection for condition tests.
type fakeEnv struct {
	childCounts map[types.NodeID]int
	descendants map[[2]types.NodeID]bool
}

func (e *fakeEnv) ChildCount(id types.NodeID) int {
	return e.childCounts[id]
}

func (e *fakeEnv) IsDescendant(id, ancestor types.NodeID) bool {
	return e.descendants[[2]types.NodeID{id, ancestor}]
}

func taskNode(id string, status types.TaskStatus, priority types.TaskPriority) types.Node {
	return types.Node{
		ID:    types.NodeID(id),
		Type:  types.NodeTask,
		Title: "task " + id,
		Task:  &types.TaskData{Status: status, Priority: priority},
	}
}

func mustCompile(t *testing.T, rule *types.RuleData) *CompiledRule {
	t.Helper()
	compiled, err := Compile(rule, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled
}

func TestEvaluateRule_EmptyConditionsMatchNothing(t *testing.T) {
	node := taskNode("t1", types.StatusTodo, types.PriorityUrgent)
	for _, logic := range []types.Logic{types.LogicAnd, types.LogicOr} {
		rule := mustCompile(t, &types.RuleData{Logic: logic})
		if EvaluateRule(rule, &node, EvalContext{Now: ref}) {
			t.Errorf("EvaluateRule(%s, no conditions) = true, want false", logic)
		}
	}
}

func TestEvaluateRule_Combinator(t *testing.T) {
	urgent := types.Condition{Type: "task_priority", Operator: "in", Values: []string{"urgent"}}
	todo := types.Condition{Type: "task_status", Operator: "in", Values: []string{"todo"}}

	urgentTodo := taskNode("t1", types.StatusTodo, types.PriorityUrgent)
	urgentDone := taskNode("t2", types.StatusDone, types.PriorityUrgent)
	lowDone := taskNode("t3", types.StatusDone, types.PriorityLow)

	tests := []struct {
		name  string
		logic types.Logic
		node  types.Node
		want  bool
	}{
		{"AND both true", types.LogicAnd, urgentTodo, true},
		{"AND one false", types.LogicAnd, urgentDone, false},
		{"AND both false", types.LogicAnd, lowDone, false},
		{"OR one true", types.LogicOr, urgentDone, true},
		{"OR both true", types.LogicOr, urgentTodo, true},
		{"OR both false", types.LogicOr, lowDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := mustCompile(t, &types.RuleData{Logic: tt.logic, Conditions: []types.Condition{urgent, todo}})
			if got := EvaluateRule(rule, &tt.node, EvalContext{Now: ref}); got != tt.want {
				t.Errorf("EvaluateRule() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateCondition_TaskKindsOnNonTasks(t *testing.T) {
	note := types.Node{ID: "n1", Type: types.NodeNote, Title: "meeting notes"}

	conditions := []types.Condition{
		{Type: "task_status", Operator: "in", Values: []string{"todo"}},
		{Type: "task_status", Operator: "not_in", Values: []string{"todo"}},
		{Type: "task_priority", Operator: "in", Values: []string{"urgent"}},
		{Type: "due_date", Operator: "is_null"},
		{Type: "earliest_start", Operator: "is_not_null"},
	}
	for _, cond := range conditions {
		rule := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{cond}})
		if EvaluateRule(rule, &note, EvalContext{Now: ref}) {
			t.Errorf("%s %s on a note = true, want false (task-only kind)", cond.Type, cond.Operator)
		}
	}
}

func TestEvaluateCondition_NodeType(t *testing.T) {
	folder := types.Node{ID: "f1", Type: types.NodeFolder, IsFolder: true, Title: "Projects"}

	in := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "node_type", Operator: "in", Values: []string{"folder", "note"}},
	}})
	if !EvaluateRule(in, &folder, EvalContext{Now: ref}) {
		t.Error("folder not matched by node_type in [folder, note]")
	}

	notIn := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "node_type", Operator: "not_in", Values: []string{"task"}},
	}})
	if !EvaluateRule(notIn, &folder, EvalContext{Now: ref}) {
		t.Error("folder not matched by node_type not_in [task]")
	}
}

func TestEvaluateCondition_EmptyMembershipSet(t *testing.T) {
	node := taskNode("t1", types.StatusTodo, types.PriorityLow)

	in := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "task_status", Operator: "in", Values: []string{}},
	}})
	if EvaluateRule(in, &node, EvalContext{Now: ref}) {
		t.Error("in over an empty set matched")
	}

	notIn := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "task_status", Operator: "not_in", Values: []string{}},
	}})
	if !EvaluateRule(notIn, &node, EvalContext{Now: ref}) {
		t.Error("not_in over an empty set did not match")
	}
}

func TestEvaluateCondition_Title(t *testing.T) {
	node := types.Node{ID: "n1", Type: types.NodeNote, Title: "Weekly Report Draft"}

	tests := []struct {
		operator string
		operand  string
		want     bool
	}{
		{"contains", "Report", true},
		{"contains", "report", false}, // case-sensitive
		{"not_contains", "Budget", true},
		{"not_contains", "Report", false},
		{"equals", "Weekly Report Draft", true},
		{"equals", "Weekly Report", false},
		{"starts_with", "Weekly", true},
		{"starts_with", "Report", false},
		{"ends_with", "Draft", true},
		{"ends_with", "Weekly", false},
	}
	for _, tt := range tests {
		rule := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
			{Type: "title_contains", Operator: tt.operator, Values: []string{tt.operand}},
		}})
		if got := EvaluateRule(rule, &node, EvalContext{Now: ref}); got != tt.want {
			t.Errorf("title %s %q = %v, want %v", tt.operator, tt.operand, got, tt.want)
		}
	}
}

func TestEvaluateCondition_Tags(t *testing.T) {
	node := types.Node{
		ID:   "n1",
		Type: types.NodeNote,
		Tags: map[types.TagID]struct{}{
			types.TagID(tagWork): {},
			types.TagID(tagHome): {},
		},
	}
	untagged := types.Node{ID: "n2", Type: types.NodeNote}

	tests := []struct {
		name     string
		operator string
		values   []string
		node     *types.Node
		want     bool
	}{
		{"any with one member", "any", []string{tagWork, tagMisc}, &node, true},
		{"any with no members", "any", []string{tagMisc}, &node, false},
		{"all satisfied", "all", []string{tagWork, tagHome}, &node, true},
		{"all with superset values", "all", []string{tagWork, tagHome, tagMisc}, &node, false},
		{"none satisfied", "none", []string{tagMisc}, &node, true},
		{"none violated", "none", []string{tagWork}, &node, false},
		{"any on untagged", "any", []string{tagWork}, &untagged, false},
		{"none on untagged", "none", []string{tagWork}, &untagged, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
				{Type: "tag_contains", Operator: tt.operator, Values: tt.values},
			}})
			if got := EvaluateRule(rule, tt.node, EvalContext{Now: ref}); got != tt.want {
				t.Errorf("tag %s %v = %v, want %v", tt.operator, tt.values, got, tt.want)
			}
		})
	}
}

func TestEvaluateCondition_Parent(t *testing.T) {
	child := types.Node{ID: "c1", ParentID: types.NodeID(parentA), Type: types.NodeTask, Task: &types.TaskData{}}
	root := types.Node{ID: "r1", Type: types.NodeNote}

	tests := []struct {
		name     string
		operator string
		values   []string
		node     *types.Node
		want     bool
	}{
		{"equals match", "equals", []string{parentA}, &child, true},
		{"equals miss", "equals", []string{parentB}, &child, false},
		{"in match", "in", []string{parentB, parentA}, &child, true},
		{"not_in", "not_in", []string{parentB}, &child, true},
		{"not_equals", "not_equals", []string{parentA}, &child, false},
		{"null literal matches root", "equals", []string{"null"}, &root, true},
		{"null literal rejects child", "equals", []string{"null"}, &child, false},
		{"root not in concrete set", "in", []string{parentA}, &root, false},
		{"root matches not_in concrete set", "not_in", []string{parentA}, &root, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
				{Type: "parent_node", Operator: tt.operator, Values: tt.values},
			}})
			if got := EvaluateRule(rule, tt.node, EvalContext{Now: ref}); got != tt.want {
				t.Errorf("parent %s %v = %v, want %v", tt.operator, tt.values, got, tt.want)
			}
		})
	}
}

func TestEvaluateCondition_Ancestor(t *testing.T) {
	env := &fakeEnv{descendants: map[[2]types.NodeID]bool{
		{"deep", types.NodeID(parentA)}: true,
	}}
	deep := types.Node{ID: "deep", Type: types.NodeNote}
	other := types.Node{ID: "other", Type: types.NodeNote}

	rule := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "parent_ancestor", Operator: "in", Values: []string{parentA, parentB}},
	}})

	if !EvaluateRule(rule, &deep, EvalContext{Env: env, Now: ref}) {
		t.Error("descendant not matched by parent_ancestor")
	}
	if EvaluateRule(rule, &other, EvalContext{Env: env, Now: ref}) {
		t.Error("non-descendant matched by parent_ancestor")
	}
	if EvaluateRule(rule, &deep, EvalContext{Now: ref}) {
		t.Error("parent_ancestor matched without an environment")
	}
}

func TestEvaluateCondition_HasChildren(t *testing.T) {
	env := &fakeEnv{childCounts: map[types.NodeID]int{"full": 3}}
	full := types.Node{ID: "full", Type: types.NodeFolder, IsFolder: true}
	empty := types.Node{ID: "empty", Type: types.NodeFolder, IsFolder: true}

	hasKids := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "has_children", Operator: "equals", Values: []string{"true"}},
	}})
	noKids := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "has_children", Operator: "equals", Values: []string{"false"}},
	}})

	ec := EvalContext{Env: env, Now: ref}
	if !EvaluateRule(hasKids, &full, ec) {
		t.Error("folder with children not matched by has_children=true")
	}
	if EvaluateRule(hasKids, &empty, ec) {
		t.Error("empty folder matched by has_children=true")
	}
	if !EvaluateRule(noKids, &empty, ec) {
		t.Error("empty folder not matched by has_children=false")
	}
}

func TestEvaluateCondition_SavedFilter(t *testing.T) {
	sub := mustCompile(t, &types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{
		{Type: "task_priority", Operator: "in", Values: []string{"urgent"}},
	}})
	rule := &CompiledRule{
		Logic: types.LogicAnd,
		Conditions: []CompiledCondition{
			{Kind: KindSavedFilter, Operator: OpEquals, Sub: sub},
		},
	}
	unresolved := &CompiledRule{
		Logic: types.LogicAnd,
		Conditions: []CompiledCondition{
			{Kind: KindSavedFilter, Operator: OpEquals},
		},
	}

	urgent := taskNode("t1", types.StatusTodo, types.PriorityUrgent)
	low := taskNode("t2", types.StatusTodo, types.PriorityLow)

	if !EvaluateRule(rule, &urgent, EvalContext{Now: ref}) {
		t.Error("inlined sub-rule did not match")
	}
	if EvaluateRule(rule, &low, EvalContext{Now: ref}) {
		t.Error("inlined sub-rule matched a non-urgent task")
	}
	if EvaluateRule(unresolved, &urgent, EvalContext{Now: ref}) {
		t.Error("unresolved reference matched, want match-nothing")
	}
}

// The urgent-todo scenario: AND over priority and status picks out exactly
// the records satisfying both.
func TestEvaluateRule_UrgentTodoScenario(t *testing.T) {
	rule := mustCompile(t, &types.RuleData{
		Logic: types.LogicAnd,
		Conditions: []types.Condition{
			{Type: "task_priority", Operator: "in", Values: []string{"urgent"}},
			{Type: "task_status", Operator: "in", Values: []string{"todo"}},
		},
	})

	records := []struct {
		node types.Node
		want bool
	}{
		{taskNode("t1", types.StatusTodo, types.PriorityUrgent), true},
		{taskNode("t2", types.StatusDone, types.PriorityUrgent), false},
		{taskNode("t3", types.StatusTodo, types.PriorityLow), false},
		{types.Node{ID: "n1", Type: types.NodeNote, Title: "urgent note"}, false},
	}
	for _, r := range records {
		if got := EvaluateRule(rule, &r.node, EvalContext{Now: ref}); got != r.want {
			t.Errorf("EvaluateRule(%s) = %v, want %v", r.node.ID, got, r.want)
		}
	}
}

func TestEvaluateCondition_DueDateBetweenWithNull(t *testing.T) {
	rule := mustCompile(t, &types.RuleData{
		Logic: types.LogicAnd,
		Conditions: []types.Condition{
			{Type: "due_date", Operator: "between", Values: []string{"2024-01-10", "2024-01-20"}},
		},
	})

	inside := taskNode("t1", types.StatusTodo, types.PriorityLow)
	inside.Task.DueAt = day(2024, 1, 15)
	outside := taskNode("t2", types.StatusTodo, types.PriorityLow)
	outside.Task.DueAt = day(2024, 2, 1)
	noDue := taskNode("t3", types.StatusTodo, types.PriorityLow)

	if !EvaluateRule(rule, &inside, EvalContext{Now: ref}) {
		t.Error("due date inside range not matched")
	}
	if EvaluateRule(rule, &outside, EvalContext{Now: ref}) {
		t.Error("due date outside range matched")
	}
	if EvaluateRule(rule, &noDue, EvalContext{Now: ref}) {
		t.Error("task without due date matched a between range")
	}
}

// Property: evaluation is deterministic - the same compiled rule against
// the same record always gives the same answer.
func TestEvaluateRule_PropertyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	statuses := []types.TaskStatus{types.StatusTodo, types.StatusInProgress, types.StatusDone, types.StatusDropped}
	priorities := []types.TaskPriority{types.PriorityLow, types.PriorityMedium, types.PriorityHigh, types.PriorityUrgent}

	rule := &types.RuleData{
		Logic: types.LogicOr,
		Conditions: []types.Condition{
			{Type: "task_priority", Operator: "in", Values: []string{"urgent", "high"}},
			{Type: "task_status", Operator: "in", Values: []string{"done"}},
		},
	}
	compiled, err := Compile(rule, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	properties.Property("repeated evaluation is stable", prop.ForAll(
		func(statusIdx, priorityIdx int) bool {
			node := taskNode("t", statuses[statusIdx], priorities[priorityIdx])
			ec := EvalContext{Now: ref}
			first := EvaluateRule(compiled, &node, ec)
			for i := 0; i < 5; i++ {
				if EvaluateRule(compiled, &node, ec) != first {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(statuses)-1),
		gen.IntRange(0, len(priorities)-1),
	))

	properties.TestingRun(t)
}

// Property: for a single condition, AND and OR agree - the combinator only
// diverges with two or more conditions.
func TestEvaluateRule_PropertySingleConditionLogicAgreement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	statuses := []string{"todo", "in_progress", "done", "dropped"}

	properties.Property("AND equals OR for one condition", prop.ForAll(
		func(wantIdx, haveIdx int) bool {
			cond := types.Condition{Type: "task_status", Operator: "in", Values: []string{statuses[wantIdx]}}
			node := taskNode("t", types.TaskStatus(statuses[haveIdx]), types.PriorityLow)

			andRule, err := Compile(&types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{cond}}, CompileOptions{})
			if err != nil {
				return false
			}
			orRule, err := Compile(&types.RuleData{Logic: types.LogicOr, Conditions: []types.Condition{cond}}, CompileOptions{})
			if err != nil {
				return false
			}
			ec := EvalContext{Now: ref}
			return EvaluateRule(andRule, &node, ec) == EvaluateRule(orRule, &node, ec)
		},
		gen.IntRange(0, len(statuses)-1),
		gen.IntRange(0, len(statuses)-1),
	))

	properties.TestingRun(t)
}

// Property: AND implies OR - any record matched under AND is matched under
// OR with the same conditions.
func TestEvaluateRule_PropertyAndImpliesOr(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	statuses := []types.TaskStatus{types.StatusTodo, types.StatusInProgress, types.StatusDone, types.StatusDropped}
	priorities := []types.TaskPriority{types.PriorityLow, types.PriorityMedium, types.PriorityHigh, types.PriorityUrgent}

	conditions := []types.Condition{
		{Type: "task_priority", Operator: "in", Values: []string{"urgent"}},
		{Type: "task_status", Operator: "in", Values: []string{"todo", "in_progress"}},
		{Type: "node_type", Operator: "in", Values: []string{"task"}},
	}
	andRule, err := Compile(&types.RuleData{Logic: types.LogicAnd, Conditions: conditions}, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	orRule, err := Compile(&types.RuleData{Logic: types.LogicOr, Conditions: conditions}, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	properties.Property("AND match implies OR match", prop.ForAll(
		func(statusIdx, priorityIdx int, dueOffset int, hasDue bool) bool {
			node := taskNode("t", statuses[statusIdx], priorities[priorityIdx])
			if hasDue {
				due := ref.AddDate(0, 0, dueOffset)
				node.Task.DueAt = &due
			}
			ec := EvalContext{Now: ref}
			if EvaluateRule(andRule, &node, ec) {
				return EvaluateRule(orRule, &node, ec)
			}
			return true
		},
		gen.IntRange(0, len(statuses)-1),
		gen.IntRange(0, len(priorities)-1),
		gen.IntRange(-30, 30),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
