package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanStepDecodesBareString(t *testing.T) {
	var step PlanStep
	require.NoError(t, json.Unmarshal([]byte(`"Get the course list"`), &step))
	assert.Equal(t, "Get the course list", step.Description)
	assert.Empty(t, step.Tool)
}

func TestPlanStepDecodesToolObject(t *testing.T) {
	var step PlanStep
	raw := `{"tool": "get_assignments", "params": {"course_id": 42}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &step))
	assert.Equal(t, "get_assignments", step.Tool)
	assert.Equal(t, float64(42), step.Params["course_id"])
}

func TestPlanDecodesMixedSteps(t *testing.T) {
	var plan Plan
	raw := `{"steps": ["Find my courses", {"tool": "get_todo_list", "description": "Check upcoming work"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &plan))
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "Find my courses", plan.Steps[0].Describe())
	assert.Equal(t, "Check upcoming work", plan.Steps[1].Describe())
}

func TestPlanStepDescribeFallsBackToCall(t *testing.T) {
	step := PlanStep{Tool: "get_assignments", Params: map[string]any{"course_id": 7}}
	assert.Equal(t, `get_assignments {"course_id":7}`, step.Describe())

	assert.Equal(t, "get_courses", PlanStep{Tool: "get_courses"}.Describe())
	assert.Equal(t, "(empty step)", PlanStep{}.Describe())
}

func TestPlanDescribeNumbersSteps(t *testing.T) {
	plan := Plan{Steps: []PlanStep{
		{Description: "first"},
		{Description: "second"},
	}}
	assert.Equal(t, "1. first\n2. second\n", plan.Describe())
}

func TestRecentWindow(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: "c"},
	}
	assert.Equal(t, msgs, RecentWindow(msgs, 5))
	assert.Equal(t, msgs, RecentWindow(msgs, 0))
	assert.Equal(t, msgs[1:], RecentWindow(msgs, 2))
}

func TestLatestUserContent(t *testing.T) {
	req := Request{Messages: []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	}}
	assert.Equal(t, "second", req.LatestUserContent())

	assert.Empty(t, Request{}.LatestUserContent())
	assert.Empty(t, Request{Messages: []Message{{Role: RoleAssistant, Content: "x"}}}.LatestUserContent())
}
