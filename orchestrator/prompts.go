package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/canvaspilot/canvaspilot/canvas"
	"github.com/canvaspilot/canvaspilot/chat"
)

func planPrompt(query string) string {
	var b strings.Builder
	b.WriteString(`You are a study assistant for the Canvas learning platform. Decide how to answer the student's request.

Available tools:
`)
	b.WriteString(canvas.PromptCatalogue())
	b.WriteString(`
If the request needs Canvas data, respond with ONLY a JSON object:
{"steps": ["step description", ...]}
Each step should name the tool it relies on. Never invent numeric ids: when a step needs a course, assignment, or module id, an earlier step must discover it with a listing tool (get_courses, get_assignments, get_course_modules).

If the request needs no Canvas data, answer it directly in plain text with no JSON.

Student request: `)
	b.WriteString(query)
	return b.String()
}

func stepPrompt(query string, plan chat.Plan, index int, toolLog []chat.ToolLogEntry, stepLog []chat.StepLogEntry) string {
	var b strings.Builder
	b.WriteString(`You are executing one step of a plan for a Canvas study assistant.

Student request: `)
	b.WriteString(query)
	b.WriteString("\n\nPlan:\n")
	b.WriteString(plan.Describe())
	fmt.Fprintf(&b, "\nCurrent step: %d. %s\n", index+1, plan.Steps[index].Describe())

	b.WriteString("\nAvailable tools:\n")
	b.WriteString(canvas.PromptCatalogue())

	if len(toolLog) > 0 {
		b.WriteString("\nTool results so far:\n")
		for _, entry := range toolLog {
			result, err := json.Marshal(entry.Result)
			if err != nil {
				result = []byte(fmt.Sprintf("%v", entry.Result))
			}
			params, _ := json.Marshal(entry.Params)
			fmt.Fprintf(&b, "- %s %s -> %s\n", entry.Tool, params, result)
		}
	}
	if len(stepLog) > 0 {
		b.WriteString("\nCompleted steps:\n")
		for i, entry := range stepLog {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, entry.Step, entry.Output)
		}
	}

	b.WriteString(`
Respond with ONLY a JSON object, one of:
{"tool": "tool_name", "params": {...}}        to fetch data needed for this step
{"result": "findings for this step", "done": false}  when the step is complete
Set "done": true only when the entire request has been answered.
Use numeric ids exactly as they appear in tool results. Never fabricate an id; call a listing tool first if the id is unknown.`)
	return b.String()
}

func summaryPrompt(query string, stepLog []chat.StepLogEntry) string {
	var b strings.Builder
	b.WriteString(`You are a Canvas study assistant composing the final answer for a student.

Student request: `)
	b.WriteString(query)
	b.WriteString("\n\nCollected results:\n")
	for i, entry := range stepLog {
		fmt.Fprintf(&b, "%d. %s\n%s\n", i+1, entry.Step, entry.Output)
	}
	b.WriteString(`
Write the answer the student sees. Use prose for explanations, bullet lists for enumerations, and markdown tables for tabular data such as grades or due dates. Only state facts present in the collected results; if something is missing, say so. Answer the question yourself; do not tell the student to look it up in Canvas.`)
	return b.String()
}
