package canvas

import (
	"context"
	"fmt"
	"strings"
)

// Param describes one argument a tool accepts. The metadata doubles as the
// schema advertised to the model inside plan and step prompts.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolSpec describes one entry of the fixed tool catalogue.
type ToolSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params,omitempty"`
}

var courseIDParam = Param{Name: "course_id", Type: "integer", Description: "Numeric course id", Required: true}

// catalogue is the closed tool vocabulary. The same table drives prompt
// text and dispatch; adding a tool means adding a row here plus a case in
// Execute.
var catalogue = []ToolSpec{
	{Name: "get_courses", Description: "List the user's favorite courses with their ids and names."},
	{Name: "get_all_courses", Description: "List every active course enrollment, including non-favorites."},
	{Name: "get_assignments", Description: "List all assignments for a course.", Params: []Param{courseIDParam}},
	{Name: "get_assignment_details", Description: "Get name, due date, points, and description for one assignment.", Params: []Param{courseIDParam, {Name: "assignment_id", Type: "integer", Description: "Numeric assignment id", Required: true}}},
	{Name: "get_announcements", Description: "List recent announcements for a course.", Params: []Param{courseIDParam}},
	{Name: "get_submission", Description: "Get the user's submission state, score, and grade for an assignment.", Params: []Param{courseIDParam, {Name: "assignment_id", Type: "integer", Description: "Numeric assignment id", Required: true}}},
	{Name: "get_course_files", Description: "List the files attached to a course.", Params: []Param{courseIDParam}},
	{Name: "get_people_in_course", Description: "List students, TAs, and professors enrolled in a course.", Params: []Param{courseIDParam}},
	{Name: "get_todo_list", Description: "List unsubmitted assignments across all favorite courses sorted by due date."},
	{Name: "get_unsubmitted_assignments", Description: "List unsubmitted assignments for one course sorted by due date.", Params: []Param{courseIDParam}},
	{Name: "get_assignments_with_grades", Description: "List every assignment of a course with the user's grade and score.", Params: []Param{courseIDParam}},
	{Name: "get_course_grade", Description: "Compute the overall weighted course grade with a per-group breakdown.", Params: []Param{courseIDParam}},
	{Name: "get_course_modules", Description: "List all modules of a course.", Params: []Param{courseIDParam}},
	{Name: "get_module_description", Description: "Get the description of one course module.", Params: []Param{courseIDParam, {Name: "module_id", Type: "integer", Description: "Numeric module id", Required: true}}},
	{Name: "get_course_syllabus", Description: "Get the course syllabus as plain text.", Params: []Param{courseIDParam}},
}

// Catalogue returns the fixed tool vocabulary.
func Catalogue() []ToolSpec {
	specs := make([]ToolSpec, len(catalogue))
	copy(specs, catalogue)
	return specs
}

// PromptCatalogue renders the catalogue as the tool listing embedded in
// model prompts.
func PromptCatalogue() string {
	var b strings.Builder
	for _, spec := range catalogue {
		b.WriteString("- ")
		b.WriteString(spec.Name)
		if len(spec.Params) > 0 {
			names := make([]string, len(spec.Params))
			for i, p := range spec.Params {
				names[i] = p.Name
			}
			fmt.Fprintf(&b, "(%s)", strings.Join(names, ", "))
		} else {
			b.WriteString("()")
		}
		b.WriteString(": ")
		b.WriteString(spec.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// Execute dispatches one named tool call. Unknown tool names and missing or
// non-numeric identifier parameters are terminal errors for the call; the
// orchestration layer converts them into structured error values.
func (c *Client) Execute(ctx context.Context, tool string, params map[string]any) (any, error) {
	switch tool {
	case "get_courses":
		return c.Courses(ctx)
	case "get_all_courses":
		return c.AllCourses(ctx)
	case "get_assignments":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.Assignments(ctx, courseID)
	case "get_assignment_details":
		courseID, assignmentID, err := intParams(params, "course_id", "assignment_id")
		if err != nil {
			return nil, err
		}
		return c.AssignmentDetails(ctx, courseID, assignmentID)
	case "get_announcements":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.Announcements(ctx, courseID)
	case "get_submission":
		courseID, assignmentID, err := intParams(params, "course_id", "assignment_id")
		if err != nil {
			return nil, err
		}
		return c.Submission(ctx, courseID, assignmentID)
	case "get_course_files":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.Files(ctx, courseID)
	case "get_people_in_course":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.People(ctx, courseID)
	case "get_todo_list":
		return c.TodoList(ctx)
	case "get_unsubmitted_assignments":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.UnsubmittedAssignments(ctx, courseID)
	case "get_assignments_with_grades":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.AssignmentsWithGrades(ctx, courseID)
	case "get_course_grade":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.CourseGrade(ctx, courseID)
	case "get_course_modules":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.Modules(ctx, courseID)
	case "get_module_description":
		courseID, moduleID, err := intParams(params, "course_id", "module_id")
		if err != nil {
			return nil, err
		}
		return c.ModuleDescription(ctx, courseID, moduleID)
	case "get_course_syllabus":
		courseID, err := intParam(params, "course_id")
		if err != nil {
			return nil, err
		}
		return c.Syllabus(ctx, courseID)
	default:
		return nil, fmt.Errorf("unknown tool: %s", tool)
	}
}

func intParam(params map[string]any, name string) (int64, error) {
	value, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing required parameter %s", name)
	}
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
			return 0, fmt.Errorf("parameter %s is not numeric: %q", name, v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("parameter %s has unsupported type %T", name, value)
	}
}

func intParams(params map[string]any, first, second string) (int64, int64, error) {
	a, err := intParam(params, first)
	if err != nil {
		return 0, 0, err
	}
	b, err := intParam(params, second)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
