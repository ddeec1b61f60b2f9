package canvas

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"
)

type assignmentRecord struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	DueAt           string            `json:"due_at"`
	PointsPossible  *float64          `json:"points_possible"`
	HTMLURL         string            `json:"html_url"`
	SubmissionTypes []string          `json:"submission_types"`
	Submission      *submissionRecord `json:"submission"`
}

type submissionRecord struct {
	Score         *float64 `json:"score"`
	Grade         string   `json:"grade"`
	SubmittedAt   string   `json:"submitted_at"`
	WorkflowState string   `json:"workflow_state"`
	Late          bool     `json:"late"`
	Missing       bool     `json:"missing"`
}

// Assignments lists all assignments for a course.
func (c *Client) Assignments(ctx context.Context, courseID int64) (any, error) {
	var records []assignmentRecord
	path := fmt.Sprintf("/courses/%d/assignments", courseID)
	if err := c.get(ctx, path, nil, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, a := range records {
		result = append(result, map[string]any{
			"id":     a.ID,
			"name":   a.Name,
			"due_at": orNone(a.DueAt),
		})
	}
	return result, nil
}

// AssignmentDetails fetches one assignment with its description flattened
// to plain text.
func (c *Client) AssignmentDetails(ctx context.Context, courseID, assignmentID int64) (any, error) {
	var record assignmentRecord
	path := fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID)
	if err := c.get(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	description := StripHTML(record.Description)
	if description == "" {
		description = "No description provided."
	}
	points := 0.0
	if record.PointsPossible != nil {
		points = *record.PointsPossible
	}
	return map[string]any{
		"id":              record.ID,
		"name":            record.Name,
		"due_at":          orNone(record.DueAt),
		"points_possible": points,
		"description":     description,
		"html_url":        record.HTMLURL,
	}, nil
}

// Submission fetches the user's own submission for an assignment.
func (c *Client) Submission(ctx context.Context, courseID, assignmentID int64) (any, error) {
	var record submissionRecord
	path := fmt.Sprintf("/courses/%d/assignments/%d/submissions/self", courseID, assignmentID)
	if err := c.get(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	return map[string]any{
		"submitted":      record.SubmittedAt != "",
		"submitted_at":   orNone(record.SubmittedAt),
		"workflow_state": record.WorkflowState,
		"score":          record.Score,
		"grade":          orNone(record.Grade),
		"late":           record.Late,
		"missing":        record.Missing,
	}, nil
}

// UnsubmittedAssignments lists the unsubmitted assignments of one course
// sorted by due date, each annotated with a human-readable urgency status.
func (c *Client) UnsubmittedAssignments(ctx context.Context, courseID int64) (any, error) {
	records, err := c.unsubmitted(ctx, courseID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	due := make([]map[string]any, 0, len(records))
	for _, a := range records {
		dueAt, ok := parseDue(a.DueAt)
		if !ok {
			continue
		}
		days, status := DueStatus(now, dueAt)
		due = append(due, map[string]any{
			"assignment_id":   a.ID,
			"assignment_name": a.Name,
			"due_at":          a.DueAt,
			"days_until":      days,
			"status":          status,
			"html_url":        a.HTMLURL,
		})
	}
	sortByDays(due)
	return due, nil
}

// TodoList aggregates unsubmitted assignments across all favorite courses,
// sorted by how soon they are due.
func (c *Client) TodoList(ctx context.Context) (any, error) {
	var courses []courseRecord
	if err := c.get(ctx, "/users/self/favorites/courses", nil, &courses); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	due := make([]map[string]any, 0)
	for _, course := range courses {
		records, err := c.unsubmitted(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range records {
			dueAt, ok := parseDue(a.DueAt)
			if !ok {
				continue
			}
			days, status := DueStatus(now, dueAt)
			due = append(due, map[string]any{
				"course_name":     course.Name,
				"course_id":       course.ID,
				"assignment_id":   a.ID,
				"assignment_name": a.Name,
				"due_at":          dueAt.Local().Format("2006-01-02 15:04 MST"),
				"days_until":      days,
				"status":          status,
				"html_url":        a.HTMLURL,
			})
		}
	}
	sortByDays(due)
	return due, nil
}

func (c *Client) unsubmitted(ctx context.Context, courseID int64) ([]assignmentRecord, error) {
	query := url.Values{
		"bucket":    {"unsubmitted"},
		"include[]": {"submission"},
	}
	var records []assignmentRecord
	path := fmt.Sprintf("/courses/%d/assignments", courseID)
	if err := c.get(ctx, path, query, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DueStatus classifies a due date relative to now: Overdue!, Today!,
// Tomorrow!, or In N days. days is the whole number of days remaining and
// may be negative for overdue work.
func DueStatus(now, due time.Time) (int, string) {
	delta := due.Sub(now)
	// Floor, not truncate: 12 hours overdue is day -1, which keeps overdue
	// work sorted ahead of work due later today.
	days := int(math.Floor(delta.Hours() / 24))
	switch {
	case delta < 0:
		return days, "Overdue!"
	case days == 0:
		return days, "Today!"
	case days == 1:
		return days, "Tomorrow!"
	default:
		return days, fmt.Sprintf("In %d days", days)
	}
}

func parseDue(due string) (time.Time, bool) {
	if due == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, due)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sortByDays(entries []map[string]any) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i]["days_until"].(int) < entries[j]["days_until"].(int)
	})
}

func orNone(s string) any {
	if s == "" {
		return nil
	}
	return s
}
