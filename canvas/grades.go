package canvas

import (
	"context"
	"fmt"
	"net/url"
)

// LetterGrade converts a percentage to a letter on the standard scale the
// original grading tables use.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 93:
		return "A"
	case percentage >= 90:
		return "A-"
	case percentage >= 87:
		return "B+"
	case percentage >= 83:
		return "B"
	case percentage >= 80:
		return "B-"
	case percentage >= 77:
		return "C+"
	case percentage >= 73:
		return "C"
	case percentage >= 70:
		return "C-"
	case percentage >= 67:
		return "D+"
	case percentage >= 63:
		return "D"
	case percentage >= 60:
		return "D-"
	default:
		return "F"
	}
}

// AssignmentsWithGrades lists every assignment of a course with the user's
// grade and submission state.
func (c *Client) AssignmentsWithGrades(ctx context.Context, courseID int64) (any, error) {
	query := url.Values{"include[]": {"submission"}}
	var records []assignmentRecord
	path := fmt.Sprintf("/courses/%d/assignments", courseID)
	if err := c.get(ctx, path, query, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, a := range records {
		entry := map[string]any{
			"assignment_id":   a.ID,
			"assignment_name": a.Name,
			"points_possible": a.PointsPossible,
			"grade":           nil,
			"score":           nil,
			"submitted":       false,
		}
		if a.Submission != nil {
			entry["grade"] = orNone(a.Submission.Grade)
			entry["score"] = a.Submission.Score
			entry["submitted"] = a.Submission.SubmittedAt != ""
		}
		result = append(result, entry)
	}
	return result, nil
}

type assignmentGroupRecord struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	GroupWeight float64            `json:"group_weight"`
	Assignments []assignmentRecord `json:"assignments"`
}

// CourseGrade computes the overall weighted course grade with a per-group
// breakdown. Groups without graded assignments carry no weight, matching
// how Canvas itself treats empty groups.
func (c *Client) CourseGrade(ctx context.Context, courseID int64) (any, error) {
	query := url.Values{"include[]": {"assignments", "submission"}}
	var groups []assignmentGroupRecord
	path := fmt.Sprintf("/courses/%d/assignment_groups", courseID)
	if err := c.get(ctx, path, query, &groups); err != nil {
		return nil, err
	}

	var totalWeight, weightedScoreSum float64
	groupDetails := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		var totalPoints, earnedPoints float64
		graded := 0
		for _, a := range group.Assignments {
			if a.PointsPossible == nil || a.Submission == nil || a.Submission.Score == nil {
				continue
			}
			totalPoints += *a.PointsPossible
			earnedPoints += *a.Submission.Score
			graded++
		}
		var average, percentage float64
		if totalPoints > 0 {
			average = earnedPoints / totalPoints
			percentage = average * 100
			if graded > 0 {
				weightedScoreSum += average * group.GroupWeight
				totalWeight += group.GroupWeight
			}
		}
		groupDetails = append(groupDetails, map[string]any{
			"name":               group.Name,
			"weight":             group.GroupWeight,
			"average":            average,
			"percentage":         percentage,
			"contribution":       average * group.GroupWeight,
			"graded_assignments": graded,
		})
	}

	var weightedAverage float64
	if totalWeight > 0 {
		weightedAverage = weightedScoreSum / totalWeight
	}
	percentage := weightedAverage * 100
	return map[string]any{
		"weighted_average":    weightedAverage,
		"weighted_percentage": percentage,
		"letter_grade":        LetterGrade(percentage),
		"group_details":       groupDetails,
	}, nil
}
