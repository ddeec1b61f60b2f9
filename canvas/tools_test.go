package canvas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient serves canned JSON per API path and returns a client
// pointed at the test server.
func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			http.Error(w, `{"errors":[{"message":"Invalid access token."}]}`, http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, `{"errors":[{"message":"The specified resource does not exist."}]}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token")
}

func TestExecuteGetCourses(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v1/users/self/favorites/courses": `[{"id": 101, "name": "Biology 1110"}, {"id": 102, "name": "Calculus I"}]`,
	})

	result, err := client.Execute(context.Background(), "get_courses", nil)
	require.NoError(t, err)

	courses, ok := result.([]map[string]any)
	require.True(t, ok)
	require.Len(t, courses, 2)
	assert.Equal(t, int64(101), courses[0]["id"])
	assert.Equal(t, "Biology 1110", courses[0]["name"])
}

func TestExecuteUnknownTool(t *testing.T) {
	client := newTestClient(t, nil)
	_, err := client.Execute(context.Background(), "drop_all_courses", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestExecuteMissingParam(t *testing.T) {
	client := newTestClient(t, nil)
	_, err := client.Execute(context.Background(), "get_assignments", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course_id")
}

func TestExecuteCoercesParamTypes(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v1/courses/42/assignments": `[]`,
	})
	// JSON numbers arrive as float64; models sometimes quote ids.
	for _, id := range []any{float64(42), 42, int64(42), "42"} {
		_, err := client.Execute(context.Background(), "get_assignments", map[string]any{"course_id": id})
		assert.NoError(t, err, "course_id %T", id)
	}

	_, err := client.Execute(context.Background(), "get_assignments", map[string]any{"course_id": "forty-two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestExecuteAPIErrorDetail(t *testing.T) {
	client := newTestClient(t, nil)
	_, err := client.Execute(context.Background(), "get_announcements", map[string]any{"course_id": float64(9)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestMissingCredentials(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Courses(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestWithCredentials(t *testing.T) {
	base := NewClient("https://school.instructure.com", "base-token")

	same := base.WithCredentials("", "")
	assert.Same(t, base, same)

	bound := base.WithCredentials("https://other.instructure.com/", "user-token")
	assert.Equal(t, "https://other.instructure.com", bound.BaseURL)
	assert.Equal(t, "user-token", bound.Token)
	// The original is untouched.
	assert.Equal(t, "https://school.instructure.com", base.BaseURL)
	assert.Equal(t, "base-token", base.Token)
}

func TestPeopleGroupsRoster(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v1/courses/7/users": `[{"id": 1, "name": "Sam Carter"}]`,
	})
	result, err := client.People(context.Background(), 7)
	require.NoError(t, err)

	roster, ok := result.(map[string][]map[string]any)
	require.True(t, ok)
	// The same fixture answers all three enrollment-type queries.
	assert.Len(t, roster["students"], 1)
	assert.Len(t, roster["teaching_assistants"], 1)
	assert.Len(t, roster["professors"], 1)
	assert.Equal(t, "Sam Carter", roster["students"][0]["name"])
}

func TestCourseGradeWeighted(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v1/courses/5/assignment_groups": `[
			{"id": 1, "name": "Homework", "group_weight": 40, "assignments": [
				{"id": 11, "name": "HW1", "points_possible": 10, "submission": {"score": 9}},
				{"id": 12, "name": "HW2", "points_possible": 10, "submission": {"score": 8}}
			]},
			{"id": 2, "name": "Exams", "group_weight": 60, "assignments": [
				{"id": 21, "name": "Midterm", "points_possible": 100, "submission": {"score": 90}}
			]},
			{"id": 3, "name": "Final Project", "group_weight": 20, "assignments": [
				{"id": 31, "name": "Project", "points_possible": 100, "submission": null}
			]}
		]`,
	})

	result, err := client.CourseGrade(context.Background(), 5)
	require.NoError(t, err)

	grade, ok := result.(map[string]any)
	require.True(t, ok)
	// Homework 85% at weight 40, exams 90% at weight 60; the ungraded
	// project group carries no weight.
	assert.InDelta(t, 0.88, grade["weighted_average"].(float64), 0.0001)
	assert.InDelta(t, 88.0, grade["weighted_percentage"].(float64), 0.01)
	assert.Equal(t, "B+", grade["letter_grade"])

	details, ok := grade["group_details"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, details, 3)
	assert.Equal(t, 0, details[2]["graded_assignments"])
}

func TestSyllabusFallback(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v1/courses/3": `{"id": 3, "name": "Chemistry", "syllabus_body": ""}`,
	})
	result, err := client.Syllabus(context.Background(), 3)
	require.NoError(t, err)

	syllabus, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "No syllabus has been published for this course.", syllabus["syllabus"])
}

func TestCatalogueAndExecuteAgree(t *testing.T) {
	// Every catalogued tool must dispatch; the probe uses ids that fail
	// fast at the HTTP layer, which proves the switch arm exists.
	client := newTestClient(t, nil)
	params := map[string]any{
		"course_id":     float64(1),
		"assignment_id": float64(1),
		"module_id":     float64(1),
	}
	for _, spec := range Catalogue() {
		_, err := client.Execute(context.Background(), spec.Name, params)
		if err != nil {
			assert.NotContains(t, err.Error(), "unknown tool", "tool %s", spec.Name)
		}
	}
}
