package canvas

import (
	"context"
	"fmt"
	"net/url"
)

type courseRecord struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CourseCode   string `json:"course_code"`
	SyllabusBody string `json:"syllabus_body"`
}

// Courses lists the user's favorite courses.
func (c *Client) Courses(ctx context.Context) (any, error) {
	var records []courseRecord
	if err := c.get(ctx, "/users/self/favorites/courses", nil, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, course := range records {
		result = append(result, map[string]any{
			"id":   course.ID,
			"name": course.Name,
		})
	}
	return result, nil
}

// AllCourses lists every active enrollment, including non-favorites.
func (c *Client) AllCourses(ctx context.Context) (any, error) {
	query := url.Values{"enrollment_state[]": {"active"}}
	var records []courseRecord
	if err := c.get(ctx, "/courses", query, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, course := range records {
		code := course.CourseCode
		if code == "" {
			code = "N/A"
		}
		result = append(result, map[string]any{
			"id":   course.ID,
			"name": course.Name,
			"code": code,
		})
	}
	return result, nil
}

type announcementRecord struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	PostedAt string `json:"posted_at"`
	Author   struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

// Announcements lists recent announcements for a course with the HTML
// bodies flattened to text.
func (c *Client) Announcements(ctx context.Context, courseID int64) (any, error) {
	query := url.Values{"only_announcements": {"true"}}
	var records []announcementRecord
	path := fmt.Sprintf("/courses/%d/discussion_topics", courseID)
	if err := c.get(ctx, path, query, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, a := range records {
		result = append(result, map[string]any{
			"id":        a.ID,
			"title":     a.Title,
			"message":   StripHTML(a.Message),
			"posted_at": a.PostedAt,
			"author":    a.Author.DisplayName,
		})
	}
	return result, nil
}

type fileRecord struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	ContentType string `json:"content-type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	UpdatedAt   string `json:"updated_at"`
}

// Files lists the files attached to a course.
func (c *Client) Files(ctx context.Context, courseID int64) (any, error) {
	var records []fileRecord
	path := fmt.Sprintf("/courses/%d/files", courseID)
	if err := c.get(ctx, path, nil, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, f := range records {
		result = append(result, map[string]any{
			"id":           f.ID,
			"display_name": f.DisplayName,
			"content_type": f.ContentType,
			"size":         f.Size,
			"url":          f.URL,
			"updated_at":   f.UpdatedAt,
		})
	}
	return result, nil
}

type userRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// People groups the course roster into students, teaching assistants, and
// professors, matching how the assistant presents rosters.
func (c *Client) People(ctx context.Context, courseID int64) (any, error) {
	roster := map[string][]map[string]any{}
	groups := []struct {
		enrollment string
		key        string
	}{
		{"student", "students"},
		{"ta", "teaching_assistants"},
		{"teacher", "professors"},
	}
	path := fmt.Sprintf("/courses/%d/users", courseID)
	for _, g := range groups {
		query := url.Values{"enrollment_type[]": {g.enrollment}}
		var records []userRecord
		if err := c.get(ctx, path, query, &records); err != nil {
			return nil, err
		}
		people := make([]map[string]any, 0, len(records))
		for _, u := range records {
			people = append(people, map[string]any{"id": u.ID, "name": u.Name})
		}
		roster[g.key] = people
	}
	return roster, nil
}

// Syllabus fetches the course syllabus body as plain text.
func (c *Client) Syllabus(ctx context.Context, courseID int64) (any, error) {
	query := url.Values{"include[]": {"syllabus_body"}}
	var record courseRecord
	path := fmt.Sprintf("/courses/%d", courseID)
	if err := c.get(ctx, path, query, &record); err != nil {
		return nil, err
	}
	syllabus := StripHTML(record.SyllabusBody)
	if syllabus == "" {
		syllabus = "No syllabus has been published for this course."
	}
	return map[string]any{
		"course_id": record.ID,
		"name":      record.Name,
		"syllabus":  syllabus,
	}, nil
}
