package canvas

import (
	"context"
	"fmt"
)

type moduleRecord struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Position   *int   `json:"position"`
	Published  *bool  `json:"published"`
	ItemsCount int    `json:"items_count"`
}

type moduleItemRecord struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Modules lists all modules of a course.
func (c *Client) Modules(ctx context.Context, courseID int64) (any, error) {
	var records []moduleRecord
	path := fmt.Sprintf("/courses/%d/modules", courseID)
	if err := c.get(ctx, path, nil, &records); err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(records))
	for _, m := range records {
		result = append(result, map[string]any{
			"id":          m.ID,
			"name":        m.Name,
			"position":    positionOrNA(m.Position),
			"published":   m.Published,
			"items_count": m.ItemsCount,
		})
	}
	return result, nil
}

// ModuleDescription fetches one module's description. Canvas modules rarely
// carry a description field directly, so the first module item's content or
// subheader title is used as a fallback.
func (c *Client) ModuleDescription(ctx context.Context, courseID, moduleID int64) (any, error) {
	var module struct {
		moduleRecord
		Description string `json:"description"`
	}
	path := fmt.Sprintf("/courses/%d/modules/%d", courseID, moduleID)
	if err := c.get(ctx, path, nil, &module); err != nil {
		return nil, err
	}
	description := module.Description
	if description == "" {
		var items []moduleItemRecord
		itemsPath := fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID)
		if err := c.get(ctx, itemsPath, nil, &items); err == nil && len(items) > 0 {
			first := items[0]
			if first.Content != "" {
				description = first.Content
			} else if first.Type == "SubHeader" && first.Title != "" {
				description = first.Title
			}
		}
	}
	if description != "" {
		description = StripHTML(description)
	} else {
		description = "No description available for this module."
	}
	return map[string]any{
		"id":          module.ID,
		"name":        module.Name,
		"position":    positionOrNA(module.Position),
		"published":   module.Published,
		"description": description,
	}, nil
}

func positionOrNA(position *int) any {
	if position == nil {
		return "N/A"
	}
	return *position
}
