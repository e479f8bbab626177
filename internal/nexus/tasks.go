package nexus

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// TaskDraft is the writable portion of a task, shared by create and update.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// Tasks lists the organization's tasks, optionally narrowed to one category. An empty or
// "All" category returns everything.
func (c *Client) Tasks(ctx context.Context, s Session, category string) ([]models.Task, error) {
	path := "/tasks"
	if category != "" && category != "All" {
		path += "?category=" + url.QueryEscape(category)
	}

	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, s.Token, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask adds a task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, s Session, draft TaskDraft) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", s.Token, draft, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces a task's writable fields and returns the stored record.
func (c *Client) UpdateTask(ctx context.Context, s Session, id string, draft TaskDraft) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), s.Token, draft, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus moves a task to the given status.
func (c *Client) UpdateTaskStatus(ctx context.Context, s Session, id, status string) error {
	path := "/tasks/" + url.PathEscape(id) + "/status?status=" + url.QueryEscape(status)
	return c.do(ctx, http.MethodPatch, path, s.Token, nil, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, s Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), s.Token, nil, nil)
}
