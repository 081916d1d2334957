// Package client talks to the board API and keeps an optimistic local copy of
// the board in sync with the server.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// Client wraps http.Client with helpers for the board's JSON endpoints.
type Client struct {
	BaseURL string
	Bearer  string
	HTTP    *http.Client
}

// New creates a new Client.
func New(baseURL, bearer string) *Client {
	return &Client{BaseURL: baseURL, Bearer: bearer, HTTP: &http.Client{}}
}

// APIError is a non-2xx response. It matches the domain sentinel errors so
// callers can use errors.Is on either side of the wire.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("board api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusBadRequest:
		return target == domain.ErrInvalidInput
	case http.StatusConflict:
		return target == domain.ErrConcurrencyConflict
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		_ = sonic.Unmarshal(raw, &payload)
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(id string, suffix ...string) string {
	p := "/api/tasks/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func contactPath(id string, suffix ...string) string {
	p := "/api/contacts/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func viewQuery(view domain.View) string {
	if view == "" {
		return ""
	}
	return "?view=" + url.QueryEscape(string(view))
}

// Board fetches the column configuration.
func (c *Client) Board(ctx context.Context) (domain.BoardConfig, error) {
	var board domain.BoardConfig
	err := c.do(ctx, http.MethodGet, "/api/board", nil, &board)
	return board, err
}

// ListTasks returns the caller's tasks in one view, in display order.
func (c *Client) ListTasks(ctx context.Context, view domain.View) ([]*domain.Task, error) {
	var resp struct {
		Tasks []*domain.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks"+viewQuery(view), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTasks posts several drafts in one write.
func (c *Client) CreateTasks(ctx context.Context, drafts []domain.TaskDraft) ([]*domain.Task, error) {
	body := struct {
		Tasks []domain.TaskDraft `json:"tasks"`
	}{Tasks: drafts}
	var resp struct {
		Tasks []*domain.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks/batch", body, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// UpdateTask sends a partial update and returns the canonical task together
// with the activity entries the server appended.
func (c *Client) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, []domain.Activity, error) {
	var resp struct {
		Task     *domain.Task      `json:"task"`
		Activity []domain.Activity `json:"activity"`
	}
	if err := c.do(ctx, http.MethodPatch, taskPath(id), patch, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Task, resp.Activity, nil
}

func (c *Client) MoveTask(ctx context.Context, id, column string, index int) (*domain.Task, error) {
	body := struct {
		Status string `json:"status"`
		Index  int    `json:"index"`
	}{Status: column, Index: index}
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, taskPath(id, "move"), body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ReorderTasks assigns explicit ranks and reports how many were applied.
func (c *Client) ReorderTasks(ctx context.Context, updates []domain.OrderUpdate) (int, error) {
	body := struct {
		Updates []domain.OrderUpdate `json:"updates"`
	}{Updates: updates}
	var resp struct {
		Applied int `json:"applied"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks/reorder", body, &resp); err != nil {
		return 0, err
	}
	return resp.Applied, nil
}

func (c *Client) SetTaskPinned(ctx context.Context, id string, pinned bool) (*domain.Task, error) {
	return c.toggleTask(ctx, id, "pin", pinned)
}

func (c *Client) SetTaskArchived(ctx context.Context, id string, archived bool) (*domain.Task, error) {
	return c.toggleTask(ctx, id, "archive", archived)
}

func (c *Client) toggleTask(ctx context.Context, id, flag string, on bool) (*domain.Task, error) {
	method := http.MethodPost
	if !on {
		method = http.MethodDelete
	}
	var task domain.Task
	if err := c.do(ctx, method, taskPath(id, flag), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask moves a task to the trash.
func (c *Client) DeleteTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) RestoreTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, taskPath(id, "restore"), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// PurgeTask removes a task for good.
func (c *Client) PurgeTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id, "permanent"), nil, nil)
}

func (c *Client) EmptyTaskTrash(ctx context.Context) (int, error) {
	var resp struct {
		Removed int `json:"removed"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/trash", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *Client) AddComment(ctx context.Context, id, text string) (domain.Note, *domain.Task, error) {
	var resp struct {
		Note domain.Note  `json:"note"`
		Task *domain.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, taskPath(id, "comments"), map[string]string{"text": text}, &resp); err != nil {
		return domain.Note{}, nil, err
	}
	return resp.Note, resp.Task, nil
}

func (c *Client) ListContacts(ctx context.Context, view domain.View) ([]*domain.Contact, error) {
	var resp struct {
		Contacts []*domain.Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/contacts"+viewQuery(view), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

func (c *Client) CreateContact(ctx context.Context, draft domain.ContactDraft) (*domain.Contact, error) {
	var contact domain.Contact
	if err := c.do(ctx, http.MethodPost, "/api/contacts", draft, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) UpdateContact(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Contact, []domain.Activity, error) {
	var resp struct {
		Contact  *domain.Contact   `json:"contact"`
		Activity []domain.Activity `json:"activity"`
	}
	if err := c.do(ctx, http.MethodPatch, contactPath(id), patch, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Contact, resp.Activity, nil
}

func (c *Client) DeleteContact(ctx context.Context, id string) (*domain.Contact, error) {
	var contact domain.Contact
	if err := c.do(ctx, http.MethodDelete, contactPath(id), nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) RestoreContact(ctx context.Context, id string) (*domain.Contact, error) {
	var contact domain.Contact
	if err := c.do(ctx, http.MethodPost, contactPath(id, "restore"), nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) AddNote(ctx context.Context, id, text string) (domain.Note, *domain.Contact, error) {
	var resp struct {
		Note    domain.Note     `json:"note"`
		Contact *domain.Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodPost, contactPath(id, "notes"), map[string]string{"text": text}, &resp); err != nil {
		return domain.Note{}, nil, err
	}
	return resp.Note, resp.Contact, nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
