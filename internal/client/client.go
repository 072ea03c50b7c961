// Package client is the REST client for the taskdeck backend API. It is the
// network boundary the hierarchy cache fetches through, plus the write calls
// the edit flows use before patching the cache optimistically.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskdeck/taskdeck/internal/types"
)

// APIError is a non-2xx response from the backend. It carries the HTTP
// status so the cache layer can recognize auth failures.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of the failed response.
func (e *APIError) StatusCode() int { return e.Status }

// Client talks to one taskdeck backend.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithRateLimit caps outgoing requests per second. Dashboards spawn a lot of
// views at once; the limiter keeps a cold start from stampeding the backend.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchHierarchy returns the complete work item tree for a project, epics as
// roots. Implements hierarchy.Fetcher.
func (c *Client) FetchHierarchy(ctx context.Context, projectID types.ItemID) ([]*types.WorkItem, error) {
	var tree []*types.WorkItem
	path := fmt.Sprintf("/api/projects/%s/work-items/hierarchy", url.PathEscape(projectID.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// ListProjects returns all projects visible to the caller.
func (c *Client) ListProjects(ctx context.Context) ([]*types.Project, error) {
	var projects []*types.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project and returns it with server-assigned fields.
func (c *Client) CreateProject(ctx context.Context, project *types.Project) (*types.Project, error) {
	var created types.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", project, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListWorkItems returns the flat work item list for a project, optionally
// filtered by type.
func (c *Client) ListWorkItems(ctx context.Context, projectID types.ItemID, typ *types.ItemType) ([]*types.WorkItem, error) {
	path := fmt.Sprintf("/api/projects/%s/work-items", url.PathEscape(projectID.String()))
	if typ != nil {
		path += "?type=" + url.QueryEscape(string(*typ))
	}
	var items []*types.WorkItem
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetWorkItem returns a single work item by id.
func (c *Client) GetWorkItem(ctx context.Context, id types.ItemID) (*types.WorkItem, error) {
	var item types.WorkItem
	path := "/api/work-items/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodGet, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateWorkItem creates a work item under a project and returns it with
// server-assigned fields.
func (c *Client) CreateWorkItem(ctx context.Context, projectID types.ItemID, item *types.WorkItem) (*types.WorkItem, error) {
	var created types.WorkItem
	path := fmt.Sprintf("/api/projects/%s/work-items", url.PathEscape(projectID.String()))
	if err := c.do(ctx, http.MethodPost, path, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// WorkItemUpdate is a partial work item edit; nil fields are left unchanged.
type WorkItemUpdate struct {
	Title              *string             `json:"title,omitempty"`
	Description        *string             `json:"description,omitempty"`
	Status             *types.ItemStatus   `json:"status,omitempty"`
	Priority           *types.ItemPriority `json:"priority,omitempty"`
	EstimatedHours     *float64            `json:"estimated_hours,omitempty"`
	OrderIndex         *int                `json:"order_index,omitempty"`
	AcceptanceCriteria []string            `json:"acceptance_criteria,omitempty"`
}

// UpdateWorkItem applies a partial edit and returns the updated item. The
// caller is expected to patch the hierarchy cache with the returned fields.
func (c *Client) UpdateWorkItem(ctx context.Context, id types.ItemID, update WorkItemUpdate) (*types.WorkItem, error) {
	var updated types.WorkItem
	path := "/api/work-items/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodPut, path, update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateStatus moves a work item to a new review status.
func (c *Client) UpdateStatus(ctx context.Context, id types.ItemID, status types.ItemStatus) (*types.WorkItem, error) {
	var updated types.WorkItem
	path := fmt.Sprintf("/api/work-items/%s/status?status=%s",
		url.PathEscape(id.String()), url.QueryEscape(string(status)))
	if err := c.do(ctx, http.MethodPatch, path, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetActive toggles a work item's active flag. The server cascades the
// change to all descendants; callers should refetch the hierarchy rather
// than patch node by node.
func (c *Client) SetActive(ctx context.Context, id types.ItemID, active bool) (*types.WorkItem, error) {
	var updated types.WorkItem
	path := fmt.Sprintf("/api/work-items/%s/active?active=%s",
		url.PathEscape(id.String()), strconv.FormatBool(active))
	if err := c.do(ctx, http.MethodPatch, path, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteWorkItem deletes a work item and its descendants.
func (c *Client) DeleteWorkItem(ctx context.Context, id types.ItemID) error {
	path := "/api/work-items/" + url.PathEscape(id.String())
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Stats returns aggregate work item counts for a project.
func (c *Client) Stats(ctx context.Context, projectID types.ItemID) (*types.WorkItemStats, error) {
	var stats types.WorkItemStats
	path := fmt.Sprintf("/api/projects/%s/work-items/stats", url.PathEscape(projectID.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do performs one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts a human-readable message from an error body.
// The backend answers errors as {"message": "..."}; anything else is used
// verbatim, truncated.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "request failed"
	}
	var wrapped struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Message != "" {
		return wrapped.Message
	}
	return strings.TrimSpace(string(raw))
}
