package getmoredonesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal getmoredone HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Item represents the API action item model (partial).
type Item struct {
	ID             string  `json:"id"`
	Who            string  `json:"who"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	ParentID       *string `json:"parent_id,omitempty"`
	Importance     *int    `json:"importance,omitempty"`
	Urgency        *int    `json:"urgency,omitempty"`
	Size           *int    `json:"size,omitempty"`
	Value          *int    `json:"value,omitempty"`
	Group          *string `json:"group,omitempty"`
	Category       *string `json:"category,omitempty"`
	PlannedMinutes *int    `json:"planned_minutes,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	DueDate        *string `json:"due_date,omitempty"`
	PriorityScore  int     `json:"priority_score"`
	Status         string  `json:"status"`
	CompletedAt    *string `json:"completed_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// Event represents one audit log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Payload    string `json:"payload_json"`
}

// DefaultsProfile represents one defaults scope.
type DefaultsProfile struct {
	ScopeType       string  `json:"scope_type"`
	ScopeKey        string  `json:"scope_key"`
	Importance      *int    `json:"importance,omitempty"`
	Urgency         *int    `json:"urgency,omitempty"`
	Size            *int    `json:"size,omitempty"`
	Value           *int    `json:"value,omitempty"`
	Group           *string `json:"group,omitempty"`
	Category        *string `json:"category,omitempty"`
	PlannedMinutes  *int    `json:"planned_minutes,omitempty"`
	StartOffsetDays *int    `json:"start_offset_days,omitempty"`
	DueOffsetDays   *int    `json:"due_offset_days,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateItem creates an action item. Fields beyond who and title ride in
// extra and may include importance, urgency, size, value, group, category,
// planned_minutes, start_date, and due_date; absent keys fall back to the
// stored defaults.
func (c *Client) CreateItem(ctx context.Context, who, title string, extra map[string]any) (Item, error) {
	body := map[string]any{
		"who":   who,
		"title": title,
	}
	for k, v := range extra {
		body[k] = v
	}
	var resp Item
	err := c.do(ctx, http.MethodPost, "items", body, &resp)
	return resp, err
}

// GetItem fetches an item by id.
func (c *Client) GetItem(ctx context.Context, id string) (Item, error) {
	var resp Item
	err := c.do(ctx, http.MethodGet, "items/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// EditItem applies a partial update. Keys present in fields are applied,
// including explicit nulls; absent keys stay untouched.
func (c *Client) EditItem(ctx context.Context, id string, fields map[string]any) (Item, error) {
	var resp Item
	err := c.do(ctx, http.MethodPatch, "items/"+url.PathEscape(id), fields, &resp)
	return resp, err
}

// CompleteItem marks an item completed.
func (c *Client) CompleteItem(ctx context.Context, id string) (Item, error) {
	var resp Item
	err := c.do(ctx, http.MethodPost, "items/"+url.PathEscape(id)+"/complete", nil, &resp)
	return resp, err
}

// CompleteAndCreate completes an item and creates its follow-up copy.
func (c *Client) CompleteAndCreate(ctx context.Context, id string, overrides map[string]any) (completed, created Item, err error) {
	var resp struct {
		Completed Item `json:"completed"`
		Created   Item `json:"created"`
	}
	err = c.do(ctx, http.MethodPost, "items/"+url.PathEscape(id)+"/complete-create", overrides, &resp)
	return resp.Completed, resp.Created, err
}

// RescheduleItem moves an item's dates.
func (c *Client) RescheduleItem(ctx context.Context, id string, fields map[string]any) (Item, error) {
	var resp Item
	err := c.do(ctx, http.MethodPost, "items/"+url.PathEscape(id)+"/reschedule", fields, &resp)
	return resp, err
}

// DeleteItem deletes an item; its children are promoted to root.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "items/"+url.PathEscape(id), nil, nil)
}

// UpcomingItems returns open items due inside the window.
func (c *Client) UpcomingItems(ctx context.Context, who string, windowDays int) ([]Item, error) {
	endpoint := "items/upcoming"
	q := url.Values{}
	if who != "" {
		q.Set("who", who)
	}
	if windowDays > 0 {
		q.Set("window", fmt.Sprintf("%d", windowDays))
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Item `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// ListItems returns items sorted by the given key.
func (c *Client) ListItems(ctx context.Context, sortKey string, desc bool) ([]Item, error) {
	endpoint := "items"
	q := url.Values{}
	if sortKey != "" {
		q.Set("sort", sortKey)
	}
	if desc {
		q.Set("desc", "true")
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Item `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// SaveDefaults writes a defaults profile for a scope.
func (c *Client) SaveDefaults(ctx context.Context, p DefaultsProfile) (DefaultsProfile, error) {
	var resp DefaultsProfile
	err := c.do(ctx, http.MethodPut, "defaults", p, &resp)
	return resp, err
}

// Events returns recent audit events, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Events []Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Events, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/v0/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
