// Package calendar publishes planned time blocks to an external calendar
// endpoint. Publishing is best effort: the engine commits first and callers
// surface failures as warnings, never as operation errors.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event is the payload posted for one time block.
type Event struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ItemID    string `json:"item_id,omitempty"`
}

// Publisher pushes an event and returns a reference URL for it.
type Publisher interface {
	Publish(ctx context.Context, ev Event) (string, error)
}

// HTTPPublisher posts events as JSON to a configured endpoint and expects
// `{"url": "..."}` back.
type HTTPPublisher struct {
	URL    string
	Client *http.Client
}

func NewHTTPPublisher(url string, timeout time.Duration) *HTTPPublisher {
	return &HTTPPublisher{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPublisher) Publish(ctx context.Context, ev Event) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar endpoint returned %s", resp.Status)
	}

	var out struct {
		URL string `json:"url"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode calendar response: %w", err)
	}
	return out.URL, nil
}

// Disabled is the no-op publisher used when no endpoint is configured.
type Disabled struct{}

func (Disabled) Publish(context.Context, Event) (string, error) {
	return "", fmt.Errorf("no calendar endpoint configured")
}
