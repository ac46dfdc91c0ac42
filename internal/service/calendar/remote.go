package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/skinbuddy/concierge/internal/model/reminder"
)

// Client is the external calendar capability. Implementations create and
// delete events on a remote calendar; the agent treats delete failures as
// non-fatal by policy.
type Client interface {
	CreateEvent(ctx context.Context, title, description string, start time.Time, recurrence reminder.Recurrence) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// HTTPClient talks to a JSON events API. It is the only component that
// performs outbound calendar calls.
type HTTPClient struct {
	baseURL  string
	token    string
	timezone string
	httpc    *http.Client
}

// NewHTTPClient builds a client for the configured events API.
func NewHTTPClient(baseURL, token, timezone string) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		token:    token,
		timezone: timezone,
		httpc:    &http.Client{Timeout: 15 * time.Second},
	}
}

type eventRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Timezone    string `json:"timezone"`
	Recurrence  string `json:"recurrence,omitempty"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// CreateEvent inserts a 15-minute event and returns the remote id.
func (c *HTTPClient) CreateEvent(ctx context.Context, title, description string, start time.Time, recurrence reminder.Recurrence) (string, error) {
	payload := eventRequest{
		Summary:     title,
		Description: description,
		Start:       start.Format(time.RFC3339),
		End:         start.Add(15 * time.Minute).Format(time.RFC3339),
		Timezone:    c.timezone,
	}
	if recurrence != "" && recurrence != reminder.None {
		payload.Recurrence = fmt.Sprintf("RRULE:FREQ=%s", recurrence)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("create event: unexpected status %d", resp.StatusCode)
	}

	var out eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode event response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create event: response missing id")
	}
	return out.ID, nil
}

// DeleteEvent removes a remote event. An empty id is a no-op.
func (c *HTTPClient) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete event: unexpected status %d", resp.StatusCode)
	}
	return nil
}
