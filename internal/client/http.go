package client

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

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// DefaultBackendURI is where the server listens with an empty environment.
const DefaultBackendURI = "http://localhost:3000"

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.StatusCode)
	}
	return fmt.Sprintf("server answered %d: %s", e.StatusCode, e.Message)
}

// HTTPClient talks to the notifier server's reminder and notify endpoints.
type HTTPClient struct {
	BackendURI string
	httpClient *http.Client
}

// NewHTTPClient builds a client for uri. A zero timeout waits indefinitely,
// which POST /notify needs since it blocks until the popup completes.
func NewHTTPClient(uri string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BackendURI: strings.TrimRight(uri, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Create schedules a reminder due after d.
func (c *HTTPClient) Create(ctx context.Context, title, message string, d time.Duration) (*domain.Reminder, error) {
	var rem domain.Reminder
	err := c.do(ctx, http.MethodPost, "/api/v1/reminders", domain.CreateReminderRequest{
		Title:    title,
		Message:  message,
		Duration: domain.Duration(d),
	}, http.StatusCreated, &rem)
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

// Edit applies the non-nil fields of req to a pending reminder.
func (c *HTTPClient) Edit(ctx context.Context, id string, req domain.EditReminderRequest) (*domain.Reminder, error) {
	var rem domain.Reminder
	if err := c.do(ctx, http.MethodPatch, "/api/v1/reminders/"+url.PathEscape(id), req, http.StatusOK, &rem); err != nil {
		return nil, err
	}
	return &rem, nil
}

// Fetch returns the listed reminders, or every reminder when ids is empty.
func (c *HTTPClient) Fetch(ctx context.Context, ids []string) ([]*domain.Reminder, error) {
	var page struct {
		Data []*domain.Reminder `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/reminders"+idsQuery(ids), nil, http.StatusOK, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Delete removes the listed reminders.
func (c *HTTPClient) Delete(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/reminders"+idsQuery(ids), nil, http.StatusNoContent, nil)
}

// Notify shows a popup right away and returns the reply text.
func (c *HTTPClient) Notify(ctx context.Context, title, message string) (string, error) {
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodPost, "/notify", domain.NotifyRequest{Title: title, Message: message}, http.StatusOK, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Healthy reports whether GET /health answers 200.
func (c *HTTPClient) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil) == nil
}

// do sends body as JSON and decodes the answer into out. A *bytes.Buffer
// out receives the raw body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BackendURI+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeAPIError(resp)
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		if _, err := dst.ReadFrom(resp.Body); err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

func idsQuery(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	q := url.Values{}
	for _, id := range ids {
		q.Add("id", id)
	}
	return "?" + q.Encode()
}
