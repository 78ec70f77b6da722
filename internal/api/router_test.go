package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/api"
	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/metrics"
	"github.com/notifyhub/desktop-notifier/internal/notifier"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/ratelimiter"
	"github.com/notifyhub/desktop-notifier/internal/repository"
	"github.com/notifyhub/desktop-notifier/internal/service"
)

type testServer struct {
	srv  *httptest.Server
	mock *notifier.MockNotifier
	repo *repository.MemoryReminderRepository
	q    *queue.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onReply, onError := m.NotifyHooks()

	mock := notifier.NewMockNotifier(domain.Reply{Type: domain.ActivationReplied, Value: "yes"})
	notifySvc := service.NewNotifyService(mock, ratelimiter.New(0), domain.DefaultNotificationOptions(),
		service.NotifyHooks{OnReply: onReply, OnError: onError}, zap.NewNop())

	repo := repository.NewMemoryReminderRepository()
	reminderSvc := service.NewReminderService(repo, 3, zap.NewNop())
	q := queue.New(8)

	srv := httptest.NewServer(api.NewRouter(notifySvc, reminderSvc, q, reg, zap.NewNop()))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, mock: mock, repo: repo, q: q}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealth_EmptyBody(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
	assert.Empty(t, ts.mock.Calls(), "health must not touch the notifier")
}

func TestNotify_Defaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no body", ""},
		{"empty object", "{}"},
		{"empty strings", `{"title":"","message":""}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)

			resp := ts.do(t, http.MethodPost, "/notify", tc.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			calls := ts.mock.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "Unknown title", calls[0].Title)
			assert.Equal(t, "Unknown message", calls[0].Message)
			assert.True(t, calls[0].Sound)
			assert.Equal(t, 15*time.Second, calls[0].Timeout)
			assert.Equal(t, "Completed?", calls[0].ReplyLabel)
		})
	}
}

func TestNotify_ForwardsValuesAndReturnsReply(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.Reply = domain.Reply{Type: domain.ActivationReplied, Value: "all done"}

	resp := ts.do(t, http.MethodPost, "/notify", `{"title":"T","message":"M"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "all done", readBody(t, resp))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	calls := ts.mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "T", calls[0].Title)
	assert.Equal(t, "M", calls[0].Message)
}

func TestNotify_ActivationWithoutValue(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.Reply = domain.Reply{Type: domain.ActivationTimeout}

	resp := ts.do(t, http.MethodPost, "/notify", `{}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "timeout", readBody(t, resp))
}

func TestNotify_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"title":`},
		{"non-string title", `{"title": 5}`},
		{"trailing data", `{"title":"T"} not json`},
		{"two objects", `{"title":"T"}{"title":"U"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)

			resp := ts.do(t, http.MethodPost, "/notify", tc.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, ts.mock.Calls())
		})
	}
}

func TestNotify_FacilityErrorsSurfaced(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: exit status 1", domain.ErrNotifierFailed), http.StatusBadGateway},
		{domain.ErrNotifierTimeout, http.StatusGatewayTimeout},
		{domain.ErrNotifierUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			ts := newTestServer(t)
			ts.mock.Err = tc.err

			resp := ts.do(t, http.MethodPost, "/notify", `{}`)

			assert.Equal(t, tc.status, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestReminders_CRUD(t *testing.T) {
	ts := newTestServer(t)

	// create
	resp := ts.do(t, http.MethodPost, "/api/v1/reminders", `{"title":"Tea","message":"Kettle","duration":"10m"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Reminder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Tea", created.Title)
	assert.Equal(t, domain.ReminderPending, created.Status)

	// get
	resp = ts.do(t, http.MethodGet, "/api/v1/reminders/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// edit
	resp = ts.do(t, http.MethodPatch, "/api/v1/reminders/"+created.ID, `{"message":"Pour it"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edited domain.Reminder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&edited))
	assert.Equal(t, "Pour it", edited.Message)

	// list
	resp = ts.do(t, http.MethodGet, "/api/v1/reminders?id="+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data  []domain.Reminder `json:"data"`
		Total int               `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	// delete
	resp = ts.do(t, http.MethodDelete, "/api/v1/reminders/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/reminders/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReminders_Errors(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/reminders", `{"duration":"-5s"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/reminders", `{"duration":"later"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/reminders", `{"duration":"1m"} extra`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/reminders", `{"duration":1e12}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/v1/reminders", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/reminders?id=missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// a reminder already handed to the scheduler cannot be edited
	resp = ts.do(t, http.MethodPost, "/api/v1/reminders", `{"duration":0}`)
	var created domain.Reminder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NoError(t, ts.repo.UpdateStatus(context.Background(), created.ID, domain.ReminderQueued))

	resp = ts.do(t, http.MethodPatch, "/api/v1/reminders/"+created.ID, `{"title":"late"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMetricsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_ = ts.do(t, http.MethodPost, "/notify", `{}`)
	require.NoError(t, ts.q.Enqueue(queue.Item{ReminderID: "x"}))

	resp := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `notifications_completed_total{activation="replied"} 1`)

	resp = ts.do(t, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snapshot map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, 1, snapshot["queue_depth"])
	assert.Equal(t, 8, snapshot["queue_capacity"])
}
