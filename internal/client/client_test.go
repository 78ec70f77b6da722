package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/api"
	"github.com/notifyhub/desktop-notifier/internal/client"
	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/notifier"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/ratelimiter"
	"github.com/notifyhub/desktop-notifier/internal/repository"
	"github.com/notifyhub/desktop-notifier/internal/service"
)

// newBackend serves the real router with an in-memory store and a mock popup.
func newBackend(t *testing.T) (*httptest.Server, *notifier.MockNotifier) {
	t.Helper()

	mock := notifier.NewMockNotifier(domain.Reply{Type: domain.ActivationReplied, Value: "done"})
	notifySvc := service.NewNotifyService(mock, ratelimiter.New(0), domain.DefaultNotificationOptions(),
		service.NotifyHooks{}, zap.NewNop())
	reminderSvc := service.NewReminderService(repository.NewMemoryReminderRepository(), 3, zap.NewNop())

	srv := httptest.NewServer(api.NewRouter(notifySvc, reminderSvc, queue.New(1), prometheus.NewRegistry(), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, mock
}

func TestHTTPClient_ReminderLifecycle(t *testing.T) {
	srv, _ := newBackend(t)
	c := client.NewHTTPClient(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	rem, err := c.Create(ctx, "Tea", "Kettle", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Tea", rem.Title)

	msg := "Pour it"
	edited, err := c.Edit(ctx, rem.ID, domain.EditReminderRequest{Message: &msg})
	require.NoError(t, err)
	assert.Equal(t, "Pour it", edited.Message)
	assert.Equal(t, "Tea", edited.Title)

	all, err := c.Fetch(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, c.Delete(ctx, []string{rem.ID}))

	_, err = c.Fetch(ctx, []string{rem.ID})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestHTTPClient_NotifyAndHealth(t *testing.T) {
	srv, mock := newBackend(t)
	c := client.NewHTTPClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	assert.True(t, c.Healthy(ctx))

	reply, err := c.Notify(ctx, "T", "M")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	require.Len(t, mock.Calls(), 1)
	assert.Equal(t, "T", mock.Calls()[0].Title)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv, _ := newBackend(t)
	url := srv.URL
	srv.Close()

	c := client.NewHTTPClient(url, time.Second)
	assert.False(t, c.Healthy(context.Background()))
	_, err := c.Fetch(context.Background(), nil)
	assert.Error(t, err)
}

func runCLI(t *testing.T, backend string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	argv := append([]string{"reminder", "--backend", backend}, args...)
	err := client.NewCommand(&out).Run(context.Background(), argv)
	return out.String(), err
}

func TestCommand_CreateFetchDelete(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := runCLI(t, srv.URL, "create", "-t", "Stand up", "-m", "Stretch", "-d", "5m")
	require.NoError(t, err)
	assert.Contains(t, out, "reminder created")
	assert.Contains(t, out, `"title": "Stand up"`)

	c := client.NewHTTPClient(srv.URL, time.Second)
	all, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	id := all[0].ID

	out, err = runCLI(t, srv.URL, "edit", "--id", id, "--title", "Sit down")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Sit down"`)

	out, err = runCLI(t, srv.URL, "fetch", "--id", id)
	require.NoError(t, err)
	assert.Contains(t, out, "1 reminder(s)")

	out, err = runCLI(t, srv.URL, "delete", "--id", id)
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestCommand_EditWithoutChanges(t *testing.T) {
	srv, _ := newBackend(t)

	_, err := runCLI(t, srv.URL, "edit", "--id", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to edit")
}

func TestCommand_NotifyAndHealth(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := runCLI(t, srv.URL, "notify", "--title", "T")
	require.NoError(t, err)
	assert.Equal(t, "done\n", out)

	out, err = runCLI(t, srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")
}
