package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifyCall struct {
	title     string
	message   string
	sessionID string
}

type fakeDispatcher struct {
	calls []notifyCall
}

func (f *fakeDispatcher) Notify(_ context.Context, title, message, sessionID string) {
	f.calls = append(f.calls, notifyCall{title, message, sessionID})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(New(&fakeDispatcher{}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_Notify_AcceptsAndDispatches(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	srv := httptest.NewServer(New(d))
	t.Cleanup(srv.Close)

	body := `{"title":"Build","message":"done","session_id":"s-1"}`
	resp, err := http.Post(srv.URL+"/notify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, d.calls, 1)
	assert.Equal(t, notifyCall{"Build", "done", "s-1"}, d.calls[0])
}

func TestServer_Notify_DefaultsTitle(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	srv := httptest.NewServer(New(d))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/notify", "application/json", strings.NewReader(`{"message":"done"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, d.calls, 1)
	assert.Equal(t, "Claude Code", d.calls[0].title)
}

func TestServer_Notify_RejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	srv := httptest.NewServer(New(d))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/notify", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, d.calls)
}

func TestServer_Notify_RejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	srv := httptest.NewServer(New(d))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/notify", "application/json", strings.NewReader(`{"title":"T"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, d.calls)
}

func TestServe_ShutsDownOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", New(&fakeDispatcher{}))
	}()

	cancel()
	assert.NoError(t, <-done)
}
