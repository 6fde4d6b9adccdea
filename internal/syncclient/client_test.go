package syncclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkippedWithoutBaseURL(t *testing.T) {
	c := New("  ", 0)

	res, err := c.Push(context.Background(), map[string]any{"a": 1})
	require.ErrorIs(t, err, ErrSkipped)
	assert.True(t, res.Skipped)
	assert.False(t, res.OK)

	pull, err := c.Pull(context.Background(), nil)
	require.ErrorIs(t, err, ErrSkipped)
	assert.True(t, pull.Skipped)
	assert.NotNil(t, pull.Changes)
}

func TestPushPostsJSON(t *testing.T) {
	var gotBody, gotType, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL+"/", time.Second).Push(context.Background(), map[string]string{"name": "Leilão"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "/planner/sync/push", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"name":"Leilão"}`, gotBody)
}

func TestPullSendsSince(t *testing.T) {
	var since string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/planner/sync/pull", r.URL.Path)
		since = r.URL.Query().Get("since")
		w.Write([]byte(`{"ok":true,"changes":{"events":[]}}`))
	}))
	defer srv.Close()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	res, err := New(srv.URL, time.Second).Pull(context.Background(), &ts)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "2025-01-02T03:04:05Z", since)
	assert.Contains(t, res.Changes, "events")
}

func TestNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Pull(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
