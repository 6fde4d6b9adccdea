package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheet = "Evento,Data\nLeilão X,01/02/2025\n"

func TestFetchUsesETagCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sheet))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), 0)
	ctx := context.Background()

	first, err := f.Fetch(ctx, Source{URL: srv.URL + "/pub?output=csv"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, sheet, string(first.Body))

	second, err := f.Fetch(ctx, Source{URL: srv.URL + "/pub?output=csv"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, sheet, string(second.Body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewFetcher("", 0)
	_, err := f.Fetch(context.Background(), Source{URL: srv.URL})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusGone, statusErr.Code)
}

func TestFetchStaleOnError(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(sheet))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), 0)
	_, err := f.Fetch(context.Background(), Source{URL: srv.URL})
	require.NoError(t, err)

	status.Store(http.StatusInternalServerError)

	_, err = f.Fetch(context.Background(), Source{URL: srv.URL})
	require.Error(t, err, "stale fallback is opt-in")

	f.StaleOnError = true
	res, err := f.Fetch(context.Background(), Source{URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, sheet, string(res.Body))
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventos.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o600))

	res, err := NewFetcher("", 0).Fetch(context.Background(), Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, sheet, string(res.Body))

	_, err = NewFetcher("", 0).Fetch(context.Background(), Source{Path: path + ".missing"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchNoSource(t *testing.T) {
	_, err := NewFetcher("", 0).Fetch(context.Background(), Source{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://docs.google.com/...(redacted)",
		redactURL("https://docs.google.com/spreadsheets/d/e/KEY/pub?gid=1&output=csv"))
	assert.Equal(t, "http://127.0.0.1:8080/...(redacted)", redactURL("http://127.0.0.1:8080?x=1"))
	assert.Equal(t, "feed://...(redacted)", redactURL("not a url"))
}
