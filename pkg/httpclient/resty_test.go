package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/items", r.URL.Path)
		assert.Equal(t, "eq.true", r.URL.Query().Get("published"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Range", "0-0/1")
		_, _ = w.Write([]byte(`[{"code":"A"}]`))
	}))
	defer srv.Close()

	client := New(Options{
		BaseURL:     srv.URL,
		Timeout:     time.Second,
		BearerToken: "secret",
		Headers:     map[string]string{"apikey": "secret"},
	})

	var rows []map[string]string
	resp, err := client.Get(context.Background(), "/rest/v1/items",
		map[string]string{"published": "eq.true"},
		map[string]string{"Prefer": "count=exact"},
		&rows)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0-0/1", resp.Headers.Get("Content-Range"))
	assert.Equal(t, []map[string]string{{"code": "A"}}, rows)
}

func TestRestyClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(Options{BaseURL: srv.URL, Timeout: time.Second, RetryCount: 3})
	resp, err := client.Get(context.Background(), "/", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
