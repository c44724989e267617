package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 3, Timeout: 5 * time.Second})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcher_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 2, Timeout: 5 * time.Second})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestHTTPFetcher_NoRetryOn404(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 3, Timeout: 5 * time.Second})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPFetcher_SetsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "enrich-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "enrich-test/1.0"})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	body.Close()
}
