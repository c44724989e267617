package lyzr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/platform"
)

func TestUploadAssets(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantIDs  []string
		wantOK   bool
	}{
		{
			name:    "success",
			status:  http.StatusOK,
			body:    `{"success": true, "asset_ids": ["asset-1", "asset-2"]}`,
			wantIDs: []string{"asset-1", "asset-2"},
			wantOK:  true,
		},
		{
			name:    "rejected",
			status:  http.StatusOK,
			body:    `{"success": false, "error": "unsupported file"}`,
			wantOK:  false,
		},
		{
			name:    "server_error",
			status:  http.StatusInternalServerError,
			body:    `{"error": "internal"}`,
			wantErr: "unexpected status 500",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid`,
			wantErr: "unmarshal upload response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v3/assets/upload", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
				assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

				require.NoError(t, r.ParseMultipartForm(1<<20))
				file, header, err := r.FormFile("files")
				require.NoError(t, err)
				defer file.Close()
				assert.Equal(t, "contacts.csv", header.Filename)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := c.UploadAssets(context.Background(), "contacts.csv", []byte("name,company\nJane,Acme"))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, resp.Success)
			assert.Equal(t, tt.wantIDs, resp.AssetIDs)
		})
	}
}

func TestInvokeAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/inference/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "response": {"enriched_data": []}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{
		Prompt:  "enrich",
		AgentID: "agent-1",
		Assets:  []string{"asset-1"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"enriched_data": []}`, string(resp.Response))
	assert.NotEmpty(t, resp.RawResponse)
}

func TestInvokeAgent_ObjectWithoutSuccessField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": {"enriched_data": [{"name": "Jane", "company": "Acme"}]}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{Prompt: "enrich"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"enriched_data": [{"name": "Jane", "company": "Acme"}]}`, string(resp.Response))
	assert.NotEmpty(t, resp.RawResponse)
}

func TestInvokeAgent_ExplicitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error": "agent not found"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{Prompt: "enrich"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "agent not found", resp.Error)
}

func TestInvokeAgent_NonEnvelopeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`plain text reply`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{Prompt: "enrich"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "plain text reply", resp.RawResponse)
}
