// Package platform defines the agent-platform contract the pipeline consumes:
// a file upload service returning opaque asset identifiers, and an agent
// invocation service returning an arbitrary JSON response.
package platform

import (
	"context"
	"encoding/json"
)

// UploadResponse is the outcome of uploading one input file.
type UploadResponse struct {
	Success  bool     `json:"success"`
	AssetIDs []string `json:"asset_ids"`
	Error    string   `json:"error,omitempty"`
}

// InvokeRequest asks an agent to run over previously uploaded assets.
type InvokeRequest struct {
	Prompt  string   `json:"prompt"`
	AgentID string   `json:"agent_id"`
	Assets  []string `json:"assets"`
}

// InvokeResponse carries the agent's arbitrary JSON response, plus an
// optional raw unparsed mirror of the same content.
type InvokeResponse struct {
	Success     bool            `json:"success"`
	Response    json.RawMessage `json:"response,omitempty"`
	RawResponse string          `json:"raw_response,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Client is the full agent-platform surface. Upload must complete
// successfully before InvokeAgent is called; the pipeline never retries
// either operation.
type Client interface {
	UploadAssets(ctx context.Context, filename string, data []byte) (*UploadResponse, error)
	InvokeAgent(ctx context.Context, req InvokeRequest) (*InvokeResponse, error)
}
