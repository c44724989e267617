// Package gemini adapts the Gemini API to the agent-platform contract.
// There is no separate upload service: assets are held in memory and sent
// inline with the generation request.
package gemini

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/enrich-cli/internal/platform"
)

const defaultModel = "gemini-2.0-flash"

// Option configures the client.
type Option func(*client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.model = model
		}
	}
}

type asset struct {
	name string
	data []byte
}

// client implements platform.Client on top of the genai SDK.
type client struct {
	model    string
	generate func(ctx context.Context, model string, contents []*genai.Content) (string, error)

	mu     sync.Mutex
	assets map[string]asset
}

var _ platform.Client = (*client)(nil)

// NewClient creates a Gemini-backed platform client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (platform.Client, error) {
	inner, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &client{
		model:  defaultModel,
		assets: make(map[string]asset),
		generate: func(ctx context.Context, model string, contents []*genai.Content) (string, error) {
			resp, err := inner.Models.GenerateContent(ctx, model, contents, nil)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// UploadAssets registers the file in memory and hands back a synthetic
// asset identifier.
func (c *client) UploadAssets(_ context.Context, filename string, data []byte) (*platform.UploadResponse, error) {
	id := uuid.NewString()
	c.mu.Lock()
	c.assets[id] = asset{name: filename, data: data}
	c.mu.Unlock()
	return &platform.UploadResponse{Success: true, AssetIDs: []string{id}}, nil
}

// InvokeAgent sends the prompt plus every referenced asset inline and
// returns the model's text as the raw response.
func (c *client) InvokeAgent(ctx context.Context, req platform.InvokeRequest) (*platform.InvokeResponse, error) {
	parts := []*genai.Part{{Text: req.Prompt}}

	c.mu.Lock()
	for _, id := range req.Assets {
		a, ok := c.assets[id]
		if !ok {
			c.mu.Unlock()
			return nil, eris.Errorf("gemini: unknown asset %q", id)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "text/csv", Data: a.data},
		})
	}
	c.mu.Unlock()

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	text, err := c.generate(ctx, c.model, contents)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}
	if text == "" {
		return &platform.InvokeResponse{Success: false, Error: "empty model response"}, nil
	}
	return &platform.InvokeResponse{Success: true, RawResponse: text}, nil
}
