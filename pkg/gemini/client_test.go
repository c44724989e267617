package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sells-group/enrich-cli/internal/platform"
)

func newTestClient(generate func(ctx context.Context, model string, contents []*genai.Content) (string, error)) *client {
	return &client{
		model:    defaultModel,
		assets:   make(map[string]asset),
		generate: generate,
	}
}

func TestInvokeAgent_InlinesUploadedAssets(t *testing.T) {
	var gotModel string
	var gotContents []*genai.Content
	c := newTestClient(func(_ context.Context, model string, contents []*genai.Content) (string, error) {
		gotModel = model
		gotContents = contents
		return `{"enriched_data": []}`, nil
	})

	up, err := c.UploadAssets(context.Background(), "contacts.csv", []byte("name,company\nJane,Acme"))
	require.NoError(t, err)
	require.True(t, up.Success)
	require.Len(t, up.AssetIDs, 1)

	resp, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{
		Prompt: "enrich",
		Assets: up.AssetIDs,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, `{"enriched_data": []}`, resp.RawResponse)

	assert.Equal(t, defaultModel, gotModel)
	require.Len(t, gotContents, 1)
	require.Len(t, gotContents[0].Parts, 2)
	assert.Equal(t, "enrich", gotContents[0].Parts[0].Text)
	require.NotNil(t, gotContents[0].Parts[1].InlineData)
	assert.Equal(t, "text/csv", gotContents[0].Parts[1].InlineData.MIMEType)
}

func TestInvokeAgent_UnknownAsset(t *testing.T) {
	c := newTestClient(func(context.Context, string, []*genai.Content) (string, error) {
		t.Fatal("generate should not be called")
		return "", nil
	})

	_, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{
		Prompt: "enrich",
		Assets: []string{"missing"},
	})
	assert.Error(t, err)
}

func TestInvokeAgent_EmptyResponse(t *testing.T) {
	c := newTestClient(func(context.Context, string, []*genai.Content) (string, error) {
		return "", nil
	})

	resp, err := c.InvokeAgent(context.Background(), platform.InvokeRequest{Prompt: "enrich"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}
