// Package lyzr is a client for the Lyzr agent platform: asset uploads and
// agent inference over previously uploaded assets.
package lyzr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/enrich-cli/internal/platform"
)

const defaultBaseURL = "https://agent-prod.studio.lyzr.ai"

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request throttle (2 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// httpClient implements platform.Client against the Lyzr HTTP API.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ platform.Client = (*httpClient)(nil)

// NewClient creates a Lyzr API client.
func NewClient(apiKey string, opts ...Option) platform.Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(2, 1),
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// UploadAssets sends one file as multipart form data to the asset upload
// endpoint and returns the platform's asset identifiers.
func (c *httpClient) UploadAssets(ctx context.Context, filename string, data []byte) (*platform.UploadResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "lyzr: rate limit")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return nil, eris.Wrap(err, "lyzr: create form file")
	}
	if _, err := part.Write(data); err != nil {
		return nil, eris.Wrap(err, "lyzr: write form file")
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "lyzr: close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/assets/upload", &body)
	if err != nil {
		return nil, eris.Wrap(err, "lyzr: create upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result platform.UploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "lyzr: unmarshal upload response")
	}
	return &result, nil
}

// InvokeAgent runs an agent over uploaded assets.
func (c *httpClient) InvokeAgent(ctx context.Context, invoke platform.InvokeRequest) (*platform.InvokeResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "lyzr: rate limit")
	}

	payload, err := json.Marshal(invoke)
	if err != nil {
		return nil, eris.Wrap(err, "lyzr: marshal invoke request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/inference/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "lyzr: create invoke request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// Agent replies are not always wrapped in a success envelope. A 2xx
	// object reply counts as success unless the body explicitly carries
	// "success": false.
	var envelope struct {
		Success     *bool           `json:"success"`
		Response    json.RawMessage `json:"response"`
		RawResponse string          `json:"raw_response"`
		Error       string          `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		// Some agent configurations reply with a bare string or other
		// non-envelope JSON. Hand it to the extractor as raw text.
		return &platform.InvokeResponse{Success: true, RawResponse: string(respBody)}, nil
	}
	result := platform.InvokeResponse{
		Success:     envelope.Success == nil || *envelope.Success,
		Response:    envelope.Response,
		RawResponse: envelope.RawResponse,
		Error:       envelope.Error,
	}
	if result.RawResponse == "" {
		result.RawResponse = string(respBody)
	}
	return &result, nil
}

func (c *httpClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "lyzr: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "lyzr: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("lyzr: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
