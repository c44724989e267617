package platform

import (
	"context"
	"encoding/json"
)

// Compile-time interface check.
var _ Client = (*StubClient)(nil)

// StubClient implements Client with canned responses for offline runs and
// tests. Response, RawResponse, and Err may be set per test; zero values
// yield a single canned enriched record.
type StubClient struct {
	AssetIDs    []string
	Response    json.RawMessage
	RawResponse string
	UploadErr   error
	InvokeErr   error

	// Recorded inputs for assertions.
	UploadedName string
	LastRequest  InvokeRequest
}

const stubResponse = `{
	"enriched_data": [
		{
			"name": "Stub Contact",
			"company": "Stub Corp",
			"revenue": "$1M",
			"sector": "Testing",
			"decision_maker": "Yes",
			"job_title": "QA Lead",
			"confidence": "High"
		}
	],
	"summary": {
		"total_records": 1,
		"decision_makers_found": 1,
		"low_confidence_count": 0,
		"high_confidence_rate": "100%"
	}
}`

// UploadAssets implements Client.
func (s *StubClient) UploadAssets(_ context.Context, filename string, _ []byte) (*UploadResponse, error) {
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	s.UploadedName = filename
	ids := s.AssetIDs
	if len(ids) == 0 {
		ids = []string{"stub-asset-001"}
	}
	return &UploadResponse{Success: true, AssetIDs: ids}, nil
}

// InvokeAgent implements Client.
func (s *StubClient) InvokeAgent(_ context.Context, req InvokeRequest) (*InvokeResponse, error) {
	if s.InvokeErr != nil {
		return nil, s.InvokeErr
	}
	s.LastRequest = req
	resp := s.Response
	if resp == nil {
		resp = json.RawMessage(stubResponse)
	}
	return &InvokeResponse{
		Success:     true,
		Response:    resp,
		RawResponse: s.RawResponse,
	}, nil
}
