package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusUploading  RunStatus = "uploading"
	RunStatusInvoking   RunStatus = "invoking"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// RunInput describes what was fed into a run.
type RunInput struct {
	Source   string `json:"source"`             // file path or URL of the input CSV
	Prompt   string `json:"prompt,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
	RowCount int    `json:"row_count"`
}

// Run represents a single enrichment run.
type Run struct {
	ID        string     `json:"id"`
	Input     RunInput   `json:"input"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run. When the agent responded but no
// enrichment array could be located, Records is empty and RawText carries the
// best-effort textual response instead.
type RunResult struct {
	Records   []EnrichedRecord  `json:"records"`
	Summary   EnrichmentSummary `json:"summary"`
	Artifacts []ArtifactFile    `json:"artifacts,omitempty"`
	RawText   string            `json:"raw_text,omitempty"`
	Error     string            `json:"error,omitempty"`
}
