// Package pipeline turns raw contact CSVs into normalized enrichment
// records by way of an AI agent platform. The agent's response shape is
// not under our control, so everything downstream of the invoke call is
// built to recover: lenient JSON decoding, deep extraction over several
// views of the response, and alias-based field normalization.
package pipeline

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/platform"
	"github.com/sells-group/enrich-cli/internal/store"
)

// Input is one enrichment request.
type Input struct {
	// Source names where the CSV came from, for the run record.
	Source string
	// Filename is the name presented to the platform upload. Must end
	// in a supported extension.
	Filename string
	// Data is the raw CSV bytes.
	Data []byte
	// Prompt overrides the configured default instruction when set.
	Prompt string
	// AgentID overrides the configured agent when set.
	AgentID string
}

// Pipeline runs the upload, invoke, extract, normalize sequence and
// records progress in the store.
type Pipeline struct {
	cfg    config.PipelineConfig
	store  store.Store
	client platform.Client
}

// New builds a Pipeline. The store may be nil for dry runs that should
// leave no trace.
func New(cfg config.PipelineConfig, st store.Store, client platform.Client) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, client: client}
}

var supportedExtensions = map[string]bool{".csv": true, ".txt": true}

// ValidateInput rejects inputs before any upload happens: unsupported
// extensions and oversized files never reach the platform.
func (p *Pipeline) ValidateInput(in Input) error {
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !supportedExtensions[ext] {
		return eris.Errorf("pipeline: unsupported file type %q", ext)
	}
	if max := p.cfg.MaxUploadBytes; max > 0 && int64(len(in.Data)) > max {
		return eris.Errorf("pipeline: file exceeds %d byte upload limit", max)
	}
	return nil
}

// Run executes one enrichment run end to end. A response that yields no
// enrichment records is not an error: the run completes carrying the
// best-effort raw text instead. Run only fails when the input is
// unusable, the platform refuses, or no textual response exists at all.
func (p *Pipeline) Run(ctx context.Context, in Input) (run *model.Run, err error) {
	// Panics anywhere below become a failed run rather than taking the
	// process down; batch runs keep going.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: run panicked: %v", r)
			zap.L().Error("run panicked", zap.Any("panic", r))
			if run != nil {
				p.markFailed(ctx, run, err)
			}
		}
	}()

	if err := p.ValidateInput(in); err != nil {
		return nil, err
	}

	rows := ParseContacts(string(in.Data))
	if len(rows) == 0 {
		return nil, eris.New("pipeline: no rows found in input")
	}

	prompt := in.Prompt
	if prompt == "" {
		prompt = p.cfg.Prompt
	}

	now := time.Now().UTC()
	run = &model.Run{
		ID: uuid.NewString(),
		Input: model.RunInput{
			Source:   in.Source,
			Prompt:   prompt,
			AgentID:  in.AgentID,
			RowCount: len(rows),
		},
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.createRun(ctx, run); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("source", in.Source))
	log.Info("starting enrichment run", zap.Int("rows", len(rows)))

	p.setStatus(ctx, run, model.RunStatusUploading)
	upload, err := p.client.UploadAssets(ctx, in.Filename, in.Data)
	if err != nil {
		p.markFailed(ctx, run, err)
		return run, eris.Wrap(err, "pipeline: upload assets")
	}
	if !upload.Success || len(upload.AssetIDs) == 0 {
		err := eris.Errorf("pipeline: upload rejected: %s", orUnknown(upload.Error))
		p.markFailed(ctx, run, err)
		return run, err
	}
	log.Debug("assets uploaded", zap.Strings("asset_ids", upload.AssetIDs))

	p.setStatus(ctx, run, model.RunStatusInvoking)
	resp, err := p.client.InvokeAgent(ctx, platform.InvokeRequest{
		Prompt:  prompt,
		AgentID: in.AgentID,
		Assets:  upload.AssetIDs,
	})
	if err != nil {
		p.markFailed(ctx, run, err)
		return run, eris.Wrap(err, "pipeline: invoke agent")
	}
	if !resp.Success {
		err := eris.Errorf("pipeline: agent invocation failed: %s", orUnknown(resp.Error))
		p.markFailed(ctx, run, err)
		return run, err
	}

	p.setStatus(ctx, run, model.RunStatusExtracting)
	result, err := p.buildResult(resp)
	if err != nil {
		p.markFailed(ctx, run, err)
		return run, err
	}

	run.Status = model.RunStatusComplete
	run.Result = result
	run.UpdatedAt = time.Now().UTC()
	if p.store != nil {
		if err := p.store.UpdateRunResult(ctx, run.ID, run.Status, result); err != nil {
			return run, eris.Wrap(err, "pipeline: persist run result")
		}
	}
	log.Info("run complete",
		zap.Int("records", len(result.Records)),
		zap.Int("artifacts", len(result.Artifacts)),
		zap.Bool("raw_fallback", result.RawText != ""))
	return run, nil
}

// buildResult extracts and normalizes records from the agent response.
// The response is probed through three views so the extractor sees the
// payload no matter which level of nesting the platform wrapped it in:
// the decoded inner payload, the envelope as a whole, and the raw string.
func (p *Pipeline) buildResult(resp *platform.InvokeResponse) (*model.RunResult, error) {
	var inner any
	if len(resp.Response) > 0 {
		if err := json.Unmarshal(resp.Response, &inner); err != nil {
			inner = string(resp.Response)
		}
	}

	extracted := ExtractFromViews(inner, resp.RawResponse)
	if extracted.Empty() {
		raw := bestEffortText(inner, resp.RawResponse)
		if raw == "" {
			return nil, eris.New("pipeline: agent returned no usable response")
		}
		return &model.RunResult{
			Summary: model.EnrichmentSummary{HighConfidenceRate: "0%"},
			RawText: raw,
		}, nil
	}

	records := NormalizeRecords(extracted.Enriched)
	summary := NormalizeSummary(extracted.Summary, records)
	artifacts := extracted.Artifacts
	if len(artifacts) == 0 {
		artifacts = LocateArtifacts(resp.Response, resp.RawResponse)
	}
	return &model.RunResult{
		Records:   records,
		Summary:   summary,
		Artifacts: artifacts,
	}, nil
}

// bestEffortText digs a displayable string out of a response that had no
// extractable enrichment array.
func bestEffortText(inner any, raw string) string {
	if s, ok := inner.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if m, ok := inner.(map[string]any); ok {
		for _, key := range wrapperKeys {
			if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if strings.TrimSpace(raw) != "" {
		return raw
	}
	return ""
}

func (p *Pipeline) createRun(ctx context.Context, run *model.Run) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return eris.Wrap(err, "pipeline: create run")
	}
	return nil
}

// setStatus advances the run status. Persistence failures here are
// logged, not fatal; the run itself is still in flight.
func (p *Pipeline) setStatus(ctx context.Context, run *model.Run, status model.RunStatus) {
	run.Status = status
	run.UpdatedAt = time.Now().UTC()
	if p.store == nil {
		return
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
		zap.L().Warn("failed to persist run status",
			zap.String("run_id", run.ID), zap.String("status", string(status)), zap.Error(err))
	}
}

func (p *Pipeline) markFailed(ctx context.Context, run *model.Run, cause error) {
	run.Status = model.RunStatusFailed
	run.UpdatedAt = time.Now().UTC()
	run.Result = &model.RunResult{Error: cause.Error()}
	if p.store == nil {
		return
	}
	if err := p.store.UpdateRunResult(ctx, run.ID, model.RunStatusFailed, run.Result); err != nil {
		zap.L().Warn("failed to persist run failure",
			zap.String("run_id", run.ID), zap.Error(err))
	}
}

func orUnknown(msg string) string {
	if msg == "" {
		return "unknown error"
	}
	return msg
}
