package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrich-cli/internal/platform"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/gemini"
	"github.com/sells-group/enrich-cli/pkg/lyzr"
)

// initStore opens and migrates the configured run store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPlatform builds the agent platform client. The offline flag swaps in
// the stub so runs work without credentials.
func initPlatform(ctx context.Context, backend string, offline bool) (platform.Client, error) {
	if offline {
		return &platform.StubClient{}, nil
	}
	if backend == "" {
		backend = cfg.Pipeline.Backend
	}

	var client platform.Client
	switch backend {
	case "lyzr":
		if cfg.Lyzr.APIKey == "" {
			return nil, eris.New("lyzr.api_key is not configured (set ENRICH_LYZR_API_KEY)")
		}
		opts := []lyzr.Option{lyzr.WithRateLimit(cfg.Lyzr.RPS)}
		if cfg.Lyzr.BaseURL != "" {
			opts = append(opts, lyzr.WithBaseURL(cfg.Lyzr.BaseURL))
		}
		client = lyzr.NewClient(cfg.Lyzr.APIKey, opts...)
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, eris.New("gemini.api_key is not configured (set ENRICH_GEMINI_API_KEY)")
		}
		var err error
		client, err = gemini.NewClient(ctx, cfg.Gemini.APIKey, gemini.WithModel(cfg.Gemini.Model))
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("unknown platform backend %q (want lyzr or gemini)", backend)
	}
	return resilience.WrapPlatform(client, resilience.BreakerConfig{}), nil
}

// defaultAgentID falls back to the configured Lyzr agent when the flag is
// unset.
func defaultAgentID(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Lyzr.AgentID
}

// writeFormatted renders v as indented JSON or YAML.
func writeFormatted(w io.Writer, v any, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// writeOutput renders v to stdout, or to a file when path is set.
func writeOutput(path string, v any, format string) error {
	if path == "" {
		return writeFormatted(os.Stdout, v, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create output file %s", path)
	}
	defer f.Close()
	return writeFormatted(f, v, format)
}
