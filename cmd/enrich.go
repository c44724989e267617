package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/fetcher"
	"github.com/sells-group/enrich-cli/internal/pipeline"
	"github.com/sells-group/enrich-cli/pkg/notion"
)

var (
	enrichSource   string
	enrichPrompt   string
	enrichAgent    string
	enrichBackend  string
	enrichFilter   string
	enrichSortBy   string
	enrichDesc     bool
	enrichOutput   string
	enrichFormat   string
	enrichNotionDB string
	enrichOffline  bool
	enrichDryRun   bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich one contact CSV through the agent platform",
	Long: `Fetches a contact CSV (local path, http(s), or ftp URL), uploads it to the
agent platform, and normalizes whatever the agent replies with into
enrichment records.

Examples:
  # Dry run: parse the CSV and print the rows, no upload
  enrich-cli enrich --csv contacts.csv --dry-run

  # Full offline run with the stub platform (no API keys needed)
  enrich-cli enrich --csv contacts.csv --offline

  # Real run, decision makers only, exported to CSV
  enrich-cli enrich --csv contacts.csv --filter decision_makers --export out.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := pipeline.ParseFilterMode(enrichFilter)
		if err != nil {
			return err
		}

		name, data, err := fetcher.NewClient(cfg.Fetch).Fetch(ctx, enrichSource)
		if err != nil {
			return eris.Wrap(err, "enrich: fetch source")
		}

		if enrichDryRun {
			rows := pipeline.ParseContacts(string(data))
			zap.L().Info("dry run: parsed input", zap.Int("rows", len(rows)))
			return writeOutput("", rows, enrichFormat)
		}

		client, err := initPlatform(ctx, enrichBackend, enrichOffline)
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p := pipeline.New(cfg.Pipeline, st, client)
		run, err := p.Run(ctx, pipeline.Input{
			Source:   enrichSource,
			Filename: name,
			Data:     data,
			Prompt:   enrichPrompt,
			AgentID:  defaultAgentID(enrichAgent),
		})
		if err != nil {
			return eris.Wrap(err, "enrich: run")
		}

		session := pipeline.NewSession(run.Result.Records)
		session.Filter = filter
		session.SortField = enrichSortBy
		session.SortDesc = enrichDesc
		view := session.View()

		if enrichOutput != "" {
			written, err := pipeline.ExportCSV(view, enrichOutput)
			if err != nil {
				return err
			}
			if !written {
				zap.L().Warn("no records matched; export file not written",
					zap.String("path", enrichOutput))
			}
		}

		if enrichNotionDB != "" && len(view) > 0 {
			nc := notion.NewClient(cfg.Notion.Token)
			if _, err := notion.ExportRecords(ctx, nc, enrichNotionDB, view); err != nil {
				return eris.Wrap(err, "enrich: notion export")
			}
		}

		out := struct {
			RunID   string `json:"run_id" yaml:"run_id"`
			Status  string `json:"status" yaml:"status"`
			Summary any    `json:"summary" yaml:"summary"`
			Records any    `json:"records" yaml:"records"`
			RawText string `json:"raw_text,omitempty" yaml:"raw_text,omitempty"`
		}{
			RunID:   run.ID,
			Status:  string(run.Status),
			Summary: run.Result.Summary,
			Records: view,
			RawText: run.Result.RawText,
		}
		return writeOutput("", out, enrichFormat)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichSource, "csv", "", "contact CSV: local path, http(s) URL, or ftp URL (required)")
	enrichCmd.Flags().StringVar(&enrichPrompt, "prompt", "", "override the configured enrichment prompt")
	enrichCmd.Flags().StringVar(&enrichAgent, "agent", "", "agent ID (default from config)")
	enrichCmd.Flags().StringVar(&enrichBackend, "backend", "", "platform backend: lyzr or gemini (default from config)")
	enrichCmd.Flags().StringVar(&enrichFilter, "filter", "all", "record filter: all, low_confidence, or decision_makers")
	enrichCmd.Flags().StringVar(&enrichSortBy, "sort-by", "", "sort field: name, company, revenue, sector, decision_maker, job_title, confidence")
	enrichCmd.Flags().BoolVar(&enrichDesc, "desc", false, "sort descending")
	enrichCmd.Flags().StringVar(&enrichOutput, "export", "", "write the filtered records to this CSV file")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", "json", "stdout format: json or yaml")
	enrichCmd.Flags().StringVar(&enrichNotionDB, "notion-db", "", "also export records to this Notion database")
	enrichCmd.Flags().BoolVar(&enrichOffline, "offline", false, "use the stub platform (no API keys needed)")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "parse the CSV and print rows, skip the platform")
	_ = enrichCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(enrichCmd)
}
