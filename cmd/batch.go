package main

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/fetcher"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/pipeline"
)

var (
	batchConcurrency int
	batchBackend     string
	batchOffline     bool
	batchPrompt      string
	batchAgent       string
	batchExportDir   string
	batchFormat      string
)

var batchCmd = &cobra.Command{
	Use:   "batch <source>...",
	Short: "Enrich several contact CSVs concurrently",
	Long: `Runs the enrichment pipeline over every source argument. Each source gets
its own run; one failing source does not abort the batch.

Examples:
  enrich-cli batch leads-*.csv --offline
  enrich-cli batch a.csv https://example.com/b.csv --concurrency 2 --export-dir out/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := initPlatform(ctx, batchBackend, batchOffline)
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p := pipeline.New(cfg.Pipeline, st, client)
		fc := fetcher.NewClient(cfg.Fetch)

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)

		var mu sync.Mutex
		var runs []*model.Run
		var succeeded, failed atomic.Int64

		for _, source := range args {
			g.Go(func() error {
				name, data, err := fc.Fetch(gCtx, source)
				if err == nil {
					var run *model.Run
					run, err = p.Run(gCtx, pipeline.Input{
						Source:   source,
						Filename: name,
						Data:     data,
						Prompt:   batchPrompt,
						AgentID:  defaultAgentID(batchAgent),
					})
					if err == nil {
						succeeded.Add(1)
						mu.Lock()
						runs = append(runs, run)
						mu.Unlock()

						if batchExportDir != "" {
							exportBatchRun(source, run)
						}
						return nil
					}
				}

				// Individual failures are logged, not propagated.
				failed.Add(1)
				zap.L().Error("batch: source failed",
					zap.String("source", source),
					zap.Error(err),
				)
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Info("batch complete",
			zap.Int("total", len(args)),
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		if failed.Load() > 0 && succeeded.Load() == 0 {
			return eris.New("batch: every source failed")
		}
		return writeOutput("", runs, batchFormat)
	},
}

// exportBatchRun writes one run's records next to the others in the export
// directory, named after the source file.
func exportBatchRun(source string, run *model.Run) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	path := filepath.Join(batchExportDir, base+"-enriched.csv")
	written, err := pipeline.ExportCSV(run.Result.Records, path)
	if err != nil {
		zap.L().Error("batch: export failed", zap.String("path", path), zap.Error(err))
		return
	}
	if !written {
		zap.L().Warn("batch: no records to export", zap.String("source", source))
	}
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "max sources processed concurrently")
	batchCmd.Flags().StringVar(&batchBackend, "backend", "", "platform backend: lyzr or gemini (default from config)")
	batchCmd.Flags().BoolVar(&batchOffline, "offline", false, "use the stub platform (no API keys needed)")
	batchCmd.Flags().StringVar(&batchPrompt, "prompt", "", "override the configured enrichment prompt")
	batchCmd.Flags().StringVar(&batchAgent, "agent", "", "agent ID (default from config)")
	batchCmd.Flags().StringVar(&batchExportDir, "export-dir", "", "write one enriched CSV per source into this directory")
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "stdout format: json or yaml")
	rootCmd.AddCommand(batchCmd)
}
