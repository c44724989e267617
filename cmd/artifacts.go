package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/fetcher"
)

var (
	artifactsDownload string
	artifactsFormat   string
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts <run-id>",
	Short: "List a run's generated output files, optionally downloading them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if run.Result == nil || len(run.Result.Artifacts) == 0 {
			zap.L().Info("run has no artifacts", zap.String("run_id", run.ID))
			return writeOutput("", []any{}, artifactsFormat)
		}

		if artifactsDownload != "" {
			if err := os.MkdirAll(artifactsDownload, 0o755); err != nil {
				return eris.Wrap(err, "artifacts: create download dir")
			}
			hf := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{UserAgent: cfg.Fetch.UserAgent})
			for _, a := range run.Result.Artifacts {
				if a.FileURL == "" {
					continue
				}
				name := a.Name
				if name == "" {
					name = filepath.Base(a.FileURL)
				}
				if err := downloadArtifact(cmd, hf, a.FileURL, filepath.Join(artifactsDownload, name)); err != nil {
					zap.L().Error("artifact download failed",
						zap.String("url", a.FileURL), zap.Error(err))
				}
			}
		}

		return writeOutput("", run.Result.Artifacts, artifactsFormat)
	},
}

func downloadArtifact(cmd *cobra.Command, hf *fetcher.HTTPFetcher, url, path string) error {
	body, err := hf.Download(cmd.Context(), url)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "artifacts: create %s", path)
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		return eris.Wrapf(err, "artifacts: write %s", path)
	}
	zap.L().Info("artifact downloaded", zap.String("path", path), zap.Int64("bytes", n))
	return nil
}

func init() {
	artifactsCmd.Flags().StringVar(&artifactsDownload, "download", "", "download artifacts into this directory")
	artifactsCmd.Flags().StringVar(&artifactsFormat, "format", "json", "stdout format: json or yaml")
	rootCmd.AddCommand(artifactsCmd)
}
