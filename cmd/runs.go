package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/pipeline"
)

var (
	runsLimit  int
	runsFormat string
	runsFilter string
	runsSortBy string
	runsDesc   bool
	runsExport string
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored enrichment runs, or inspect one",
	Long: `Without arguments, lists the most recent runs. With a run ID, prints that
run including its records; --filter/--sort-by/--export re-query the stored
records the same way the enrich command does.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 0 {
			runs, err := st.ListRuns(ctx, runsLimit)
			if err != nil {
				return err
			}
			// Listing stays light: drop the result payloads.
			for _, r := range runs {
				r.Result = nil
			}
			return writeOutput("", runs, runsFormat)
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if run.Result == nil {
			return writeOutput("", run, runsFormat)
		}

		filter, err := pipeline.ParseFilterMode(runsFilter)
		if err != nil {
			return err
		}
		session := pipeline.NewSession(run.Result.Records)
		session.Filter = filter
		session.SortField = runsSortBy
		session.SortDesc = runsDesc
		view := session.View()

		if runsExport != "" {
			written, err := pipeline.ExportCSV(view, runsExport)
			if err != nil {
				return err
			}
			if !written {
				return eris.New("runs: no records matched; export file not written")
			}
		}

		run.Result.Records = view
		return writeOutput("", run, runsFormat)
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")
	runsCmd.Flags().StringVar(&runsFormat, "format", "json", "stdout format: json or yaml")
	runsCmd.Flags().StringVar(&runsFilter, "filter", "all", "record filter: all, low_confidence, or decision_makers")
	runsCmd.Flags().StringVar(&runsSortBy, "sort-by", "", "sort field for the run's records")
	runsCmd.Flags().BoolVar(&runsDesc, "desc", false, "sort descending")
	runsCmd.Flags().StringVar(&runsExport, "export", "", "write the run's filtered records to this CSV file")
	rootCmd.AddCommand(runsCmd)
}
