package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/display"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/export"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
)

func newBatchCmd(app *App) *cobra.Command {
	var input, output string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every financial statement in the input directory",
		Long: `Analyze every *.json, *.yaml, *.yml and *.hjson file in the input directory and
write consolidated_report_YYYYMMDD_HHMM.csv to the output directory.
Exit code is 0 when the run completed, 1 on fatal errors and 2 when nothing was processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				input = app.cfg.Batch.InputDir
			}
			if output == "" {
				output = app.cfg.Batch.OutputDir
			}
			if workers <= 0 {
				workers = app.cfg.Batch.Workers
			}
			return app.runBatch(cmd.Context(), cmd.OutOrStdout(), input, output, workers)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input directory (default from config, data/input)")
	cmd.Flags().StringVar(&output, "output", "", "Output directory (default from config, data/output)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of companies analyzed concurrently")

	return cmd
}

func (a *App) runBatch(ctx context.Context, w io.Writer, input, output string, workers int) error {
	eng, _, err := a.engine(ctx)
	if err != nil {
		return err
	}

	docs, err := source.Discover(input)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}
	fmt.Fprintln(w, "🚀 Starting Batch Credit Analysis Pipeline...")
	fmt.Fprintf(w, "📂 Files found: %d\n\n", len(docs))

	outcome, runErr := eng.Run(ctx, docs, engine.RunOptions{Workers: workers, Progress: printProgress(w)})
	return finishRun(w, output, outcome, runErr)
}

// finishRun 写出文件并打印结果，返回值决定退出码
func finishRun(w io.Writer, output string, outcome *engine.Outcome, runErr error) error {
	paths, err := export.SaveRun(output, outcome)
	fmt.Fprintln(w)
	if d := display.RenderDiagnostics(outcome.Diagnostics); d != "" {
		fmt.Fprintln(w, d)
	}
	if paths.Diagnostics != "" {
		fmt.Fprintf(w, "🩺 Diagnostics written to: %s\n", paths.Diagnostics)
	}

	switch {
	case errors.Is(err, engine.ErrNothingProcessed):
		fmt.Fprintln(w, "⚠️ No data processed.")
		if runErr != nil {
			return &ExitError{Code: ExitFatal, Err: runErr}
		}
		return &ExitError{Code: ExitNothingDone, Err: err}
	case err != nil:
		return &ExitError{Code: ExitFatal, Err: err}
	}

	fmt.Fprintln(w, display.RenderSummary(outcome.Stats()))
	fmt.Fprintf(w, "📊 Final report successfully generated: %s\n", paths.Report)
	if runErr != nil {
		return &ExitError{Code: ExitFatal, Err: runErr}
	}
	return nil
}
