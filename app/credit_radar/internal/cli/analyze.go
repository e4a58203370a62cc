package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/display"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
)

// newAnalyzeCmd 单条模式：错误直接返回，不做批处理隔离
func newAnalyzeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a single financial statement",
		Long: `Analyze one company file and print the verdict.
Example: credit_radar analyze data/input/acme.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, an, err := app.engine(cmd.Context())
			if err != nil {
				return err
			}

			rec, err := source.FromFile(args[0]).Decode()
			if err != nil {
				return err
			}
			res, err := an.Analyze(cmd.Context(), rec)
			if err != nil {
				if raw := fault.RawResponse(err); raw != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "raw response:\n%s\n", raw)
				}
				return fmt.Errorf("%s: %w", fault.Classify(err), err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, display.RenderTable(&engine.ConsolidatedReport{
				GeneratedAt: res.AnalyzedAt,
				Columns:     model.Columns,
				Rows:        []model.AnalysisResult{*res},
			}))
			fmt.Fprintf(w, "\nSummary:   %s\nRationale: %s\n", res.Summary, res.Rationale)
			return nil
		},
	}
}
