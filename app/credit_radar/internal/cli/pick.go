package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/display"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
)

// newPickCmd 交互式：选择文件、分析、展示，再确认是否导出
func newPickCmd(app *App) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Interactively choose files to analyze",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				input = app.cfg.Batch.InputDir
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			eng, _, err := app.engine(ctx)
			if err != nil {
				return err
			}
			docs, err := source.Discover(input)
			if err != nil {
				return &ExitError{Code: ExitFatal, Err: err}
			}
			if len(docs) == 0 {
				fmt.Fprintf(w, "👆 No company files in %s\n", input)
				return &ExitError{Code: ExitNothingDone, Err: engine.ErrNothingProcessed}
			}

			chosen, err := promptForDocuments(docs)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "📂 %d files identified.\n", len(chosen))

			outcome, runErr := eng.Run(ctx, chosen, engine.RunOptions{Workers: app.cfg.Batch.Workers, Progress: printProgress(w)})
			fmt.Fprintln(w, "✅ Processing Complete!")

			report, err := outcome.Report()
			if err != nil {
				fmt.Fprintln(w, display.RenderDiagnostics(outcome.Diagnostics))
				return &ExitError{Code: ExitNothingDone, Err: err}
			}
			fmt.Fprintln(w, display.RenderSummary(outcome.Stats()))
			fmt.Fprintln(w, display.RenderTable(report))

			save := true
			if err := survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Save consolidated report to %s?", app.cfg.Batch.OutputDir),
				Default: true,
			}, &save); err != nil {
				return err
			}
			if !save {
				fmt.Fprintln(w, display.RenderDiagnostics(outcome.Diagnostics))
				if runErr != nil {
					return &ExitError{Code: ExitFatal, Err: runErr}
				}
				return nil
			}
			return finishRun(w, app.cfg.Batch.OutputDir, outcome, runErr)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input directory (default from config, data/input)")
	return cmd
}

func promptForDocuments(docs []source.Document) ([]source.Document, error) {
	options := make([]string, 0, len(docs))
	for _, d := range docs {
		options = append(options, d.Name)
	}

	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Select company files to analyze:",
		Options: options,
		Help:    "Use space to select, enter to confirm.",
		Default: options,
	}
	err := survey.AskOne(prompt, &selected, survey.WithValidator(func(val interface{}) error {
		answers, ok := val.([]survey.OptionAnswer)
		if !ok {
			return fmt.Errorf("invalid selection type")
		}
		if len(answers) == 0 {
			return fmt.Errorf("you must select at least one file")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return selectDocuments(docs, selected), nil
}

// selectDocuments 按原有顺序保留被选中的文档
func selectDocuments(docs []source.Document, names []string) []source.Document {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []source.Document
	for _, d := range docs {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out
}
