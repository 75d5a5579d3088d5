package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/review-audit/internal/pipeline"
)

var (
	evalStrategy string
	evalFolds    int
	evalSplits   int
	evalTestFrac float64
	evalSave     bool
	evalFormat   string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Cross-validate the classifier on the labeled corpus",
	Long:  "Runs stratified cross-validation with per-fold retraining, reports macro-F1 per fold and averaged, and optionally persists the result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if evalStrategy != "" {
			cfg.Evaluate.Strategy = evalStrategy
		}
		if evalFolds > 0 {
			cfg.Evaluate.Folds = evalFolds
		}
		if evalSplits > 0 {
			cfg.Evaluate.Splits = evalSplits
		}
		if evalTestFrac > 0 {
			cfg.Evaluate.TestFraction = evalTestFrac
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		report, err := p.Evaluate(ctx, evalSave)
		if err != nil {
			return err
		}

		switch evalFormat {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close() //nolint:errcheck
			return enc.Encode(report)
		case "table", "":
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FOLD\tMACRO_F1")
			for _, fold := range report.Folds {
				fmt.Fprintf(w, "%d\t%.4f\n", fold.Fold, fold.MacroF1)
			}
			fmt.Fprintf(w, "mean\t%.4f\n", report.MacroF1)
			return w.Flush()
		default:
			return eris.Errorf("unsupported format %q (want table or yaml)", evalFormat)
		}
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalStrategy, "strategy", "", "validation strategy: kfold or shuffle (default: config)")
	evaluateCmd.Flags().IntVar(&evalFolds, "folds", 0, "number of folds for kfold (default: config)")
	evaluateCmd.Flags().IntVar(&evalSplits, "splits", 0, "number of repeats for shuffle (default: config)")
	evaluateCmd.Flags().Float64Var(&evalTestFrac, "test-frac", 0, "test fraction for shuffle (default: config)")
	evaluateCmd.Flags().BoolVar(&evalSave, "save", false, "persist the evaluation result to the store")
	evaluateCmd.Flags().StringVar(&evalFormat, "format", "table", "output format: table or yaml")
	rootCmd.AddCommand(evaluateCmd)
}
