package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/review-audit/internal/pipeline"
)

var labelLimit int

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Compute heuristic labels for stored reviews",
	Long:  "Scores stored reviews with the sentiment lexicon and quality heuristics, persists the label snapshot, and prints the resulting class balance.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		summary, err := p.Label(ctx, labelLimit)
		if err != nil {
			return err
		}

		if summary.Total == 0 {
			fmt.Fprintln(os.Stderr, "No reviews in store; run import first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLASS\tCOUNT\tSHARE")
		fmt.Fprintf(w, "likely_fake\t%d\t%.1f%%\n", summary.LikelyFake, 100*float64(summary.LikelyFake)/float64(summary.Total))
		fmt.Fprintf(w, "genuine\t%d\t%.1f%%\n", summary.Genuine, 100*float64(summary.Genuine)/float64(summary.Total))
		fmt.Fprintf(w, "total\t%d\t\n", summary.Total)
		return w.Flush()
	},
}

func init() {
	labelCmd.Flags().IntVar(&labelLimit, "limit", 0, "label at most N reviews (0 = all)")
	rootCmd.AddCommand(labelCmd)
}
