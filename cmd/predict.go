package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/review-audit/internal/model"
	"github.com/sells-group/review-audit/internal/modelio"
	"github.com/sells-group/review-audit/internal/pipeline"
	"github.com/sells-group/review-audit/internal/store"
)

var (
	predictBundle string
	predictInput  string
	predictFormat string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score reviews with a trained model",
	Long:  "Loads a model bundle from a file path or the store, scores reviews from a file or the store, and prints labels with fake probabilities.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		bundle, err := resolveBundle(ctx, st, predictBundle)
		if err != nil {
			return err
		}

		var reviews []model.Review
		if predictInput != "" {
			reviews, err = readInputReviews(ctx, predictInput)
		} else {
			reviews, err = st.ListReviews(ctx, store.ReviewFilter{})
		}
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			fmt.Fprintln(os.Stderr, "No reviews to score.")
			return nil
		}

		p := pipeline.New(cfg, st)
		preds, err := p.Predict(bundle, reviews)
		if err != nil {
			return err
		}

		switch predictFormat {
		case "csv":
			return writePredictionsCSV(os.Stdout, preds)
		case "table", "":
			return writePredictionsTable(os.Stdout, preds)
		default:
			return eris.Errorf("unsupported format %q (want table or csv)", predictFormat)
		}
	},
}

// resolveBundle loads a model bundle from a file path when one exists,
// otherwise from the store by ID. "latest" picks the newest stored bundle.
func resolveBundle(ctx context.Context, st store.Store, ref string) (*modelio.Bundle, error) {
	if _, err := os.Stat(ref); err == nil {
		return modelio.LoadFile(ref)
	}

	var payload []byte
	var err error
	if ref == "latest" {
		_, payload, err = st.LatestBundle(ctx)
	} else {
		payload, err = st.GetBundle(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	return modelio.Decode(payload)
}

func writePredictionsTable(out io.Writer, preds []model.Prediction) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REVIEW_ID\tLIKELY_FAKE\tPROBABILITY")
	for _, p := range preds {
		fmt.Fprintf(w, "%s\t%t\t%.4f\n", p.ReviewID, p.LikelyFake, p.FakeProbability)
	}
	return w.Flush()
}

func writePredictionsCSV(out io.Writer, preds []model.Prediction) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"review_id", "likely_fake", "fake_probability"}); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	for _, p := range preds {
		row := []string{p.ReviewID, strconv.FormatBool(p.LikelyFake), strconv.FormatFloat(p.FakeProbability, 'f', 6, 64)}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

func init() {
	predictCmd.Flags().StringVar(&predictBundle, "bundle", "latest", "model bundle: file path, store ID, or \"latest\"")
	predictCmd.Flags().StringVar(&predictInput, "input", "", "score reviews from this file instead of the store")
	predictCmd.Flags().StringVar(&predictFormat, "format", "table", "output format: table or csv")
	rootCmd.AddCommand(predictCmd)
}
