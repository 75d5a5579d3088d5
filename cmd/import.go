package main

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/ingest"
	"github.com/sells-group/review-audit/internal/model"
)

var (
	importInput  string
	importFormat string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a review dataset into the store",
	Long:  "Reads reviews from a CSV or JSON file, validates each record, and upserts valid rows into the store. Invalid rows are counted and skipped, never silently repaired.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := os.Open(importInput)
		if err != nil {
			return eris.Wrapf(err, "open %s", importInput)
		}
		defer f.Close() //nolint:errcheck

		format := importFormat
		if format == "" {
			format = formatFromPath(importInput)
		}

		var reviews []model.Review
		var rejected int
		switch format {
		case "csv":
			reviews, rejected, err = ingest.ReadReviewsCSV(ctx, f)
		case "json":
			reviews, rejected, err = ingest.ReadReviewsJSON(ctx, f)
		default:
			return eris.Errorf("unsupported format %q (want csv or json)", format)
		}
		if err != nil {
			return eris.Wrap(err, "read reviews")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertReviews(ctx, reviews)
		if err != nil {
			return eris.Wrap(err, "upsert reviews")
		}

		zap.L().Info("import complete",
			zap.String("input", importInput),
			zap.Int64("imported", n),
			zap.Int("rejected", rejected),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importInput, "input", "", "path to CSV or JSON file (required)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "input format: csv or json (default: from file extension)")
	_ = importCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importCmd)
}

func formatFromPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".json"):
		return "json"
	default:
		return "csv"
	}
}

// readInputReviews loads reviews from a file for commands that accept an
// --input override instead of reading the store.
func readInputReviews(ctx context.Context, path string) ([]model.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var reviews []model.Review
	var rejected int
	switch formatFromPath(path) {
	case "json":
		reviews, rejected, err = ingest.ReadReviewsJSON(ctx, f)
	default:
		reviews, rejected, err = ingest.ReadReviewsCSV(ctx, f)
	}
	if err != nil {
		return nil, eris.Wrap(err, "read reviews")
	}
	if rejected > 0 {
		zap.L().Warn("skipped invalid rows", zap.String("input", path), zap.Int("rejected", rejected))
	}
	return reviews, nil
}
