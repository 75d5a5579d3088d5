package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/model"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the labeled dataset as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		labeled, err := st.ListLabeled(ctx, 0)
		if err != nil {
			return err
		}
		if len(labeled) == 0 {
			return eris.New("no labeled reviews in store; run label first")
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return eris.Wrapf(err, "create %s", exportOutput)
		}
		defer f.Close() //nolint:errcheck

		if err := writeLabeledCSV(f, labeled); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("output", exportOutput),
			zap.Int("rows", len(labeled)),
		)
		return nil
	},
}

func writeLabeledCSV(f io.Writer, labeled []model.LabeledReview) error {
	w := csv.NewWriter(f)
	header := []string{"review_id", "user_id", "business_id", "stars", "text",
		"extreme_sentiment", "poor_quality", "likely_fake"}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	for _, lr := range labeled {
		r, l := lr.Review, lr.Labels
		row := []string{
			r.ReviewID, r.UserID, r.BusinessID, strconv.Itoa(r.Stars), r.Text,
			strconv.FormatBool(l.ExtremeSentiment),
			strconv.FormatBool(l.PoorQuality),
			strconv.FormatBool(l.LikelyFake),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "path for the labeled CSV (required)")
	_ = exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}
