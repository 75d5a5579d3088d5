// Package ingest reads review datasets from CSV and JSON sources into
// typed records, rejecting malformed rows instead of defaulting them.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/model"
)

// requiredColumns are the header names every review CSV must carry.
// Joined business/user attribute columns are optional.
var requiredColumns = []string{"review_id", "user_id", "business_id", "stars", "text"}

// StreamCSV reads CSV rows and sends them to a channel. The caller must
// consume the returned row channel; errors arrive on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // allow variable fields; validated downstream

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "ingest: read csv row")
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled sending row")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadReviewsCSV parses a header-mapped CSV of reviews. Rows failing
// validation are counted and skipped, never defaulted.
func ReadReviewsCSV(ctx context.Context, r io.Reader) ([]model.Review, int, error) {
	rowCh, errCh := StreamCSV(ctx, r)

	var header map[string]int
	var reviews []model.Review
	rejected := 0

	for row := range rowCh {
		if header == nil {
			h, err := mapHeader(row)
			if err != nil {
				return nil, 0, err
			}
			header = h
			continue
		}

		review, err := rowToReview(row, header)
		if err != nil {
			rejected++
			zap.L().Debug("ingest: rejected csv row", zap.Error(err))
			continue
		}
		reviews = append(reviews, review)
	}
	if err := <-errCh; err != nil {
		return nil, 0, err
	}

	return reviews, rejected, nil
}

// mapHeader builds a column index, requiring every mandatory column.
func mapHeader(row []string) (map[string]int, error) {
	header := make(map[string]int, len(row))
	for i, name := range row {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, eris.Errorf("ingest: csv missing required column %q", col)
		}
	}
	return header, nil
}

// rowToReview converts one CSV row, validating required fields.
func rowToReview(row []string, header map[string]int) (model.Review, error) {
	field := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	starsRaw := field("stars")
	stars, err := strconv.Atoi(starsRaw)
	if err != nil {
		return model.Review{}, eris.Errorf("ingest: invalid stars %q", starsRaw)
	}

	review := model.Review{
		ReviewID:   field("review_id"),
		UserID:     field("user_id"),
		BusinessID: field("business_id"),
		Stars:      stars,
		Text:       field("text"),
		Business: model.BusinessAttrs{
			Name:    field("business_name"),
			Address: field("address"),
			City:    field("city"),
			State:   field("state"),
		},
		User: model.UserAttrs{
			Name: field("user_name"),
		},
	}
	if v := field("user_review_count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			review.User.ReviewCount = n
		}
	}
	if v := field("user_average_stars"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			review.User.AverageStars = f
		}
	}
	if cats := field("categories"); cats != "" {
		review.Business.Categories = splitCategories(cats)
	}

	if err := Validate(review); err != nil {
		return model.Review{}, err
	}
	return review, nil
}

// splitCategories parses a semicolon- or comma-separated category list.
func splitCategories(s string) []string {
	sep := ";"
	if !strings.Contains(s, ";") {
		sep = ","
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
