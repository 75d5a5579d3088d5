package ingest

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/model"
)

// DecodeJSONArray decodes a JSON array of form [{...},{...}] streaming,
// sending each element to a channel. Both channels are closed when
// processing completes.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "ingest: read opening token")
			return
		}
		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("ingest: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "ingest: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled sending element")
				return
			}
		}
	}()

	return outCh, errCh
}

// ReadReviewsJSON parses a JSON array of review objects. Rows failing
// validation are counted and skipped.
func ReadReviewsJSON(ctx context.Context, r io.Reader) ([]model.Review, int, error) {
	recordCh, errCh := DecodeJSONArray[model.Review](ctx, r)

	var reviews []model.Review
	rejected := 0
	for review := range recordCh {
		if err := Validate(review); err != nil {
			rejected++
			zap.L().Debug("ingest: rejected json record", zap.Error(err))
			continue
		}
		reviews = append(reviews, review)
	}
	if err := <-errCh; err != nil {
		return nil, 0, err
	}

	return reviews, rejected, nil
}
