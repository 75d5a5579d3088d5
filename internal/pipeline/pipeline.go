// Package pipeline orchestrates the stages of the review-audit workflow:
// heuristic labeling, feature fitting, class rebalancing, classifier
// training, and prediction over stored or freshly ingested reviews.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/config"
	"github.com/sells-group/review-audit/internal/feature"
	"github.com/sells-group/review-audit/internal/forest"
	"github.com/sells-group/review-audit/internal/heuristic"
	"github.com/sells-group/review-audit/internal/model"
	"github.com/sells-group/review-audit/internal/modelio"
	"github.com/sells-group/review-audit/internal/resample"
	"github.com/sells-group/review-audit/internal/store"
)

// ErrNoLabeledReviews is returned when training is requested before any
// labels have been computed.
var ErrNoLabeledReviews = eris.New("pipeline: no labeled reviews in store")

// Pipeline orchestrates labeling, training, and prediction.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
}

// New creates a Pipeline backed by the given store.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: st}
}

// LabelSummary reports the class balance after a labeling run.
type LabelSummary struct {
	Total      int `json:"total"`
	LikelyFake int `json:"likely_fake"`
	Genuine    int `json:"genuine"`
}

// Label computes heuristic labels for stored reviews and persists the
// snapshot. A limit of 0 labels every stored review.
func (p *Pipeline) Label(ctx context.Context, limit int) (*LabelSummary, error) {
	reviews, err := p.store.ListReviews(ctx, store.ReviewFilter{Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list reviews")
	}
	if len(reviews) == 0 {
		return &LabelSummary{}, nil
	}

	labeler := heuristic.NewLabeler(p.cfg.Heuristic)
	labeled := make([]model.LabeledReview, 0, len(reviews))
	summary := &LabelSummary{Total: len(reviews)}
	for _, r := range reviews {
		lr := labeler.LabelReview(r)
		if lr.Labels.LikelyFake {
			summary.LikelyFake++
		} else {
			summary.Genuine++
		}
		labeled = append(labeled, lr)
	}

	if err := p.store.SaveLabels(ctx, labeled); err != nil {
		return nil, eris.Wrap(err, "pipeline: save labels")
	}

	zap.L().Info("pipeline: labeling complete",
		zap.Int("total", summary.Total),
		zap.Int("likely_fake", summary.LikelyFake),
		zap.Int("genuine", summary.Genuine))
	return summary, nil
}

// featureRows converts labeled reviews to feature inputs and a label vector.
func featureRows(labeled []model.LabeledReview) ([]feature.Row, model.LabelVector) {
	rows := make([]feature.Row, 0, len(labeled))
	y := make(model.LabelVector, 0, len(labeled))
	for _, lr := range labeled {
		rows = append(rows, feature.Row{
			Text:             lr.Review.Text,
			Stars:            lr.Review.Stars,
			ExtremeSentiment: lr.Labels.ExtremeSentiment,
			PoorQuality:      lr.Labels.PoorQuality,
		})
		y = append(y, lr.Labels.Class())
	}
	return rows, y
}

// Train fits the feature transform on the labeled corpus, rebalances the
// training data, trains the forest, and returns the resulting bundle.
func (p *Pipeline) Train(ctx context.Context) (*modelio.Bundle, error) {
	labeled, err := p.store.ListLabeled(ctx, 0)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list labeled")
	}
	if len(labeled) == 0 {
		return nil, ErrNoLabeledReviews
	}

	rows, y := featureRows(labeled)

	transform, err := feature.Fit(rows, p.cfg.Feature)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fit transform")
	}
	x, err := transform.Apply(rows)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: apply transform")
	}

	ts, err := model.NewTrainingSet(x, y)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: assemble training set")
	}

	balanced, err := resample.Apply(resample.Strategy(p.cfg.Resample.Strategy), ts, p.cfg.Resample.Seed)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: rebalance")
	}
	zap.L().Info("pipeline: rebalanced training data",
		zap.String("strategy", p.cfg.Resample.Strategy),
		zap.Int("before", ts.Len()),
		zap.Int("after", balanced.Len()))

	f, err := forest.Train(ctx, balanced, p.cfg.Forest)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: train forest")
	}

	return modelio.New(transform, f), nil
}

// Predict applies a trained bundle to the given reviews.
func (p *Pipeline) Predict(bundle *modelio.Bundle, reviews []model.Review) ([]model.Prediction, error) {
	if len(reviews) == 0 {
		return nil, nil
	}

	labeler := heuristic.NewLabeler(p.cfg.Heuristic)
	rows := make([]feature.Row, 0, len(reviews))
	for _, r := range reviews {
		labels := labeler.Label(r.Text, r.Stars)
		rows = append(rows, feature.Row{
			Text:             r.Text,
			Stars:            r.Stars,
			ExtremeSentiment: labels.ExtremeSentiment,
			PoorQuality:      labels.PoorQuality,
		})
	}

	x, err := bundle.Transform.Apply(rows)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: apply transform")
	}
	probs := bundle.Forest.PredictProba(x)

	preds := make([]model.Prediction, len(reviews))
	for i, r := range reviews {
		preds[i] = model.Prediction{
			ReviewID:        r.ReviewID,
			LikelyFake:      probs[i] >= 0.5,
			FakeProbability: probs[i],
		}
	}
	return preds, nil
}
