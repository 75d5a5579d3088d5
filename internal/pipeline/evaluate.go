package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/evaluate"
	"github.com/sells-group/review-audit/internal/feature"
	"github.com/sells-group/review-audit/internal/forest"
	"github.com/sells-group/review-audit/internal/model"
	"github.com/sells-group/review-audit/internal/resample"
)

// foldTrainer retrains the classifier for a single fold. Rebalancing is
// applied to the fold's training partition only; test rows keep their
// natural class distribution.
func (p *Pipeline) foldTrainer() evaluate.Trainer {
	return evaluate.TrainerFunc(func(ctx context.Context, train model.TrainingSet, testX model.FeatureMatrix) (model.LabelVector, error) {
		balanced, err := resample.Apply(resample.Strategy(p.cfg.Resample.Strategy), train, p.cfg.Resample.Seed)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: rebalance fold")
		}
		f, err := forest.Train(ctx, balanced, p.cfg.Forest)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: train fold")
		}
		return f.Predict(testX), nil
	})
}

// Evaluate runs cross-validation over the labeled corpus. When save is
// true the aggregate result is persisted to the store.
func (p *Pipeline) Evaluate(ctx context.Context, save bool) (*evaluate.Report, error) {
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

	report, err := evaluate.CrossValidate(ctx, p.foldTrainer(), x, y, p.cfg.Evaluate)
	if err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: evaluation complete",
		zap.String("strategy", report.Strategy),
		zap.Int("folds", len(report.Folds)),
		zap.Float64("macro_f1", report.MacroF1))

	if save {
		payload, err := json.Marshal(report)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: marshal report")
		}
		eval := model.Evaluation{
			ID:        uuid.NewString(),
			Strategy:  report.Strategy,
			Folds:     len(report.Folds),
			MacroF1:   report.MacroF1,
			Report:    payload,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.store.SaveEvaluation(ctx, eval); err != nil {
			return nil, eris.Wrap(err, "pipeline: save evaluation")
		}
	}

	return report, nil
}
