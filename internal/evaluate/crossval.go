// Package evaluate estimates classifier performance with stratified
// cross-validation. The model is retrained from scratch on every fold's
// training partition; macro-averaged F1 is the reported metric because it
// weighs the minority class equally under severe imbalance.
package evaluate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/model"
)

// Trainer retrains a model on a training partition and predicts the test
// partition. Implementations must not reuse state across calls.
type Trainer interface {
	TrainPredict(ctx context.Context, train model.TrainingSet, testX model.FeatureMatrix) (model.LabelVector, error)
}

// TrainerFunc adapts a function to the Trainer interface.
type TrainerFunc func(ctx context.Context, train model.TrainingSet, testX model.FeatureMatrix) (model.LabelVector, error)

// TrainPredict implements Trainer.
func (f TrainerFunc) TrainPredict(ctx context.Context, train model.TrainingSet, testX model.FeatureMatrix) (model.LabelVector, error) {
	return f(ctx, train, testX)
}

// Config holds cross-validation settings.
type Config struct {
	Strategy     string  `yaml:"strategy" mapstructure:"strategy"`           // "kfold" or "shuffle"
	Folds        int     `yaml:"folds" mapstructure:"folds"`                 // kfold
	Splits       int     `yaml:"splits" mapstructure:"splits"`               // shuffle
	TestFraction float64 `yaml:"test_fraction" mapstructure:"test_fraction"` // shuffle
	Seed         int64   `yaml:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the standard evaluation settings.
func DefaultConfig() Config {
	return Config{
		Strategy:     "kfold",
		Folds:        5,
		Splits:       5,
		TestFraction: 0.2,
		Seed:         1,
	}
}

// Report is the aggregate cross-validation result.
type Report struct {
	Strategy string      `json:"strategy" yaml:"strategy"`
	MacroF1  float64     `json:"macro_f1" yaml:"macro_f1"` // mean over folds
	Folds    []FoldScore `json:"folds" yaml:"folds"`
}

// CrossValidate partitions (X, y) with the configured strategy, retrains
// via the Trainer on each training partition, and aggregates macro-F1
// across folds. The whole run is atomic from the caller's point of view;
// partial fold results are not exposed on error.
func CrossValidate(ctx context.Context, trainer Trainer, x model.FeatureMatrix, y model.LabelVector, cfg Config) (*Report, error) {
	if len(x) != len(y) {
		return nil, eris.Errorf("evaluate: feature/label length mismatch: %d vs %d", len(x), len(y))
	}

	var splits []split
	var err error
	switch cfg.Strategy {
	case "kfold":
		splits, err = stratifiedKFold(y, cfg.Folds, cfg.Seed)
	case "shuffle":
		splits, err = stratifiedShuffleSplit(y, cfg.Splits, cfg.TestFraction, cfg.Seed)
	default:
		return nil, eris.Errorf("evaluate: unknown strategy %q", cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	full := model.TrainingSet{X: x, Y: y}
	report := &Report{Strategy: cfg.Strategy}

	for i, sp := range splits {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "evaluate: cancelled")
		}

		train := full.Subset(sp.train)
		test := full.Subset(sp.test)

		pred, err := trainer.TrainPredict(ctx, train, test.X)
		if err != nil {
			return nil, eris.Wrapf(err, "evaluate: fold %d", i)
		}
		if len(pred) != len(test.Y) {
			return nil, eris.Errorf("evaluate: fold %d returned %d predictions for %d rows", i, len(pred), len(test.Y))
		}

		score := FoldScore{
			Fold:    i,
			MacroF1: MacroF1(test.Y, pred),
			Classes: PerClassMetrics(test.Y, pred),
		}
		report.Folds = append(report.Folds, score)

		zap.L().Debug("evaluate: fold complete",
			zap.Int("fold", i),
			zap.Float64("macro_f1", score.MacroF1),
			zap.Int("train_rows", train.Len()),
			zap.Int("test_rows", test.Len()),
		)
	}

	var sum float64
	for _, f := range report.Folds {
		sum += f.MacroF1
	}
	report.MacroF1 = sum / float64(len(report.Folds))

	return report, nil
}
