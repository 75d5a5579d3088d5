// Package forest implements a bagged ensemble of randomized decision
// trees for binary classification: bootstrap sampling per tree, random
// feature subsets per split, and class-weight balancing as a second
// imbalance safeguard on top of resampling. Training is deterministic for
// a fixed seed; a trained Forest is immutable and safe for concurrent
// prediction.
package forest

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/review-audit/internal/model"
)

// ErrEmptyTrainingSet is returned when Train receives no rows.
var ErrEmptyTrainingSet = eris.New("forest: empty training set")

// ErrSingleClass is returned when the label vector holds fewer than two
// classes; a usable model cannot be trained.
var ErrSingleClass = eris.New("forest: training labels contain a single class")

// Config holds the ensemble hyperparameters.
type Config struct {
	Trees    int   `yaml:"trees" mapstructure:"trees"`
	MaxDepth int   `yaml:"max_depth" mapstructure:"max_depth"`
	MinLeaf  int   `yaml:"min_leaf" mapstructure:"min_leaf"`
	Seed     int64 `yaml:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the standard ensemble settings.
func DefaultConfig() Config {
	return Config{
		Trees:    100,
		MaxDepth: 12,
		MinLeaf:  2,
		Seed:     1,
	}
}

// Forest is a trained ensemble. Immutable after Train.
type Forest struct {
	Config Config  `msgpack:"config"`
	Roots  []*node `msgpack:"roots"`
}

// Train builds the ensemble. Tree construction runs in parallel across
// trees, but each tree's randomness is seeded independently from
// cfg.Seed + tree index, so results do not depend on scheduling. The call
// blocks until every tree is built.
func Train(ctx context.Context, ts model.TrainingSet, cfg Config) (*Forest, error) {
	if ts.Len() == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(ts.Classes()) < 2 {
		return nil, ErrSingleClass
	}
	if cfg.Trees <= 0 {
		return nil, eris.Errorf("forest: tree count must be positive (got %d)", cfg.Trees)
	}

	params := treeParams{
		maxDepth:    cfg.MaxDepth,
		minLeaf:     cfg.MinLeaf,
		maxFeatures: int(math.Sqrt(float64(len(ts.X[0])))) + 1,
		classWeight: balancedWeights(ts),
	}

	roots := make([]*node, cfg.Trees)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < cfg.Trees; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))

			// Bootstrap sample with replacement.
			rows := make([]int, ts.Len())
			for j := range rows {
				rows[j] = rng.Intn(ts.Len())
			}

			roots[i] = buildTree(ts.X, ts.Y, rows, params, rng, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "forest: train")
	}

	return &Forest{Config: cfg, Roots: roots}, nil
}

// balancedWeights assigns each class a weight inversely proportional to
// its frequency, normalized so weights average to 1.
func balancedWeights(ts model.TrainingSet) map[int]float64 {
	counts := ts.ClassCounts()
	n := float64(ts.Len())
	k := float64(len(counts))

	weights := make(map[int]float64, len(counts))
	for c, count := range counts {
		weights[c] = n / (k * float64(count))
	}
	return weights
}

// PredictProba returns, per row, the fraction of trees voting class 1
// weighted by leaf probabilities.
func (f *Forest) PredictProba(x model.FeatureMatrix) []float64 {
	probs := make([]float64, len(x))
	for i, vec := range x {
		var sum float64
		for _, root := range f.Roots {
			sum += root.predictProb(vec)
		}
		probs[i] = sum / float64(len(f.Roots))
	}
	return probs
}

// Predict returns the majority-vote class per row: 1 when the ensemble
// probability reaches 0.5.
func (f *Forest) Predict(x model.FeatureMatrix) model.LabelVector {
	probs := f.PredictProba(x)
	labels := make(model.LabelVector, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			labels[i] = 1
		}
	}
	return labels
}
