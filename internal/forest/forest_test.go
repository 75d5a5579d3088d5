package forest

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/review-audit/internal/model"
)

// separableSet builds two well-separated clusters: class 0 near the
// origin, class 1 near (10, 10).
func separableSet(nPerClass int) model.TrainingSet {
	var x model.FeatureMatrix
	var y model.LabelVector
	for i := 0; i < nPerClass; i++ {
		x = append(x, []float64{float64(i%5) * 0.1, float64(i%3) * 0.1})
		y = append(y, 0)
		x = append(x, []float64{10 + float64(i%5)*0.1, 10 + float64(i%3)*0.1})
		y = append(y, 1)
	}
	return model.TrainingSet{X: x, Y: y}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Trees = 20
	return cfg
}

func TestTrain_SeparableData(t *testing.T) {
	ts := separableSet(30)

	f, err := Train(context.Background(), ts, testConfig())
	require.NoError(t, err)
	require.Len(t, f.Roots, 20)

	preds := f.Predict(ts.X)
	require.Len(t, preds, ts.Len())
	assert.Equal(t, ts.Y, preds, "separable clusters should classify perfectly")
}

func TestTrain_EmptyTrainingSet(t *testing.T) {
	_, err := Train(context.Background(), model.TrainingSet{}, testConfig())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyTrainingSet))
}

func TestTrain_SingleClass(t *testing.T) {
	ts := model.TrainingSet{
		X: model.FeatureMatrix{{1, 2}, {3, 4}},
		Y: model.LabelVector{1, 1},
	}
	_, err := Train(context.Background(), ts, testConfig())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSingleClass))
}

func TestTrain_InvalidTreeCount(t *testing.T) {
	cfg := testConfig()
	cfg.Trees = 0
	_, err := Train(context.Background(), separableSet(5), cfg)
	require.Error(t, err)
}

func TestTrain_Deterministic(t *testing.T) {
	ts := separableSet(20)
	cfg := testConfig()

	a, err := Train(context.Background(), ts, cfg)
	require.NoError(t, err)
	b, err := Train(context.Background(), ts, cfg)
	require.NoError(t, err)

	// Per-tree seeding makes the ensemble independent of goroutine
	// scheduling.
	assert.Equal(t, a.Roots, b.Roots)
}

func TestTrain_SeedChangesForest(t *testing.T) {
	ts := separableSet(20)

	cfgA := testConfig()
	cfgB := testConfig()
	cfgB.Seed = 12345

	a, err := Train(context.Background(), ts, cfgA)
	require.NoError(t, err)
	b, err := Train(context.Background(), ts, cfgB)
	require.NoError(t, err)

	assert.NotEqual(t, a.Roots, b.Roots)
}

func TestPredictProba_Bounds(t *testing.T) {
	ts := separableSet(20)
	f, err := Train(context.Background(), ts, testConfig())
	require.NoError(t, err)

	probs := f.PredictProba(ts.X)
	require.Len(t, probs, ts.Len())
	for i, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if ts.Y[i] == 1 {
			assert.Greater(t, p, 0.5, "row %d", i)
		} else {
			assert.Less(t, p, 0.5, "row %d", i)
		}
	}
}

func TestPredict_ConcurrentReaders(t *testing.T) {
	ts := separableSet(15)
	f, err := Train(context.Background(), ts, testConfig())
	require.NoError(t, err)

	done := make(chan model.LabelVector, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- f.Predict(ts.X) }()
	}
	want := f.Predict(ts.X)
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}

func TestBalancedWeights(t *testing.T) {
	ts := model.TrainingSet{
		X: model.FeatureMatrix{{0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}, {1}},
		Y: model.LabelVector{0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	}
	w := balancedWeights(ts)

	// 9:1 imbalance: the minority weight is 9x the majority weight.
	assert.InDelta(t, 9.0, w[1]/w[0], 1e-9)
}
