package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/review-audit/internal/model"
)

func TestMacroF1_PerfectPrediction(t *testing.T) {
	truth := model.LabelVector{0, 0, 1, 1, 0, 1}
	assert.InDelta(t, 1.0, MacroF1(truth, truth), 1e-9)
}

func TestMacroF1_Bounds(t *testing.T) {
	cases := []struct {
		truth, pred model.LabelVector
	}{
		{model.LabelVector{0, 1, 0, 1}, model.LabelVector{1, 0, 1, 0}},
		{model.LabelVector{0, 0, 0, 1}, model.LabelVector{0, 0, 0, 0}},
		{model.LabelVector{1, 1, 1, 1}, model.LabelVector{1, 1, 1, 1}},
	}
	for _, c := range cases {
		f1 := MacroF1(c.truth, c.pred)
		assert.GreaterOrEqual(t, f1, 0.0)
		assert.LessOrEqual(t, f1, 1.0)
	}
}

func TestMacroF1_MajorityClassPredictor(t *testing.T) {
	// Under severe imbalance, a model that always predicts the majority
	// class must score near 0.5, not near 1.0: it gets a high F1 on the
	// majority class and exactly 0 on the minority class.
	var truth, pred model.LabelVector
	for i := 0; i < 990; i++ {
		truth = append(truth, 0)
		pred = append(pred, 0)
	}
	for i := 0; i < 10; i++ {
		truth = append(truth, 1)
		pred = append(pred, 0)
	}

	f1 := MacroF1(truth, pred)
	assert.InDelta(t, 0.5, f1, 0.01)
	assert.Less(t, f1, 0.51)
}

func TestPerClassMetrics(t *testing.T) {
	truth := model.LabelVector{0, 0, 0, 1, 1, 1}
	pred := model.LabelVector{0, 0, 1, 1, 1, 0}

	metrics := PerClassMetrics(truth, pred)
	require.Len(t, metrics, 2)

	// Class 0: tp=2, fp=1, fn=1.
	assert.Equal(t, 0, metrics[0].Class)
	assert.InDelta(t, 2.0/3.0, metrics[0].Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, metrics[0].Recall, 1e-9)
	assert.Equal(t, 3, metrics[0].Support)

	// Class 1: tp=2, fp=1, fn=1.
	assert.Equal(t, 1, metrics[1].Class)
	assert.InDelta(t, 2.0/3.0, metrics[1].Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, metrics[1].Recall, 1e-9)
}

func TestPerClassMetrics_AbsentPredictedClass(t *testing.T) {
	truth := model.LabelVector{0, 0, 1}
	pred := model.LabelVector{0, 0, 0}

	metrics := PerClassMetrics(truth, pred)
	require.Len(t, metrics, 2)
	assert.Zero(t, metrics[1].Precision)
	assert.Zero(t, metrics[1].Recall)
	assert.Zero(t, metrics[1].F1)
}
