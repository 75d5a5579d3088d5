package resample

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/review-audit/internal/model"
)

// imbalancedSet builds a training set with nMajority class-0 rows and
// nMinority class-1 rows in two separable clusters.
func imbalancedSet(nMajority, nMinority int) model.TrainingSet {
	x := make(model.FeatureMatrix, 0, nMajority+nMinority)
	y := make(model.LabelVector, 0, nMajority+nMinority)
	for i := 0; i < nMajority; i++ {
		x = append(x, []float64{float64(i) * 0.01, 0})
		y = append(y, 0)
	}
	for i := 0; i < nMinority; i++ {
		x = append(x, []float64{10 + float64(i)*0.01, 1})
		y = append(y, 1)
	}
	return model.TrainingSet{X: x, Y: y}
}

func TestOverSample_BalancesClasses(t *testing.T) {
	ts := imbalancedSet(50, 8)

	out, err := OverSample(ts, 42)
	require.NoError(t, err)

	counts := out.ClassCounts()
	assert.Equal(t, 50, counts[0])
	assert.Equal(t, 50, counts[1])
	assert.Equal(t, len(out.X), len(out.Y), "pairing invariant")

	// Synthetic point count matches the class gap exactly.
	assert.Equal(t, ts.Len()+42, out.Len())
}

func TestOverSample_SyntheticPointsInterpolate(t *testing.T) {
	ts := imbalancedSet(20, 5)

	out, err := OverSample(ts, 7)
	require.NoError(t, err)

	// Synthetic rows are appended after the originals and must lie within
	// the minority cluster's bounding box (interpolation cannot leave it).
	for i := ts.Len(); i < out.Len(); i++ {
		require.Equal(t, 1, out.Y[i])
		assert.GreaterOrEqual(t, out.X[i][0], 10.0)
		assert.LessOrEqual(t, out.X[i][0], 10.05)
		assert.Equal(t, 1.0, out.X[i][1])
	}
}

func TestOverSample_Deterministic(t *testing.T) {
	ts := imbalancedSet(30, 4)

	a, err := OverSample(ts, 99)
	require.NoError(t, err)
	b, err := OverSample(ts, 99)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestOverSample_SingleMinoritySample(t *testing.T) {
	ts := imbalancedSet(5, 1)

	out, err := OverSample(ts, 1)
	require.NoError(t, err)

	counts := out.ClassCounts()
	assert.Equal(t, 5, counts[0])
	assert.Equal(t, 5, counts[1])

	// Only one minority sample exists: synthetics are duplicates of it.
	for i := ts.Len(); i < out.Len(); i++ {
		assert.Equal(t, ts.X[5], out.X[i])
	}
}

func TestDownSample_BalancesClasses(t *testing.T) {
	ts := imbalancedSet(50, 8)

	out, err := DownSample(ts, 42)
	require.NoError(t, err)

	counts := out.ClassCounts()
	assert.Equal(t, 8, counts[0])
	assert.Equal(t, 8, counts[1])
	assert.Equal(t, len(out.X), len(out.Y), "pairing invariant")
}

func TestDownSample_MinorityIntact(t *testing.T) {
	ts := imbalancedSet(50, 8)

	out, err := DownSample(ts, 42)
	require.NoError(t, err)

	// Every minority row survives unchanged, in the original order.
	var got model.FeatureMatrix
	for i, c := range out.Y {
		if c == 1 {
			got = append(got, out.X[i])
		}
	}
	var want model.FeatureMatrix
	for i, c := range ts.Y {
		if c == 1 {
			want = append(want, ts.X[i])
		}
	}
	assert.Equal(t, want, got)
}

func TestDownSample_Deterministic(t *testing.T) {
	ts := imbalancedSet(40, 6)

	a, err := DownSample(ts, 7)
	require.NoError(t, err)
	b, err := DownSample(ts, 7)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDownSample_DifferentSeedsDiffer(t *testing.T) {
	ts := imbalancedSet(200, 3)

	a, err := DownSample(ts, 1)
	require.NoError(t, err)
	b, err := DownSample(ts, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a.X, b.X)
}

func TestApply_StrategySwitch(t *testing.T) {
	ts := imbalancedSet(20, 4)

	over, err := Apply(Oversample, ts, 3)
	require.NoError(t, err)
	assert.Equal(t, 40, over.Len())

	down, err := Apply(Downsample, ts, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, down.Len())

	_, err = Apply(Strategy("bogus"), ts, 3)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownStrategy))
}

func TestResample_SingleClass(t *testing.T) {
	ts := model.TrainingSet{
		X: model.FeatureMatrix{{1}, {2}, {3}},
		Y: model.LabelVector{0, 0, 0},
	}

	_, err := OverSample(ts, 1)
	assert.True(t, eris.Is(err, ErrSingleClass))

	_, err = DownSample(ts, 1)
	assert.True(t, eris.Is(err, ErrSingleClass))
}

func TestResample_AlreadyBalanced(t *testing.T) {
	ts := imbalancedSet(10, 10)

	out, err := OverSample(ts, 5)
	require.NoError(t, err)
	assert.Equal(t, ts, out)

	out, err = DownSample(ts, 5)
	require.NoError(t, err)
	assert.Equal(t, ts, out)
}
