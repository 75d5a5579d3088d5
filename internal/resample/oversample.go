package resample

import (
	"math"
	"sort"

	"github.com/sells-group/review-audit/internal/model"
)

// smoteNeighbors is the neighborhood size used for interpolation, capped
// at minority size - 1 when the minority class is smaller.
const smoteNeighbors = 5

// OverSample synthesizes minority-class rows until the minority count
// equals the majority count. Each synthetic row interpolates between a
// randomly chosen minority row and one of its nearest same-class
// neighbors at a random gap in [0, 1). Original rows are preserved in
// their input order; synthetic rows are appended.
func OverSample(ts model.TrainingSet, seed int64) (model.TrainingSet, error) {
	split, err := splitClasses(ts)
	if err != nil {
		return model.TrainingSet{}, err
	}

	gap := len(split.majority) - len(split.minority)
	if gap == 0 {
		return ts, nil
	}

	rng := newRNG(seed)
	k := smoteNeighbors
	if k > len(split.minority)-1 {
		k = len(split.minority) - 1
	}

	// Precompute the k nearest minority neighbors of each minority row.
	neighbors := nearestNeighbors(ts.X, split.minority, k)

	x := make(model.FeatureMatrix, 0, ts.Len()+gap)
	y := make(model.LabelVector, 0, ts.Len()+gap)
	x = append(x, ts.X...)
	y = append(y, ts.Y...)

	for i := 0; i < gap; i++ {
		pick := rng.Intn(len(split.minority))
		base := ts.X[split.minority[pick]]

		var other []float64
		if k == 0 {
			// Single minority sample: duplicate it.
			other = base
		} else {
			other = ts.X[neighbors[pick][rng.Intn(k)]]
		}

		x = append(x, interpolate(base, other, rng.Float64()))
		y = append(y, split.minorityClass)
	}

	return model.TrainingSet{X: x, Y: y}, nil
}

// interpolate returns a + t*(b-a) element-wise.
func interpolate(a, b []float64, t float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + t*(b[i]-a[i])
	}
	return out
}

// nearestNeighbors returns, for each row index in idx, the k nearest
// other rows of idx by Euclidean distance. Distance ties break on row
// order so the result is deterministic.
func nearestNeighbors(x model.FeatureMatrix, idx []int, k int) [][]int {
	out := make([][]int, len(idx))
	for i, a := range idx {
		type cand struct {
			row  int
			dist float64
		}
		cands := make([]cand, 0, len(idx)-1)
		for j, b := range idx {
			if i == j {
				continue
			}
			cands = append(cands, cand{row: b, dist: euclidean(x[a], x[b])})
		}
		sort.SliceStable(cands, func(p, q int) bool { return cands[p].dist < cands[q].dist })

		n := k
		if n > len(cands) {
			n = len(cands)
		}
		rows := make([]int, n)
		for j := 0; j < n; j++ {
			rows[j] = cands[j].row
		}
		out[i] = rows
	}
	return out
}

// euclidean computes the L2 distance between two equal-length vectors.
func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
