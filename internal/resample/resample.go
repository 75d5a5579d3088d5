// Package resample corrects class imbalance in a training set. Two
// interchangeable strategies are provided: synthetic minority oversampling
// and majority downsampling. Both are deterministic for a fixed seed, and
// both must only ever see the training partition.
package resample

import (
	"math/rand"

	"github.com/rotisserie/eris"

	"github.com/sells-group/review-audit/internal/model"
)

// Strategy selects the imbalance-correction method.
type Strategy string

const (
	Oversample Strategy = "oversample"
	Downsample Strategy = "downsample"
)

// ErrSingleClass is returned when the input does not contain at least two
// classes; neither strategy can balance a single-class set.
var ErrSingleClass = eris.New("resample: training set has fewer than two classes")

// ErrUnknownStrategy is returned for an unrecognized strategy name.
var ErrUnknownStrategy = eris.New("resample: unknown strategy")

// Apply balances ts with the given strategy. The output has equal class
// counts and preserves the feature/label pairing.
func Apply(strategy Strategy, ts model.TrainingSet, seed int64) (model.TrainingSet, error) {
	switch strategy {
	case Oversample:
		return OverSample(ts, seed)
	case Downsample:
		return DownSample(ts, seed)
	default:
		return model.TrainingSet{}, eris.Wrapf(ErrUnknownStrategy, "%q", strategy)
	}
}

// classSplit holds the row indices of the minority and majority classes.
type classSplit struct {
	minorityClass int
	majorityClass int
	minority      []int
	majority      []int
}

// splitClasses partitions row indices by class. Returns ErrSingleClass
// unless at least two classes are present; with more than two, the
// largest is the majority and the smallest the minority. Ties resolve to
// the lower class index to keep the split deterministic.
func splitClasses(ts model.TrainingSet) (classSplit, error) {
	byClass := make(map[int][]int)
	for i, c := range ts.Y {
		byClass[c] = append(byClass[c], i)
	}
	if len(byClass) < 2 {
		return classSplit{}, ErrSingleClass
	}

	classes := ts.Classes()
	split := classSplit{
		minorityClass: classes[0],
		majorityClass: classes[0],
	}
	for _, c := range classes {
		if len(byClass[c]) < len(byClass[split.minorityClass]) {
			split.minorityClass = c
		}
		if len(byClass[c]) > len(byClass[split.majorityClass]) {
			split.majorityClass = c
		}
	}
	if split.minorityClass == split.majorityClass {
		// All classes equal in size; treat the lowest as minority.
		split.minorityClass = classes[0]
		split.majorityClass = classes[1]
	}
	split.minority = byClass[split.minorityClass]
	split.majority = byClass[split.majorityClass]
	return split, nil
}

// newRNG builds the seeded source shared by both strategies.
func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
