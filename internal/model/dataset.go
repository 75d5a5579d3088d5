package model

import (
	"sort"

	"github.com/rotisserie/eris"
)

// FeatureMatrix is a row-major numeric feature matrix. All rows share the
// same width once produced by a fitted transform.
type FeatureMatrix [][]float64

// LabelVector holds one class index per feature-matrix row.
type LabelVector []int

// TrainingSet pairs a feature matrix with its label vector. The pairing
// invariant (equal lengths) is checked at construction so downstream
// stages can assume it.
type TrainingSet struct {
	X FeatureMatrix
	Y LabelVector
}

// NewTrainingSet builds a TrainingSet, rejecting mismatched lengths.
func NewTrainingSet(x FeatureMatrix, y LabelVector) (TrainingSet, error) {
	if len(x) != len(y) {
		return TrainingSet{}, eris.Errorf("model: feature/label length mismatch: %d rows vs %d labels", len(x), len(y))
	}
	return TrainingSet{X: x, Y: y}, nil
}

// Len returns the number of rows.
func (ts TrainingSet) Len() int { return len(ts.X) }

// ClassCounts returns the number of rows per class index.
func (ts TrainingSet) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, c := range ts.Y {
		counts[c]++
	}
	return counts
}

// Classes returns the distinct class indices present, in ascending order.
func (ts TrainingSet) Classes() []int {
	counts := ts.ClassCounts()
	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

// Subset returns a new TrainingSet containing the given row indices,
// in order. Rows are shared, not copied.
func (ts TrainingSet) Subset(idx []int) TrainingSet {
	x := make(FeatureMatrix, len(idx))
	y := make(LabelVector, len(idx))
	for i, j := range idx {
		x[i] = ts.X[j]
		y[i] = ts.Y[j]
	}
	return TrainingSet{X: x, Y: y}
}
