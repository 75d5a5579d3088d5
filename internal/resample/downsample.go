package resample

import (
	"sort"

	"github.com/sells-group/review-audit/internal/model"
)

// DownSample samples the majority class without replacement down to the
// minority class size. Minority rows are kept intact. Output preserves
// the original row order of every retained row, so the minority subset is
// identical across runs with the same input.
func DownSample(ts model.TrainingSet, seed int64) (model.TrainingSet, error) {
	split, err := splitClasses(ts)
	if err != nil {
		return model.TrainingSet{}, err
	}

	if len(split.majority) == len(split.minority) {
		return ts, nil
	}

	// Fisher-Yates shuffle over majority indices, take the head.
	rng := newRNG(seed)
	shuffled := make([]int, len(split.majority))
	copy(shuffled, split.majority)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	kept := shuffled[:len(split.minority)]

	// Rows not in the majority class (minority plus any middle classes)
	// are all retained.
	keep := make(map[int]struct{}, len(kept))
	for _, i := range kept {
		keep[i] = struct{}{}
	}

	idx := make([]int, 0, ts.Len())
	for i, c := range ts.Y {
		if c != split.majorityClass {
			idx = append(idx, i)
			continue
		}
		if _, ok := keep[i]; ok {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)

	return ts.Subset(idx), nil
}
