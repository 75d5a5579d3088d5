package evaluate

import (
	"math/rand"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/review-audit/internal/model"
)

// ErrTooFewPerClass is returned when a class has too few members for the
// requested partitioning; stratification would produce empty partitions.
var ErrTooFewPerClass = eris.New("evaluate: a class has fewer members than the requested folds/splits")

// split is one train/test index partition.
type split struct {
	train []int
	test  []int
}

// stratifiedKFold deals each class's shuffled indices round-robin into k
// folds, so every fold preserves the full set's class proportions.
func stratifiedKFold(y model.LabelVector, k int, seed int64) ([]split, error) {
	if k < 2 {
		return nil, eris.Errorf("evaluate: fold count must be at least 2 (got %d)", k)
	}

	byClass := classIndices(y)
	for c, idx := range byClass {
		if len(idx) < k {
			return nil, eris.Wrapf(ErrTooFewPerClass, "class %d has %d members, need %d", c, len(idx), k)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	for _, c := range sortedClasses(byClass) {
		idx := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for i, row := range idx {
			folds[i%k] = append(folds[i%k], row)
		}
	}

	splits := make([]split, k)
	for i := range splits {
		for j, fold := range folds {
			if j == i {
				splits[i].test = append(splits[i].test, fold...)
			} else {
				splits[i].train = append(splits[i].train, fold...)
			}
		}
	}
	return splits, nil
}

// stratifiedShuffleSplit generates repeated random train/test partitions,
// holding out testFrac of each class every repeat.
func stratifiedShuffleSplit(y model.LabelVector, repeats int, testFrac float64, seed int64) ([]split, error) {
	if repeats < 1 {
		return nil, eris.Errorf("evaluate: split count must be at least 1 (got %d)", repeats)
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, eris.Errorf("evaluate: test fraction must be in (0,1) (got %g)", testFrac)
	}

	byClass := classIndices(y)
	for c, idx := range byClass {
		nTest := int(float64(len(idx)) * testFrac)
		if nTest < 1 || nTest >= len(idx) {
			return nil, eris.Wrapf(ErrTooFewPerClass, "class %d has %d members, cannot hold out %.0f%%", c, len(idx), testFrac*100)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	splits := make([]split, repeats)
	for r := 0; r < repeats; r++ {
		for _, c := range sortedClasses(byClass) {
			idx := append([]int(nil), byClass[c]...)
			rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
			nTest := int(float64(len(idx)) * testFrac)
			splits[r].test = append(splits[r].test, idx[:nTest]...)
			splits[r].train = append(splits[r].train, idx[nTest:]...)
		}
	}
	return splits, nil
}

// classIndices groups row indices by class.
func classIndices(y model.LabelVector) map[int][]int {
	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	return byClass
}

// sortedClasses returns the class keys in ascending order so iteration
// is deterministic.
func sortedClasses(byClass map[int][]int) []int {
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
