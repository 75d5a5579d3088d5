package forest

import (
	"math"
	"math/rand"
	"sort"
)

// node is one decision-tree node. Leaves carry a class probability; inner
// nodes split on feature <= threshold.
type node struct {
	Feature   int     `msgpack:"feature"`
	Threshold float64 `msgpack:"threshold"`
	Left      *node   `msgpack:"left"`
	Right     *node   `msgpack:"right"`
	Leaf      bool    `msgpack:"leaf"`
	Prob      float64 `msgpack:"prob"` // weighted probability of class 1 at a leaf
}

// treeParams bundles the per-tree build inputs.
type treeParams struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int             // features considered per split
	classWeight map[int]float64 // class -> weight
}

// buildTree grows a tree on the given rows (indices into x/y) with random
// feature subsets per split. rng is owned by the caller's tree.
func buildTree(x [][]float64, y []int, rows []int, p treeParams, rng *rand.Rand, depth int) *node {
	if len(rows) == 0 {
		return &node{Leaf: true, Prob: 0}
	}

	prob := weightedProb(y, rows, p.classWeight)
	if depth >= p.maxDepth || len(rows) < 2*p.minLeaf || pure(y, rows) {
		return &node{Leaf: true, Prob: prob}
	}

	feat, thr, ok := bestSplit(x, y, rows, p, rng)
	if !ok {
		return &node{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, r := range rows {
		if x[r][feat] <= thr {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) < p.minLeaf || len(right) < p.minLeaf {
		return &node{Leaf: true, Prob: prob}
	}

	return &node{
		Feature:   feat,
		Threshold: thr,
		Left:      buildTree(x, y, left, p, rng, depth+1),
		Right:     buildTree(x, y, right, p, rng, depth+1),
	}
}

// bestSplit searches a random feature subset for the split minimizing
// weighted Gini impurity. Returns ok=false when no split improves on the
// parent node.
func bestSplit(x [][]float64, y []int, rows []int, p treeParams, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	nFeatures := len(x[rows[0]])
	candidates := rng.Perm(nFeatures)
	if p.maxFeatures < len(candidates) {
		candidates = candidates[:p.maxFeatures]
	}

	parentGini := gini(y, rows, p.classWeight)
	best := parentGini
	ok = false

	values := make([]float64, 0, len(rows))
	for _, feat := range candidates {
		values = values[:0]
		for _, r := range rows {
			values = append(values, x[r][feat])
		}
		sort.Float64s(values)

		prev := values[0]
		for _, v := range values[1:] {
			if v == prev {
				continue
			}
			thr := (prev + v) / 2
			prev = v

			g := splitGini(x, y, rows, feat, thr, p.classWeight)
			if g < best-1e-12 {
				best = g
				feature = feat
				threshold = thr
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// splitGini computes the weighted average Gini impurity of the two sides
// of a candidate split.
func splitGini(x [][]float64, y []int, rows []int, feat int, thr float64, weights map[int]float64) float64 {
	var left, right []int
	for _, r := range rows {
		if x[r][feat] <= thr {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return math.Inf(1)
	}

	wl := totalWeight(y, left, weights)
	wr := totalWeight(y, right, weights)
	total := wl + wr
	return wl/total*gini(y, left, weights) + wr/total*gini(y, right, weights)
}

// gini computes class-weighted Gini impurity of the rows.
func gini(y []int, rows []int, weights map[int]float64) float64 {
	byClass := make(map[int]float64)
	var total float64
	for _, r := range rows {
		w := weights[y[r]]
		byClass[y[r]] += w
		total += w
	}
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, w := range byClass {
		p := w / total
		impurity -= p * p
	}
	return impurity
}

// totalWeight sums the class weights of the rows.
func totalWeight(y []int, rows []int, weights map[int]float64) float64 {
	var total float64
	for _, r := range rows {
		total += weights[y[r]]
	}
	return total
}

// weightedProb returns the weighted probability of class 1 among rows.
func weightedProb(y []int, rows []int, weights map[int]float64) float64 {
	var pos, total float64
	for _, r := range rows {
		w := weights[y[r]]
		total += w
		if y[r] == 1 {
			pos += w
		}
	}
	if total == 0 {
		return 0
	}
	return pos / total
}

// pure reports whether all rows share one class.
func pure(y []int, rows []int) bool {
	first := y[rows[0]]
	for _, r := range rows[1:] {
		if y[r] != first {
			return false
		}
	}
	return true
}

// predictProb walks the tree for one feature vector.
func (n *node) predictProb(vec []float64) float64 {
	for !n.Leaf {
		if vec[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}
