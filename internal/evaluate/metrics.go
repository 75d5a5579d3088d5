package evaluate

import (
	"sort"

	"github.com/sells-group/review-audit/internal/model"
)

// ClassMetrics holds per-class precision, recall, and F1.
type ClassMetrics struct {
	Class     int     `json:"class" yaml:"class"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// FoldScore holds the metrics of a single fold or split.
type FoldScore struct {
	Fold    int            `json:"fold" yaml:"fold"`
	MacroF1 float64        `json:"macro_f1" yaml:"macro_f1"`
	Classes []ClassMetrics `json:"classes" yaml:"classes"`
}

// MacroF1 computes the unweighted mean of per-class F1 scores on the
// union of classes present in truth or predictions. Classes with a zero
// denominator score F1 = 0, which is what penalizes a model that ignores
// the minority class.
func MacroF1(truth, pred model.LabelVector) float64 {
	metrics := PerClassMetrics(truth, pred)
	if len(metrics) == 0 {
		return 0
	}
	var sum float64
	for _, m := range metrics {
		sum += m.F1
	}
	return sum / float64(len(metrics))
}

// PerClassMetrics computes precision, recall, and F1 for every class in
// truth or pred, ordered by class index.
func PerClassMetrics(truth, pred model.LabelVector) []ClassMetrics {
	classes := make(map[int]struct{})
	for _, c := range truth {
		classes[c] = struct{}{}
	}
	for _, c := range pred {
		classes[c] = struct{}{}
	}

	ordered := make([]int, 0, len(classes))
	for c := range classes {
		ordered = append(ordered, c)
	}
	sort.Ints(ordered)

	out := make([]ClassMetrics, 0, len(ordered))
	for _, c := range ordered {
		var tp, fp, fn, support int
		for i := range truth {
			switch {
			case truth[i] == c && pred[i] == c:
				tp++
			case truth[i] != c && pred[i] == c:
				fp++
			case truth[i] == c && pred[i] != c:
				fn++
			}
			if truth[i] == c {
				support++
			}
		}

		m := ClassMetrics{Class: c, Support: support}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		out = append(out, m)
	}
	return out
}
