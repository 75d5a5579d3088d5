package heuristic

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed lexicon.tsv
var lexiconRaw string

// entry holds the polarity and subjectivity of one lexicon term.
type entry struct {
	polarity     float64
	subjectivity float64
}

// lexicon maps lowercase terms to sentiment scores, built once at init.
var lexicon map[string]entry

// negators flip the polarity of the word that follows them.
var negators = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"neither": true,
	"nor":     true,
	"cannot":  true,
}

func init() {
	lexicon = parseLexicon(lexiconRaw)
}

// parseLexicon parses tab-separated "term\tpolarity\tsubjectivity" lines.
func parseLexicon(raw string) map[string]entry {
	m := make(map[string]entry, 256)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			continue
		}
		pol, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		subj, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			continue
		}
		m[strings.TrimSpace(parts[0])] = entry{polarity: pol, subjectivity: subj}
	}
	return m
}

// Score computes lexicon-based polarity (-1..1) and subjectivity (0..1)
// for text by averaging the scores of matched words. A negator flips the
// polarity of the word immediately after it. Text with no lexicon matches
// scores (0, 0). Never errors, even on empty input.
func Score(text string) (polarity, subjectivity float64) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0, 0
	}

	var polSum, subjSum float64
	matched := 0
	negate := false

	for _, w := range words {
		w = strings.Trim(w, ".,!?;:()\"'")
		if w == "" {
			continue
		}
		if negators[w] {
			negate = true
			continue
		}
		e, ok := lexicon[w]
		if !ok {
			negate = false
			continue
		}
		pol := e.polarity
		if negate {
			pol = -pol
			negate = false
		}
		polSum += pol
		subjSum += e.subjectivity
		matched++
	}

	if matched == 0 {
		return 0, 0
	}
	return polSum / float64(matched), subjSum / float64(matched)
}
