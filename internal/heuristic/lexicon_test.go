package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Bounds(t *testing.T) {
	texts := []string{
		"",
		"zzzz qqqq xxxx",
		"amazing awesome perfect",
		"disgusting terrible awful",
		"not good",
		"the food was fine",
	}
	for _, text := range texts {
		pol, subj := Score(text)
		assert.GreaterOrEqual(t, pol, -1.0, "polarity lower bound for %q", text)
		assert.LessOrEqual(t, pol, 1.0, "polarity upper bound for %q", text)
		assert.GreaterOrEqual(t, subj, 0.0, "subjectivity lower bound for %q", text)
		assert.LessOrEqual(t, subj, 1.0, "subjectivity upper bound for %q", text)
	}
}

func TestScore_EmptyAndUnknown(t *testing.T) {
	pol, subj := Score("")
	assert.Zero(t, pol)
	assert.Zero(t, subj)

	pol, subj = Score("xyzzy plugh frobnicate")
	assert.Zero(t, pol)
	assert.Zero(t, subj)
}

func TestScore_Polarity(t *testing.T) {
	pol, _ := Score("amazing awesome perfect")
	assert.Greater(t, pol, 0.8)

	pol, _ = Score("disgusting terrible awful")
	assert.Less(t, pol, -0.8)
}

func TestScore_NegationFlipsPolarity(t *testing.T) {
	plain, _ := Score("good")
	negated, _ := Score("not good")

	assert.Greater(t, plain, 0.0)
	assert.Less(t, negated, 0.0)
	assert.InDelta(t, -plain, negated, 1e-9)
}

func TestScore_StripsPunctuation(t *testing.T) {
	plain, _ := Score("amazing")
	punctuated, _ := Score("amazing!")
	assert.Equal(t, plain, punctuated)
}

func TestParseLexicon_SkipsComments(t *testing.T) {
	m := parseLexicon("# comment\nfoo\t0.5\t0.6\n\nbad line\n")
	assert.Len(t, m, 1)
	assert.Equal(t, entry{polarity: 0.5, subjectivity: 0.6}, m["foo"])
}
