// Package heuristic derives weak fake-review labels from review text and
// star ratings. The two signals are computed independently by pure
// functions; a review is labeled likely fake only when both trip.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/sells-group/review-audit/internal/model"
)

// punctRun matches two or more consecutive exclamation or question marks.
var punctRun = regexp.MustCompile(`[!?]{2,}`)

// Config holds the labeling thresholds.
type Config struct {
	PolarityThreshold    float64 `yaml:"polarity_threshold" mapstructure:"polarity_threshold"`
	SubjectivityMin      float64 `yaml:"subjectivity_min" mapstructure:"subjectivity_min"`
	SubjectivityCeiling  float64 `yaml:"subjectivity_ceiling" mapstructure:"subjectivity_ceiling"`
	MinLength            int     `yaml:"min_length" mapstructure:"min_length"`
	RepetitionRatio      float64 `yaml:"repetition_ratio" mapstructure:"repetition_ratio"`
	ShortPraiseWordCount int     `yaml:"short_praise_word_count" mapstructure:"short_praise_word_count"`
}

// DefaultConfig returns the standard labeling thresholds.
func DefaultConfig() Config {
	return Config{
		PolarityThreshold:    0.8,
		SubjectivityMin:      0.5,
		SubjectivityCeiling:  0.8,
		MinLength:            50,
		RepetitionRatio:      0.7,
		ShortPraiseWordCount: 5,
	}
}

// Labeler computes weak labels for reviews with a fixed set of thresholds.
type Labeler struct {
	cfg Config
}

// NewLabeler creates a Labeler.
func NewLabeler(cfg Config) *Labeler {
	return &Labeler{cfg: cfg}
}

// Label computes both signals for a review and combines them. Pure and
// deterministic: empty text triggers poor quality (length below minimum)
// and never extreme sentiment.
func (l *Labeler) Label(text string, stars int) model.Labels {
	return model.NewLabels(
		l.ExtremeSentiment(text, stars),
		l.PoorQuality(text),
	)
}

// LabelReview wraps a review with its computed labels.
func (l *Labeler) LabelReview(r model.Review) model.LabeledReview {
	return model.LabeledReview{Review: r, Labels: l.Label(r.Text, r.Stars)}
}

// ExtremeSentiment reports whether the review's sentiment is suspiciously
// extreme: polarity beyond the threshold in either direction with
// subjective tone, or terse five-star praise.
func (l *Labeler) ExtremeSentiment(text string, stars int) bool {
	polarity, subjectivity := Score(text)

	if (polarity > l.cfg.PolarityThreshold || polarity < -l.cfg.PolarityThreshold) &&
		subjectivity > l.cfg.SubjectivityMin {
		return true
	}

	// Terse five-star praise is flagged regardless of sentiment score.
	if stars == 5 && len(strings.Fields(text)) < l.cfg.ShortPraiseWordCount {
		return true
	}

	return false
}

// PoorQuality reports whether the review text shows structural quality
// problems: too short, repetitive, excessively subjective, or containing
// runs of exclamation/question marks.
func (l *Labeler) PoorQuality(text string) bool {
	if len(text) < l.cfg.MinLength {
		return true
	}

	words := strings.Fields(text)
	if len(words) > 0 {
		distinct := make(map[string]struct{}, len(words))
		for _, w := range words {
			distinct[strings.ToLower(w)] = struct{}{}
		}
		if float64(len(distinct))/float64(len(words)) < l.cfg.RepetitionRatio {
			return true
		}
	}

	if _, subjectivity := Score(text); subjectivity > l.cfg.SubjectivityCeiling {
		return true
	}

	return punctRun.MatchString(text)
}
