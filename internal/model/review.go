// Package model defines the typed records flowing through the review-audit
// pipeline: reviews as read from the data source, heuristic label tuples,
// and prediction outputs.
package model

import "time"

// BusinessAttrs holds the business columns joined onto a review.
type BusinessAttrs struct {
	Name       string   `json:"name,omitempty"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// UserAttrs holds the user columns joined onto a review.
type UserAttrs struct {
	Name         string  `json:"name,omitempty"`
	ReviewCount  int     `json:"review_count,omitempty"`
	AverageStars float64 `json:"average_stars,omitempty"`
}

// Review is a single review record as supplied by the data source.
// It is immutable once read; the pipeline never writes back to it.
type Review struct {
	ReviewID   string        `json:"review_id"`
	UserID     string        `json:"user_id"`
	BusinessID string        `json:"business_id"`
	Stars      int           `json:"stars"`
	Text       string        `json:"text"`
	Business   BusinessAttrs `json:"business,omitempty"`
	User       UserAttrs     `json:"user,omitempty"`
}

// Labels is the heuristic label tuple derived from a review. It is never
// stored back to the source of truth.
type Labels struct {
	ExtremeSentiment bool `json:"extreme_sentiment"`
	PoorQuality      bool `json:"poor_quality"`
	LikelyFake       bool `json:"likely_fake"`
}

// NewLabels builds a label tuple from the two independent signals.
// A review is likely fake only when both signals trip; a single weak
// signal is insufficient.
func NewLabels(extremeSentiment, poorQuality bool) Labels {
	return Labels{
		ExtremeSentiment: extremeSentiment,
		PoorQuality:      poorQuality,
		LikelyFake:       extremeSentiment && poorQuality,
	}
}

// Class returns the label as a class index: 1 for likely fake, 0 otherwise.
func (l Labels) Class() int {
	if l.LikelyFake {
		return 1
	}
	return 0
}

// LabeledReview pairs a review with its heuristic labels.
type LabeledReview struct {
	Review Review `json:"review"`
	Labels Labels `json:"labels"`
}

// Prediction is the classifier output for a single review.
type Prediction struct {
	ReviewID        string  `json:"review_id"`
	LikelyFake      bool    `json:"likely_fake"`
	FakeProbability float64 `json:"fake_probability"`
}

// Evaluation is a persisted cross-validation result.
type Evaluation struct {
	ID        string    `json:"id"`
	Strategy  string    `json:"strategy"`
	Folds     int       `json:"folds"`
	MacroF1   float64   `json:"macro_f1"`
	Report    []byte    `json:"report,omitempty"` // full Report, JSON-encoded
	CreatedAt time.Time `json:"created_at"`
}
