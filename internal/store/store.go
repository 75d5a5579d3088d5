// Package store persists reviews, label snapshots, model bundles, and
// evaluation history behind one interface with SQLite and Postgres
// backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/review-audit/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ReviewFilter specifies criteria for listing reviews.
type ReviewFilter struct {
	BusinessID string `json:"business_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Stars      int    `json:"stars,omitempty"` // 0 = any
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the review-audit pipeline.
type Store interface {
	// Reviews
	UpsertReviews(ctx context.Context, reviews []model.Review) (int64, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]model.Review, error)

	// Label snapshots
	SaveLabels(ctx context.Context, labeled []model.LabeledReview) error
	ListLabeled(ctx context.Context, limit int) ([]model.LabeledReview, error)

	// Model bundles
	SaveBundle(ctx context.Context, id string, payload []byte) error
	GetBundle(ctx context.Context, id string) ([]byte, error)
	LatestBundle(ctx context.Context) (string, []byte, error)

	// Evaluations
	SaveEvaluation(ctx context.Context, eval model.Evaluation) error
	ListEvaluations(ctx context.Context, limit int) ([]model.Evaluation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config configures the database backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
