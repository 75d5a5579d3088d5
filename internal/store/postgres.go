package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/review-audit/internal/db"
	"github.com/sells-group/review-audit/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reviews (
	review_id   TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	business_id TEXT NOT NULL,
	stars       INT NOT NULL,
	text        TEXT NOT NULL,
	attrs       JSONB,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS labels (
	review_id         TEXT PRIMARY KEY REFERENCES reviews(review_id),
	extreme_sentiment BOOLEAN NOT NULL,
	poor_quality      BOOLEAN NOT NULL,
	likely_fake       BOOLEAN NOT NULL,
	labeled_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS model_bundles (
	id         TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT PRIMARY KEY,
	strategy   TEXT NOT NULL,
	folds      INT NOT NULL,
	macro_f1   DOUBLE PRECISION NOT NULL,
	report     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reviews_business ON reviews(business_id);
CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
CREATE INDEX IF NOT EXISTS idx_reviews_stars ON reviews(stars);
CREATE INDEX IF NOT EXISTS idx_labels_likely_fake ON labels(likely_fake);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertReviews(ctx context.Context, reviews []model.Review) (int64, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(reviews))
	for _, r := range reviews {
		attrsJSON, err := json.Marshal(reviewAttrs{Business: r.Business, User: r.User})
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal attrs for %s", r.ReviewID)
		}
		rows = append(rows, []any{r.ReviewID, r.UserID, r.BusinessID, r.Stars, r.Text, string(attrsJSON), now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "reviews",
		Columns:      []string{"review_id", "user_id", "business_id", "stars", "text", "attrs", "imported_at"},
		ConflictKeys: []string{"review_id"},
		UpdateCols:   []string{"user_id", "business_id", "stars", "text", "attrs"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert reviews")
	}
	return n, nil
}

func (s *PostgresStore) ListReviews(ctx context.Context, filter ReviewFilter) ([]model.Review, error) {
	query := `SELECT review_id, user_id, business_id, stars, text, attrs FROM reviews`
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.BusinessID != "" {
		conds = append(conds, "business_id = "+arg(filter.BusinessID))
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = "+arg(filter.UserID))
	}
	if filter.Stars > 0 {
		conds = append(conds, "stars = "+arg(filter.Stars))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY review_id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET " + arg(filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reviews")
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		var attrsJSON []byte
		if err := rows.Scan(&r.ReviewID, &r.UserID, &r.BusinessID, &r.Stars, &r.Text, &attrsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review")
		}
		if len(attrsJSON) > 0 {
			var attrs reviewAttrs
			if err := json.Unmarshal(attrsJSON, &attrs); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal attrs for %s", r.ReviewID)
			}
			r.Business = attrs.Business
			r.User = attrs.User
		}
		reviews = append(reviews, r)
	}
	return reviews, eris.Wrap(rows.Err(), "postgres: list reviews rows")
}

func (s *PostgresStore) SaveLabels(ctx context.Context, labeled []model.LabeledReview) error {
	if len(labeled) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(labeled))
	for _, lr := range labeled {
		l := lr.Labels
		rows = append(rows, []any{lr.Review.ReviewID, l.ExtremeSentiment, l.PoorQuality, l.LikelyFake, now})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "labels",
		Columns:      []string{"review_id", "extreme_sentiment", "poor_quality", "likely_fake", "labeled_at"},
		ConflictKeys: []string{"review_id"},
	}, rows)
	return eris.Wrap(err, "postgres: save labels")
}

func (s *PostgresStore) ListLabeled(ctx context.Context, limit int) ([]model.LabeledReview, error) {
	query := `
		SELECT r.review_id, r.user_id, r.business_id, r.stars, r.text, r.attrs,
		       l.extreme_sentiment, l.poor_quality
		FROM reviews r
		JOIN labels l ON l.review_id = r.review_id
		ORDER BY r.review_id`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list labeled")
	}
	defer rows.Close()

	var labeled []model.LabeledReview
	for rows.Next() {
		var r model.Review
		var attrsJSON []byte
		var extreme, poor bool
		if err := rows.Scan(&r.ReviewID, &r.UserID, &r.BusinessID, &r.Stars, &r.Text, &attrsJSON,
			&extreme, &poor); err != nil {
			return nil, eris.Wrap(err, "postgres: scan labeled")
		}
		if len(attrsJSON) > 0 {
			var attrs reviewAttrs
			if err := json.Unmarshal(attrsJSON, &attrs); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal attrs for %s", r.ReviewID)
			}
			r.Business = attrs.Business
			r.User = attrs.User
		}
		labeled = append(labeled, model.LabeledReview{
			Review: r,
			Labels: model.NewLabels(extreme, poor),
		})
	}
	return labeled, eris.Wrap(rows.Err(), "postgres: list labeled rows")
}

func (s *PostgresStore) SaveBundle(ctx context.Context, id string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO model_bundles (id, payload, created_at) VALUES ($1, $2, $3)`,
		id, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save bundle %s", id)
}

func (s *PostgresStore) GetBundle(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM model_bundles WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "bundle %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get bundle %s", id)
	}
	return payload, nil
}

func (s *PostgresStore) LatestBundle(ctx context.Context) (string, []byte, error) {
	var id string
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, payload FROM model_bundles ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&id, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, eris.Wrap(ErrNotFound, "no bundles stored")
	}
	if err != nil {
		return "", nil, eris.Wrap(err, "postgres: latest bundle")
	}
	return id, payload, nil
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, eval model.Evaluation) error {
	var report any
	if len(eval.Report) > 0 {
		report = string(eval.Report)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO evaluations (id, strategy, folds, macro_f1, report, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		eval.ID, eval.Strategy, eval.Folds, eval.MacroF1, report, eval.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save evaluation %s", eval.ID)
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, limit int) ([]model.Evaluation, error) {
	query := `SELECT id, strategy, folds, macro_f1, report, created_at FROM evaluations ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evaluations")
	}
	defer rows.Close()

	var evals []model.Evaluation
	for rows.Next() {
		var e model.Evaluation
		var report []byte
		if err := rows.Scan(&e.ID, &e.Strategy, &e.Folds, &e.MacroF1, &report, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evaluation")
		}
		e.Report = report
		evals = append(evals, e)
	}
	return evals, eris.Wrap(rows.Err(), "postgres: list evaluations rows")
}
