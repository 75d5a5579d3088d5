package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/review-audit/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "review-audit.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if strings.Contains(dsn, ":memory:") {
		// An in-memory database exists per connection; a second pooled
		// connection would see an empty schema.
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reviews (
	review_id   TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	business_id TEXT NOT NULL,
	stars       INTEGER NOT NULL,
	text        TEXT NOT NULL,
	attrs       TEXT,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS labels (
	review_id         TEXT PRIMARY KEY REFERENCES reviews(review_id),
	extreme_sentiment INTEGER NOT NULL,
	poor_quality      INTEGER NOT NULL,
	likely_fake       INTEGER NOT NULL,
	labeled_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS model_bundles (
	id         TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT PRIMARY KEY,
	strategy   TEXT NOT NULL,
	folds      INTEGER NOT NULL,
	macro_f1   REAL NOT NULL,
	report     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reviews_business ON reviews(business_id);
CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
CREATE INDEX IF NOT EXISTS idx_reviews_stars ON reviews(stars);
CREATE INDEX IF NOT EXISTS idx_labels_likely_fake ON labels(likely_fake);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// reviewAttrs is the JSON blob of joined business/user attributes.
type reviewAttrs struct {
	Business model.BusinessAttrs `json:"business,omitempty"`
	User     model.UserAttrs     `json:"user,omitempty"`
}

func (s *SQLiteStore) UpsertReviews(ctx context.Context, reviews []model.Review) (int64, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reviews (review_id, user_id, business_id, stars, text, attrs, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(review_id) DO UPDATE SET
			user_id = excluded.user_id,
			business_id = excluded.business_id,
			stars = excluded.stars,
			text = excluded.text,
			attrs = excluded.attrs`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, r := range reviews {
		attrsJSON, err := json.Marshal(reviewAttrs{Business: r.Business, User: r.User})
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal attrs for %s", r.ReviewID)
		}
		if _, err := stmt.ExecContext(ctx, r.ReviewID, r.UserID, r.BusinessID, r.Stars, r.Text, string(attrsJSON), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert review %s", r.ReviewID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return n, nil
}

func (s *SQLiteStore) ListReviews(ctx context.Context, filter ReviewFilter) ([]model.Review, error) {
	query := `SELECT review_id, user_id, business_id, stars, text, attrs FROM reviews`
	var conds []string
	var args []any

	if filter.BusinessID != "" {
		conds = append(conds, "business_id = ?")
		args = append(args, filter.BusinessID)
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Stars > 0 {
		conds = append(conds, "stars = ?")
		args = append(args, filter.Stars)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY review_id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reviews")
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, eris.Wrap(rows.Err(), "sqlite: list reviews rows")
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (model.Review, error) {
	var r model.Review
	var attrsJSON sql.NullString
	if err := row.Scan(&r.ReviewID, &r.UserID, &r.BusinessID, &r.Stars, &r.Text, &attrsJSON); err != nil {
		return model.Review{}, eris.Wrap(err, "sqlite: scan review")
	}
	if attrsJSON.Valid && attrsJSON.String != "" {
		var attrs reviewAttrs
		if err := json.Unmarshal([]byte(attrsJSON.String), &attrs); err != nil {
			return model.Review{}, eris.Wrapf(err, "sqlite: unmarshal attrs for %s", r.ReviewID)
		}
		r.Business = attrs.Business
		r.User = attrs.User
	}
	return r, nil
}

func (s *SQLiteStore) SaveLabels(ctx context.Context, labeled []model.LabeledReview) error {
	if len(labeled) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO labels (review_id, extreme_sentiment, poor_quality, likely_fake, labeled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(review_id) DO UPDATE SET
			extreme_sentiment = excluded.extreme_sentiment,
			poor_quality = excluded.poor_quality,
			likely_fake = excluded.likely_fake,
			labeled_at = excluded.labeled_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare labels")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, lr := range labeled {
		l := lr.Labels
		if _, err := stmt.ExecContext(ctx, lr.Review.ReviewID,
			boolToInt(l.ExtremeSentiment), boolToInt(l.PoorQuality), boolToInt(l.LikelyFake), now); err != nil {
			return eris.Wrapf(err, "sqlite: save label %s", lr.Review.ReviewID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit labels")
}

func (s *SQLiteStore) ListLabeled(ctx context.Context, limit int) ([]model.LabeledReview, error) {
	query := `
		SELECT r.review_id, r.user_id, r.business_id, r.stars, r.text, r.attrs,
		       l.extreme_sentiment, l.poor_quality, l.likely_fake
		FROM reviews r
		JOIN labels l ON l.review_id = r.review_id
		ORDER BY r.review_id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list labeled")
	}
	defer rows.Close()

	var labeled []model.LabeledReview
	for rows.Next() {
		var r model.Review
		var attrsJSON sql.NullString
		var extreme, poor, fake int
		if err := rows.Scan(&r.ReviewID, &r.UserID, &r.BusinessID, &r.Stars, &r.Text, &attrsJSON,
			&extreme, &poor, &fake); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan labeled")
		}
		if attrsJSON.Valid && attrsJSON.String != "" {
			var attrs reviewAttrs
			if err := json.Unmarshal([]byte(attrsJSON.String), &attrs); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal attrs for %s", r.ReviewID)
			}
			r.Business = attrs.Business
			r.User = attrs.User
		}
		labeled = append(labeled, model.LabeledReview{
			Review: r,
			Labels: model.NewLabels(extreme == 1, poor == 1),
		})
	}
	return labeled, eris.Wrap(rows.Err(), "sqlite: list labeled rows")
}

func (s *SQLiteStore) SaveBundle(ctx context.Context, id string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model_bundles (id, payload, created_at) VALUES (?, ?, ?)`,
		id, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save bundle %s", id)
}

func (s *SQLiteStore) GetBundle(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM model_bundles WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "bundle %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get bundle %s", id)
	}
	return payload, nil
}

func (s *SQLiteStore) LatestBundle(ctx context.Context) (string, []byte, error) {
	var id string
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, payload FROM model_bundles ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&id, &payload)
	if err == sql.ErrNoRows {
		return "", nil, eris.Wrap(ErrNotFound, "no bundles stored")
	}
	if err != nil {
		return "", nil, eris.Wrap(err, "sqlite: latest bundle")
	}
	return id, payload, nil
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, eval model.Evaluation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, strategy, folds, macro_f1, report, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		eval.ID, eval.Strategy, eval.Folds, eval.MacroF1, string(eval.Report), eval.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save evaluation %s", eval.ID)
}

func (s *SQLiteStore) ListEvaluations(ctx context.Context, limit int) ([]model.Evaluation, error) {
	query := `SELECT id, strategy, folds, macro_f1, report, created_at FROM evaluations ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evaluations")
	}
	defer rows.Close()

	var evals []model.Evaluation
	for rows.Next() {
		var e model.Evaluation
		var report sql.NullString
		if err := rows.Scan(&e.ID, &e.Strategy, &e.Folds, &e.MacroF1, &report, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evaluation")
		}
		if report.Valid {
			e.Report = []byte(report.String)
		}
		evals = append(evals, e)
	}
	return evals, eris.Wrap(rows.Err(), "sqlite: list evaluations rows")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
