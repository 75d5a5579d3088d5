package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/review-audit/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock, closeFn: mock.Close}, mock
}

func TestPostgresListReviews(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	attrs := []byte(`{"business":{"name":"Corner Cafe"},"user":{"review_count":3}}`)
	mock.ExpectQuery("SELECT review_id, user_id, business_id, stars, text, attrs FROM reviews WHERE business_id = \\$1 ORDER BY review_id").
		WithArgs("b1").
		WillReturnRows(pgxmock.NewRows([]string{"review_id", "user_id", "business_id", "stars", "text", "attrs"}).
			AddRow("r1", "u1", "b1", 5, "Great!", attrs).
			AddRow("r2", "u2", "b1", 3, "Fine.", []byte(nil)))

	reviews, err := s.ListReviews(context.Background(), ReviewFilter{BusinessID: "b1"})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Corner Cafe", reviews[0].Business.Name)
	assert.Equal(t, 3, reviews[0].User.ReviewCount)
	assert.Empty(t, reviews[1].Business.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListLabeled(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("FROM reviews r\\s+JOIN labels l ON l.review_id = r.review_id").
		WillReturnRows(pgxmock.NewRows([]string{
			"review_id", "user_id", "business_id", "stars", "text", "attrs",
			"extreme_sentiment", "poor_quality",
		}).
			AddRow("r1", "u1", "b1", 5, "Great!", []byte(nil), true, true).
			AddRow("r2", "u2", "b1", 3, "Fine.", []byte(nil), false, true))

	labeled, err := s.ListLabeled(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, labeled, 2)
	assert.True(t, labeled[0].Labels.LikelyFake)
	assert.False(t, labeled[1].Labels.LikelyFake)
	assert.True(t, labeled[1].Labels.PoorQuality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBundles(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO model_bundles").
		WithArgs("bundle-a", []byte{1, 2, 3}, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.SaveBundle(ctx, "bundle-a", []byte{1, 2, 3}))

	mock.ExpectQuery("SELECT payload FROM model_bundles WHERE id =").
		WithArgs("bundle-a").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte{1, 2, 3}))
	payload, err := s.GetBundle(ctx, "bundle-a")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, payload)

	mock.ExpectQuery("SELECT payload FROM model_bundles WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = s.GetBundle(ctx, "missing")
	assert.True(t, eris.Is(err, ErrNotFound))

	mock.ExpectQuery("SELECT id, payload FROM model_bundles ORDER BY created_at DESC").
		WillReturnRows(pgxmock.NewRows([]string{"id", "payload"}).AddRow("bundle-a", []byte{1, 2, 3}))
	id, payload, err := s.LatestBundle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bundle-a", id)
	assert.Equal(t, []byte{1, 2, 3}, payload)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEvaluations(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO evaluations").
		WithArgs("e1", "kfold", 5, 0.82, `{"folds":[0.8,0.84]}`, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.SaveEvaluation(ctx, model.Evaluation{
		ID: "e1", Strategy: "kfold", Folds: 5, MacroF1: 0.82,
		Report: []byte(`{"folds":[0.8,0.84]}`), CreatedAt: created,
	}))

	mock.ExpectQuery("SELECT id, strategy, folds, macro_f1, report, created_at FROM evaluations").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "strategy", "folds", "macro_f1", "report", "created_at"}).
			AddRow("e1", "kfold", 5, 0.82, []byte(`{"folds":[0.8,0.84]}`), created))

	evals, err := s.ListEvaluations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "kfold", evals[0].Strategy)
	assert.InDelta(t, 0.82, evals[0].MacroF1, 1e-9)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	n, err := s.UpsertReviews(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, s.SaveLabels(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
