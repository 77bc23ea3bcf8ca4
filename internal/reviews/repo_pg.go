package reviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new review.
func (r *PGRepo) Create(ctx context.Context, review Review) error {
	const query = `
INSERT INTO reviews (
	id, repo_url, pr_number, status, progress, result, error_message, raw_key,
	provider, model, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	resultPayload, err := marshalJSONB(review.Result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		review.ID,
		review.RepoURL,
		review.PRNumber,
		review.Status,
		review.Progress,
		resultPayload,
		review.ErrorMessage,
		review.RawKey,
		review.Provider,
		review.Model,
		review.CreatedAt,
	)
	return err
}

// GetByID returns a review by ID.
func (r *PGRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	const query = `
SELECT id, repo_url, pr_number, status, progress, result, error_message, raw_key,
       provider, model, started_at, completed_at, created_at, updated_at
FROM reviews
WHERE id = $1
LIMIT 1`
	var rv Review
	var progress sql.NullString
	var result sql.NullString
	var errorMessage sql.NullString
	var rawKey sql.NullString
	var provider sql.NullString
	var model sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, reviewID).Scan(
		&rv.ID,
		&rv.RepoURL,
		&rv.PRNumber,
		&rv.Status,
		&progress,
		&result,
		&errorMessage,
		&rawKey,
		&provider,
		&model,
		&startedAt,
		&completedAt,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	if progress.Valid {
		rv.Progress = progress.String
	}
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &rv.Result); err != nil {
			return Review{}, err
		}
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		rv.ErrorMessage = &msg
	}
	if rawKey.Valid {
		rv.RawKey = rawKey.String
	}
	if provider.Valid {
		rv.Provider = provider.String
	}
	if model.Valid {
		rv.Model = model.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		rv.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		rv.CompletedAt = &t
	}
	return rv, nil
}

// UpdateProgress moves the review into PROGRESS with fresh metadata.
func (r *PGRepo) UpdateProgress(ctx context.Context, reviewID, progress string) error {
	const query = `
UPDATE reviews
SET status = $2, progress = $3,
    started_at = COALESCE(started_at, NOW()),
    updated_at = NOW()
WHERE id = $1 AND status NOT IN ($4, $5)`
	res, err := r.DB.ExecContext(ctx, query, reviewID, StatusProgress, progress, StatusSuccess, StatusFailure)
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, reviewID, res)
}

// UpdateRawKey records the archive key for the raw model output.
func (r *PGRepo) UpdateRawKey(ctx context.Context, reviewID, rawKey string) error {
	const query = `
UPDATE reviews
SET raw_key = $2, updated_at = NOW()
WHERE id = $1 AND status NOT IN ($3, $4)`
	res, err := r.DB.ExecContext(ctx, query, reviewID, rawKey, StatusSuccess, StatusFailure)
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, reviewID, res)
}

// Complete records the terminal SUCCESS state with its result payload.
func (r *PGRepo) Complete(ctx context.Context, reviewID string, result map[string]any, completedAt time.Time) error {
	const query = `
UPDATE reviews
SET status = $2, result = $3, completed_at = $4, updated_at = NOW()
WHERE id = $1 AND status NOT IN ($5, $6)`
	resultPayload, err := marshalJSONB(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, reviewID, StatusSuccess, resultPayload, completedAt, StatusSuccess, StatusFailure)
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, reviewID, res)
}

// Fail records the terminal FAILURE state with diagnostic text.
func (r *PGRepo) Fail(ctx context.Context, reviewID, errorMessage string, completedAt time.Time) error {
	const query = `
UPDATE reviews
SET status = $2, error_message = $3, completed_at = $4, updated_at = NOW()
WHERE id = $1 AND status NOT IN ($5, $6)`
	res, err := r.DB.ExecContext(ctx, query, reviewID, StatusFailure, errorMessage, completedAt, StatusSuccess, StatusFailure)
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, reviewID, res)
}

// checkGuarded distinguishes a missing row from a terminal one when a guarded
// update matched nothing.
func (r *PGRepo) checkGuarded(ctx context.Context, reviewID string, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var status string
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM reviews WHERE id = $1 LIMIT 1`, reviewID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrTerminalState
}

func marshalJSONB(value map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

var _ Repo = (*PGRepo)(nil)
