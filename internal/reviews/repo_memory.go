package reviews

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores reviews in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Review
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Review)}
}

// Create stores the review.
func (r *MemoryRepo) Create(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[review.ID] = review
	return nil
}

// GetByID returns a review by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.byID[reviewID]
	if !ok {
		return Review{}, ErrNotFound
	}
	return review, nil
}

// UpdateProgress moves the review into PROGRESS with fresh metadata.
func (r *MemoryRepo) UpdateProgress(ctx context.Context, reviewID, progress string) error {
	return r.mutate(ctx, reviewID, func(review *Review) {
		review.Status = StatusProgress
		review.Progress = progress
		if review.StartedAt == nil {
			now := time.Now().UTC()
			review.StartedAt = &now
		}
	})
}

// UpdateRawKey records the archive key for the raw model output.
func (r *MemoryRepo) UpdateRawKey(ctx context.Context, reviewID, rawKey string) error {
	return r.mutate(ctx, reviewID, func(review *Review) {
		review.RawKey = rawKey
	})
}

// Complete records the terminal SUCCESS state with its result payload.
func (r *MemoryRepo) Complete(ctx context.Context, reviewID string, result map[string]any, completedAt time.Time) error {
	return r.mutate(ctx, reviewID, func(review *Review) {
		review.Status = StatusSuccess
		review.Result = result
		review.CompletedAt = &completedAt
	})
}

// Fail records the terminal FAILURE state with diagnostic text.
func (r *MemoryRepo) Fail(ctx context.Context, reviewID, errorMessage string, completedAt time.Time) error {
	return r.mutate(ctx, reviewID, func(review *Review) {
		review.Status = StatusFailure
		review.ErrorMessage = &errorMessage
		review.CompletedAt = &completedAt
	})
}

func (r *MemoryRepo) mutate(ctx context.Context, reviewID string, apply func(*Review)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.byID[reviewID]
	if !ok {
		return ErrNotFound
	}
	if review.Terminal() {
		return ErrTerminalState
	}
	apply(&review)
	review.UpdatedAt = time.Now().UTC()
	r.byID[reviewID] = review
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
