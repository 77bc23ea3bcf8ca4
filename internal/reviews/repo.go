package reviews

import (
	"context"
	"time"
)

// Repo defines persistence operations for reviews. Implementations must
// reject writes against a review in a terminal state.
type Repo interface {
	Create(ctx context.Context, review Review) error
	GetByID(ctx context.Context, reviewID string) (Review, error)
	UpdateProgress(ctx context.Context, reviewID, progress string) error
	UpdateRawKey(ctx context.Context, reviewID, rawKey string) error
	Complete(ctx context.Context, reviewID string, result map[string]any, completedAt time.Time) error
	Fail(ctx context.Context, reviewID, errorMessage string, completedAt time.Time) error
}
