package object

import (
	"context"
	"io"
)

// ArchiveStore persists raw artifacts (model output, PR context) under a
// caller-chosen storage key.
type ArchiveStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
