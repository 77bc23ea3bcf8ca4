package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers for pull request review.
type Client interface {
	// Review returns the model's raw text output. Callers are responsible
	// for normalizing and validating it.
	Review(ctx context.Context, input ReviewInput) (string, error)
}

// ReviewInput captures the pull request context fed to the model.
type ReviewInput struct {
	RepoURL     string
	PRNumber    int
	Title       string
	Description string
	Diff        string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation used when no provider is configured.
type PlaceholderClient struct{}

// Review returns ErrNotImplemented.
func (PlaceholderClient) Review(ctx context.Context, input ReviewInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}

var _ Client = PlaceholderClient{}
