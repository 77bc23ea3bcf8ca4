package reviews

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedReview(t *testing.T, repo *MemoryRepo, id string) {
	t.Helper()
	review := Review{
		ID:        id,
		RepoURL:   "https://github.com/acme/widgets",
		PRNumber:  7,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), review); err != nil {
		t.Fatalf("create review: %v", err)
	}
}

func TestMemoryRepoLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	seedReview(t, repo, "r1")

	if err := repo.UpdateProgress(context.Background(), "r1", ProgressFetchingContext); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.Status != StatusProgress || got.Progress != ProgressFetchingContext {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.StartedAt == nil {
		t.Fatal("expected startedAt to be set on first progress update")
	}

	completedAt := time.Now().UTC()
	result := CompletedResult(&AnalysisReport{}).Payload()
	if err := repo.Complete(context.Background(), "r1", result, completedAt); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err = repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %q", got.Status)
	}
	if got.Result == nil || got.CompletedAt == nil {
		t.Fatalf("expected result and completedAt, got %+v", got)
	}
}

func TestMemoryRepoTerminalAbsorbing(t *testing.T) {
	repo := NewMemoryRepo()
	seedReview(t, repo, "r1")

	if err := repo.Fail(context.Background(), "r1", "panic: boom", time.Now().UTC()); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if err := repo.UpdateProgress(context.Background(), "r1", ProgressRunningAnalysis); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := repo.Complete(context.Background(), "r1", map[string]any{}, time.Now().UTC()); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := repo.Fail(context.Background(), "r1", "again", time.Now().UTC()); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}

	got, err := repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.Status != StatusFailure || got.ErrorMessage == nil || *got.ErrorMessage != "panic: boom" {
		t.Fatalf("terminal state mutated: %+v", got)
	}
}

func TestMemoryRepoUnknownID(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateProgress(context.Background(), "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoUpdateRawKey(t *testing.T) {
	repo := NewMemoryRepo()
	seedReview(t, repo, "r1")

	if err := repo.UpdateRawKey(context.Background(), "r1", "reviews/r1/raw.txt"); err != nil {
		t.Fatalf("update raw key: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.RawKey != "reviews/r1/raw.txt" {
		t.Fatalf("unexpected raw key: %q", got.RawKey)
	}
}
