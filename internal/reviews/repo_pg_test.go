package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newPGRepo(t)
	review := Review{
		ID:        "review-1",
		RepoURL:   "https://github.com/acme/widgets",
		PRNumber:  7,
		Status:    StatusPending,
		Provider:  "gemini",
		Model:     "gemini-1.5-flash",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			review.ID,
			review.RepoURL,
			review.PRNumber,
			review.Status,
			"",
			nil, // result
			nil, // error_message
			"",
			review.Provider,
			review.Model,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), review); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "repo_url", "pr_number", "status", "progress", "result", "error_message",
		"raw_key", "provider", "model", "started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(
		"review-1", "https://github.com/acme/widgets", 7, StatusSuccess, ProgressValidatingReport,
		`{"outcome":"completed","report":{"files":[],"summary":{"total_files":0,"total_issues":0,"critical_issues":0}}}`,
		nil, "reviews/review-1/raw.txt", "gemini", "gemini-1.5-flash", now, now, now, now,
	)
	mock.ExpectQuery("SELECT id, repo_url, pr_number, status").
		WithArgs("review-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "review-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %q", got.Status)
	}
	if got.Result["outcome"] != OutcomeCompleted {
		t.Fatalf("expected completed outcome, got %v", got.Result["outcome"])
	}
	if got.RawKey != "reviews/review-1/raw.txt" {
		t.Fatalf("unexpected raw key: %q", got.RawKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectQuery("SELECT id, repo_url, pr_number, status").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateProgressGuardsTerminal(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectExec("UPDATE reviews").
		WithArgs("review-1", StatusProgress, ProgressRunningAnalysis, StatusSuccess, StatusFailure).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM reviews").
		WithArgs("review-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusSuccess))

	err := repo.UpdateProgress(context.Background(), "review-1", ProgressRunningAnalysis)
	if !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateProgressMissingRow(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectExec("UPDATE reviews").
		WithArgs("missing", StatusProgress, ProgressFetchingContext, StatusSuccess, StatusFailure).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM reviews").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.UpdateProgress(context.Background(), "missing", ProgressFetchingContext)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoComplete(t *testing.T) {
	repo, mock := newPGRepo(t)
	completedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE reviews").
		WithArgs("review-1", StatusSuccess, sqlmock.AnyArg(), completedAt, StatusSuccess, StatusFailure).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := LogicalFailureResult("invalid JSON in model output", "not json at all").Payload()
	if err := repo.Complete(context.Background(), "review-1", result, completedAt); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFail(t *testing.T) {
	repo, mock := newPGRepo(t)
	completedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE reviews").
		WithArgs("review-1", StatusFailure, "panic: boom", completedAt, StatusSuccess, StatusFailure).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Fail(context.Background(), "review-1", "panic: boom", completedAt); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
