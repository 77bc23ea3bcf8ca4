package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-backend/internal/github"
	"review-backend/internal/llm"
	"review-backend/internal/queue"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/storage/object"
	"review-backend/internal/shared/telemetry"
	"review-backend/internal/shared/util"
)

// Service contains business logic for pull request reviews.
type Service struct {
	Repo     Repo
	GitHub   *github.Client
	LLM      llm.Client
	Store    object.ArchiveStore
	Queue    queue.Client
	Provider string
	Model    string
	Kinds    KindPolicy
}

// Create validates the submission, records a PENDING review, and hands it to
// the queue. Without a configured queue the job runs on a goroutine instead.
func (s *Service) Create(ctx context.Context, repoURL string, prNumber int, githubToken string) (Review, error) {
	if err := validateSubmission(repoURL, prNumber); err != nil {
		return Review{}, err
	}

	review := Review{
		ID:        uuid.NewString(),
		RepoURL:   repoURL,
		PRNumber:  prNumber,
		Status:    StatusPending,
		Provider:  normalizeProvider(s.Provider),
		Model:     s.Model,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, review); err != nil {
		return Review{}, err
	}

	if s.Queue != nil {
		msg := queue.Message{
			ReviewID:    review.ID,
			RequestID:   requestIDFromContext(ctx),
			GithubToken: githubToken,
			EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
			Version:     1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("review.enqueue_failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"review_id":  review.ID,
				"error":      err.Error(),
			})
			go s.processAsync(backgroundWithRequestID(ctx), review.ID, githubToken)
		}
		return review, nil
	}

	go s.processAsync(backgroundWithRequestID(ctx), review.ID, githubToken)
	return review, nil
}

// Get returns a review by ID.
func (s *Service) Get(ctx context.Context, reviewID string) (Review, error) {
	if reviewID == "" {
		return Review{}, fmt.Errorf("%w: review id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, reviewID)
}

func validateSubmission(repoURL string, prNumber int) error {
	if strings.TrimSpace(repoURL) == "" {
		return fmt.Errorf("%w: repo_url is required", ErrInvalidInput)
	}
	if _, _, err := github.ParseRepoURL(repoURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if prNumber <= 0 {
		return fmt.Errorf("%w: pr_number must be a positive integer", ErrInvalidInput)
	}
	return nil
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "gemini"
	}
	return provider
}

func (s *Service) processAsync(ctx context.Context, reviewID, githubToken string) {
	_ = s.Process(ctx, reviewID, githubToken)
}

// Process runs the full review pipeline for one job. Caught collaborator and
// pipeline failures still resolve the job SUCCESS with a failure-carrying
// result payload; only a panic resolves it FAILURE.
func (s *Service) Process(ctx context.Context, reviewID, githubToken string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		if r := recover(); r != nil {
			s.failReview(ctx, reviewID, fmt.Sprintf("panic: %v", r), startedAt)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	review, err := s.Repo.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("review lookup id=%s: %w", reviewID, err)
	}
	if review.Terminal() {
		return nil
	}

	if err := s.setProgress(ctx, reviewID, ProgressFetchingContext); err != nil {
		return err
	}
	metrics.IncReviewStarted()
	telemetry.Info("review.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"review_id":         reviewID,
		"status":            StatusProgress,
		"status_transition": "PENDING->PROGRESS",
	})

	if s.GitHub == nil {
		s.failReview(ctx, reviewID, "missing github client", startedAt)
		return errors.New("missing github client")
	}
	if s.LLM == nil {
		s.failReview(ctx, reviewID, "missing llm client", startedAt)
		return errors.New("missing llm client")
	}

	prCtx, ghErr := s.GitHub.GetPRContext(ctx, review.RepoURL, review.PRNumber, githubToken)
	if ghErr != nil {
		return s.finish(ctx, review, Classify(ghErr, nil, nil, nil), startedAt)
	}

	if err := s.setProgress(ctx, reviewID, ProgressRunningAnalysis); err != nil {
		return err
	}

	raw, llmErr := s.LLM.Review(ctx, llm.ReviewInput{
		RepoURL:     review.RepoURL,
		PRNumber:    review.PRNumber,
		Title:       prCtx.Title,
		Description: prCtx.Description,
		Diff:        prCtx.Diff,
	})
	if llmErr != nil {
		return s.finish(ctx, review, Classify(llmErr, nil, nil, nil), startedAt)
	}

	s.archiveRaw(ctx, reviewID, raw)

	if err := s.setProgress(ctx, reviewID, ProgressValidatingReport); err != nil {
		return err
	}

	normalized := NormalizeOutput(raw)
	value, parseFail := ParseReport(normalized)
	var report *AnalysisReport
	var schemaFail *SchemaFailure
	if parseFail == nil {
		report, schemaFail = ValidateReport(value, s.Kinds)
	}
	return s.finish(ctx, review, Classify(nil, parseFail, schemaFail, report), startedAt)
}

func (s *Service) setProgress(ctx context.Context, reviewID, progress string) error {
	err := s.Repo.UpdateProgress(ctx, reviewID, progress)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTerminalState) {
		// Already resolved elsewhere; nothing left to do.
		return nil
	}
	return fmt.Errorf("set progress failed id=%s: %w", reviewID, err)
}

// archiveRaw stores the raw model output before parsing. Best effort: an
// archive failure never blocks classification.
func (s *Service) archiveRaw(ctx context.Context, reviewID, raw string) {
	if s.Store == nil {
		return
	}
	keyPart, err := util.SanitizeKeyPart(reviewID)
	if err != nil {
		telemetry.Error("review.archive_raw_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"review_id":  reviewID,
			"error":      err.Error(),
		})
		return
	}
	storageKey := fmt.Sprintf("reviews/%s/raw.txt", keyPart)
	if _, err := s.Store.SaveWithKey(ctx, storageKey, "text/plain; charset=utf-8", strings.NewReader(raw)); err != nil {
		telemetry.Error("review.archive_raw_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"review_id":  reviewID,
			"error":      err.Error(),
		})
		return
	}
	if err := s.Repo.UpdateRawKey(ctx, reviewID, storageKey); err != nil {
		telemetry.Error("review.raw_key_update_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"review_id":  reviewID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) finish(ctx context.Context, review Review, result JobResult, startedAt time.Time) error {
	completedAt := time.Now().UTC()
	if err := s.Repo.Complete(ctx, review.ID, result.Payload(), completedAt); err != nil {
		if errors.Is(err, ErrTerminalState) {
			return nil
		}
		telemetry.Error("review.result_update_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"review_id":  review.ID,
			"error":      err.Error(),
		})
		return fmt.Errorf("set review result failed id=%s: %w", review.ID, err)
	}

	if result.Outcome == OutcomeCompleted {
		metrics.IncReviewCompleted()
	} else {
		metrics.IncReviewFailed()
	}
	metrics.ObserveReviewDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("review.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"review_id":         review.ID,
		"status":            StatusSuccess,
		"outcome":           result.Outcome,
		"status_transition": "PROGRESS->SUCCESS",
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	return nil
}

func (s *Service) failReview(ctx context.Context, reviewID, message string, startedAt time.Time) {
	msg := sanitizeMessage(message)
	completedAt := time.Now().UTC()
	if err := s.Repo.Fail(context.Background(), reviewID, msg, completedAt); err != nil {
		fmt.Printf("failReview: update failed id=%s err=%v orig=%s\n", reviewID, err, msg)
	}
	metrics.IncReviewFailed()
	metrics.ObserveReviewDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("review.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"review_id":         reviewID,
		"status":            StatusFailure,
		"status_transition": "PROGRESS->FAILURE",
		"duration_ms":       durationMs(startedAt, completedAt),
	})
}

func sanitizeMessage(message string) string {
	msg := strings.ReplaceAll(message, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
