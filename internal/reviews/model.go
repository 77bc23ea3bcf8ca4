package reviews

import "time"

// Stored job states. Terminal states are absorbing.
const (
	StatusPending  = "PENDING"
	StatusProgress = "PROGRESS"
	StatusSuccess  = "SUCCESS"
	StatusFailure  = "FAILURE"
)

// Progress checkpoints emitted by the worker while a job is in flight.
const (
	ProgressFetchingContext  = "Fetching pull request context..."
	ProgressRunningAnalysis  = "Running code review analysis..."
	ProgressValidatingReport = "Validating final report..."
)

// Review represents one pull request review job.
type Review struct {
	ID           string         `json:"id"`
	RepoURL      string         `json:"repoUrl"`
	PRNumber     int            `json:"prNumber"`
	Status       string         `json:"status"`
	Progress     string         `json:"progress,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage *string        `json:"errorMessage,omitempty"`
	RawKey       string         `json:"rawKey,omitempty"`
	Provider     string         `json:"provider"`
	Model        string         `json:"model"`
	StartedAt    *time.Time     `json:"startedAt,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Terminal reports whether the review has reached an absorbing state.
func (r Review) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusFailure
}
