package reviews

// Client-facing status vocabulary. Stored SUCCESS fans out to COMPLETED or
// FAILED depending on the result payload; stored FAILURE always maps to
// FAILED.
const (
	ViewPending   = "PENDING"
	ViewProgress  = "PROGRESS"
	ViewCompleted = "COMPLETED"
	ViewFailed    = "FAILED"
)

// StatusView is the lightweight polling shape.
type StatusView struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ResultView is one of the four terminal-aware result shapes.
type ResultView struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Details any    `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
	Results any    `json:"results,omitempty"`
}

// ProjectStatus maps a review to its polling shape. Pure projection.
func ProjectStatus(rv Review) StatusView {
	return StatusView{TaskID: rv.ID, Status: rv.Status}
}

// ProjectResult maps a review to exactly one result shape. Pure projection:
// no side effects, safe to call repeatedly while the job is in flight.
func ProjectResult(rv Review) ResultView {
	switch rv.Status {
	case StatusProgress:
		return ResultView{TaskID: rv.ID, Status: ViewProgress, Details: rv.Progress}
	case StatusSuccess:
		return projectTerminalSuccess(rv)
	case StatusFailure:
		view := ResultView{TaskID: rv.ID, Status: ViewFailed, Error: "review worker failed"}
		if rv.ErrorMessage != nil && *rv.ErrorMessage != "" {
			view.Error = *rv.ErrorMessage
		}
		return view
	default:
		return ResultView{TaskID: rv.ID, Status: ViewPending}
	}
}

func projectTerminalSuccess(rv Review) ResultView {
	outcome, _ := rv.Result["outcome"].(string)
	switch outcome {
	case OutcomeCompleted:
		return ResultView{TaskID: rv.ID, Status: ViewCompleted, Results: rv.Result["report"]}
	case OutcomeLogicalFailure:
		message, _ := rv.Result["error_message"].(string)
		return ResultView{TaskID: rv.ID, Status: ViewFailed, Error: message, Details: rv.Result["detail"]}
	case OutcomeExceptionFailure:
		message, _ := rv.Result["error_message"].(string)
		return ResultView{TaskID: rv.ID, Status: ViewFailed, Error: message, Details: rv.Result["exception_kind"]}
	default:
		return ResultView{TaskID: rv.ID, Status: ViewFailed, Error: "result payload is malformed"}
	}
}
