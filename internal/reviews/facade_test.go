package reviews

import "testing"

func TestProjectStatus(t *testing.T) {
	view := ProjectStatus(Review{ID: "task-1", Status: StatusProgress})
	if view.TaskID != "task-1" || view.Status != StatusProgress {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestProjectResultPending(t *testing.T) {
	view := ProjectResult(Review{ID: "task-1", Status: StatusPending})
	if view.Status != ViewPending {
		t.Fatalf("expected PENDING, got %q", view.Status)
	}
	if view.Details != nil || view.Error != "" || view.Results != nil {
		t.Fatalf("pending view must be bare, got %+v", view)
	}
}

func TestProjectResultProgress(t *testing.T) {
	view := ProjectResult(Review{ID: "task-1", Status: StatusProgress, Progress: ProgressRunningAnalysis})
	if view.Status != ViewProgress {
		t.Fatalf("expected PROGRESS, got %q", view.Status)
	}
	if view.Details != ProgressRunningAnalysis {
		t.Fatalf("expected progress metadata, got %v", view.Details)
	}
}

func TestProjectResultCompleted(t *testing.T) {
	report := &AnalysisReport{Summary: AnalysisSummary{TotalFiles: 1}}
	rv := Review{
		ID:     "task-1",
		Status: StatusSuccess,
		Result: CompletedResult(report).Payload(),
	}
	view := ProjectResult(rv)
	if view.Status != ViewCompleted {
		t.Fatalf("expected COMPLETED, got %q", view.Status)
	}
	if view.Results == nil {
		t.Fatal("expected results payload")
	}
	if view.Error != "" {
		t.Fatalf("completed view must carry no error, got %q", view.Error)
	}
}

func TestProjectResultLogicalFailure(t *testing.T) {
	rv := Review{
		ID:     "task-1",
		Status: StatusSuccess,
		Result: LogicalFailureResult("invalid JSON in model output", "not json at all").Payload(),
	}
	view := ProjectResult(rv)
	if view.Status != ViewFailed {
		t.Fatalf("expected FAILED, got %q", view.Status)
	}
	if view.Error != "invalid JSON in model output" {
		t.Fatalf("unexpected error: %q", view.Error)
	}
	if view.Details != "not json at all" {
		t.Fatalf("expected snippet detail, got %v", view.Details)
	}
}

func TestProjectResultExceptionFailure(t *testing.T) {
	rv := Review{
		ID:     "task-1",
		Status: StatusSuccess,
		Result: ExceptionFailureResult("github fetch pr diff: status 502", ErrorCodeGitHubAPI).Payload(),
	}
	view := ProjectResult(rv)
	if view.Status != ViewFailed {
		t.Fatalf("expected FAILED, got %q", view.Status)
	}
	if view.Details != ErrorCodeGitHubAPI {
		t.Fatalf("expected exception kind detail, got %v", view.Details)
	}
}

func TestProjectResultWorkerFailure(t *testing.T) {
	msg := "panic: boom"
	view := ProjectResult(Review{ID: "task-1", Status: StatusFailure, ErrorMessage: &msg})
	if view.Status != ViewFailed {
		t.Fatalf("expected FAILED, got %q", view.Status)
	}
	if view.Error != msg {
		t.Fatalf("expected diagnostic text, got %q", view.Error)
	}
}

func TestProjectResultMalformedPayload(t *testing.T) {
	view := ProjectResult(Review{ID: "task-1", Status: StatusSuccess, Result: map[string]any{}})
	if view.Status != ViewFailed {
		t.Fatalf("expected FAILED for malformed payload, got %q", view.Status)
	}
	if view.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestProjectResultIdempotent(t *testing.T) {
	rv := Review{ID: "task-1", Status: StatusProgress, Progress: ProgressFetchingContext}
	first := ProjectResult(rv)
	second := ProjectResult(rv)
	if first != second {
		t.Fatalf("projection not idempotent: %+v vs %+v", first, second)
	}
}
