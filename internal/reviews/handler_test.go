package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
	return out
}

func TestAnalyzePRAccepted(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Queue: &queueStub{}}
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/analyze-pr",
		`{"repo_url":"https://github.com/acme/widgets","pr_number":7}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	taskID, _ := body["task_id"].(string)
	if taskID == "" {
		t.Fatal("expected a task_id")
	}
	if body["status"] != StatusPending {
		t.Fatalf("expected PENDING, got %v", body["status"])
	}

	if _, err := repo.GetByID(context.Background(), taskID); err != nil {
		t.Fatalf("accepted review not stored: %v", err)
	}
}

func TestAnalyzePRRejectsInvalidPRNumber(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Queue: &queueStub{}}
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/analyze-pr",
		`{"repo_url":"https://github.com/acme/widgets","pr_number":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "validation_error" {
		t.Fatalf("expected validation_error, got %v", errObj["code"])
	}
	if len(repo.byID) != 0 {
		t.Fatal("rejected submission must not create a job")
	}
}

func TestAnalyzePRRejectsMalformedBody(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo(), Queue: &queueStub{}}
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/analyze-pr", `{"repo_url":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetStatus(t *testing.T) {
	repo := NewMemoryRepo()
	seedReview(t, repo, "task-1")
	if err := repo.UpdateProgress(context.Background(), "task-1", ProgressRunningAnalysis); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	r := newTestRouter(&Service{Repo: repo})

	w := doRequest(t, r, http.MethodGet, "/api/v1/status/task-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["task_id"] != "task-1" || body["status"] != StatusProgress {
		t.Fatalf("unexpected status body: %v", body)
	}
}

func TestGetStatusUnknownTask(t *testing.T) {
	r := newTestRouter(&Service{Repo: NewMemoryRepo()})

	w := doRequest(t, r, http.MethodGet, "/api/v1/status/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "not_found" {
		t.Fatalf("expected not_found, got %v", errObj["code"])
	}
}

func TestGetResultsShapes(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()

	seedReview(t, repo, "pending")

	seedReview(t, repo, "running")
	if err := repo.UpdateProgress(context.Background(), "running", ProgressFetchingContext); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	seedReview(t, repo, "done")
	report := &AnalysisReport{Summary: AnalysisSummary{TotalFiles: 1}}
	if err := repo.Complete(context.Background(), "done", CompletedResult(report).Payload(), now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	seedReview(t, repo, "crashed")
	if err := repo.Fail(context.Background(), "crashed", "panic: boom", now); err != nil {
		t.Fatalf("fail: %v", err)
	}

	r := newTestRouter(&Service{Repo: repo})

	cases := []struct {
		taskID     string
		wantStatus string
	}{
		{"pending", ViewPending},
		{"running", ViewProgress},
		{"done", ViewCompleted},
		{"crashed", ViewFailed},
	}
	for _, tc := range cases {
		t.Run(tc.taskID, func(t *testing.T) {
			w := doRequest(t, r, http.MethodGet, "/api/v1/results/"+tc.taskID, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			body := decodeBody(t, w)
			if body["status"] != tc.wantStatus {
				t.Fatalf("expected status %q, got %v", tc.wantStatus, body["status"])
			}
		})
	}

	w := doRequest(t, r, http.MethodGet, "/api/v1/results/done", "")
	body := decodeBody(t, w)
	if body["results"] == nil {
		t.Fatal("completed result must carry the report")
	}
	if _, hasErr := body["error"]; hasErr && body["error"] != "" {
		t.Fatalf("completed result must not carry an error, got %v", body["error"])
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/results/crashed", "")
	body = decodeBody(t, w)
	if body["error"] != "panic: boom" {
		t.Fatalf("expected worker diagnostic, got %v", body["error"])
	}
}

func TestGetResultsUnknownTask(t *testing.T) {
	r := newTestRouter(&Service{Repo: NewMemoryRepo()})

	w := doRequest(t, r, http.MethodGet, "/api/v1/results/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
