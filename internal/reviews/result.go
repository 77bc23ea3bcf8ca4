package reviews

import (
	"context"
	"errors"
	"strings"

	"review-backend/internal/github"
)

// JobResult outcome discriminants.
const (
	OutcomeCompleted        = "completed"
	OutcomeLogicalFailure   = "logical_failure"
	OutcomeExceptionFailure = "exception_failure"
)

// JobResult is the discriminated outcome handed from the pipeline to the
// state store. Exactly one variant is populated, keyed by Outcome.
type JobResult struct {
	Outcome       string
	Report        *AnalysisReport
	ErrorMessage  string
	Detail        any
	ExceptionKind string
}

// CompletedResult wraps a validated report.
func CompletedResult(report *AnalysisReport) JobResult {
	return JobResult{Outcome: OutcomeCompleted, Report: report}
}

// LogicalFailureResult records that the model's output was unusable. detail
// is the parser's bounded snippet or the validator's offending value.
func LogicalFailureResult(message string, detail any) JobResult {
	return JobResult{Outcome: OutcomeLogicalFailure, ErrorMessage: message, Detail: detail}
}

// ExceptionFailureResult records an unexpected error caught before a report
// could be produced.
func ExceptionFailureResult(message, kind string) JobResult {
	return JobResult{Outcome: OutcomeExceptionFailure, ErrorMessage: message, ExceptionKind: kind}
}

// Classify resolves a job to exactly one terminal classification.
// Priority order: worker error, then parse failure, then schema failure,
// then completion.
func Classify(workerErr error, parseFail *ParseFailure, schemaFail *SchemaFailure, report *AnalysisReport) JobResult {
	switch {
	case workerErr != nil:
		return ExceptionFailureResult(workerErr.Error(), classifyException(workerErr))
	case parseFail != nil:
		return LogicalFailureResult(parseFail.Message, parseFail.Snippet)
	case schemaFail != nil:
		return LogicalFailureResult(schemaFail.Message, schemaFail.Value)
	default:
		return CompletedResult(report)
	}
}

// classifyException maps a caught collaborator error to an error code.
func classifyException(err error) string {
	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		return ErrorCodeGitHubAPI
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") {
		return ErrorCodeLLMTimeout
	}
	return ErrorCodeInternal
}

// Payload converts the result to the generic form persisted by the store.
func (r JobResult) Payload() map[string]any {
	payload := map[string]any{"outcome": r.Outcome}
	switch r.Outcome {
	case OutcomeCompleted:
		payload["report"] = r.Report
	case OutcomeLogicalFailure:
		payload["error_message"] = r.ErrorMessage
		payload["detail"] = r.Detail
	case OutcomeExceptionFailure:
		payload["error_message"] = r.ErrorMessage
		payload["exception_kind"] = r.ExceptionKind
	}
	return payload
}
