package reviews

import "fmt"

// AnalysisIssue is one flaw found in one file. Wire keys follow the model
// output contract.
type AnalysisIssue struct {
	Kind        string `json:"type"`
	Line        int    `json:"line"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// FileAnalysis is the set of issues found in one file. Path uniqueness is not
// enforced; upstream may double-report a file.
type FileAnalysis struct {
	Path   string          `json:"name"`
	Issues []AnalysisIssue `json:"issues"`
}

// AnalysisSummary carries aggregate counts over the file list.
type AnalysisSummary struct {
	TotalFiles     int `json:"total_files"`
	TotalIssues    int `json:"total_issues"`
	CriticalIssues int `json:"critical_issues"`
}

// AnalysisReport is the validated terminal artifact of a review job.
// Constructed once after parse+validate, immutable thereafter.
type AnalysisReport struct {
	Files   []FileAnalysis  `json:"files"`
	Summary AnalysisSummary `json:"summary"`
}

// ComputeSummary derives the summary counts from a file list. criticalKinds
// is the set of issue kinds counted as critical.
func ComputeSummary(files []FileAnalysis, criticalKinds []string) AnalysisSummary {
	critical := make(map[string]struct{}, len(criticalKinds))
	for _, kind := range criticalKinds {
		critical[kind] = struct{}{}
	}

	summary := AnalysisSummary{TotalFiles: len(files)}
	for _, file := range files {
		summary.TotalIssues += len(file.Issues)
		for _, issue := range file.Issues {
			if _, ok := critical[issue.Kind]; ok {
				summary.CriticalIssues++
			}
		}
	}
	return summary
}

// VerifySummary checks the report's summary against the counts recomputed
// from its file list. The schema validator deliberately does not do this;
// callers that need strict consistency invoke it separately.
func VerifySummary(report *AnalysisReport, criticalKinds []string) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	want := ComputeSummary(report.Files, criticalKinds)
	got := report.Summary
	if got.TotalFiles != want.TotalFiles {
		return fmt.Errorf("summary.total_files is %d, file list has %d", got.TotalFiles, want.TotalFiles)
	}
	if got.TotalIssues != want.TotalIssues {
		return fmt.Errorf("summary.total_issues is %d, file list has %d", got.TotalIssues, want.TotalIssues)
	}
	if got.CriticalIssues != want.CriticalIssues {
		return fmt.Errorf("summary.critical_issues is %d, file list has %d", got.CriticalIssues, want.CriticalIssues)
	}
	return nil
}
