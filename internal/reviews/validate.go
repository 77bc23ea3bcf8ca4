package reviews

import (
	"fmt"
	"math"
)

// KindPolicy configures how issue kinds are validated. An empty Allowed set
// means the enum is open and any non-empty string passes.
type KindPolicy struct {
	Allowed  []string
	Critical []string
}

func (p KindPolicy) permits(kind string) bool {
	if len(p.Allowed) == 0 {
		return true
	}
	for _, allowed := range p.Allowed {
		if kind == allowed {
			return true
		}
	}
	return false
}

// SchemaFailure reports the first structural defect found in parsed model
// output. Field is the path of the offending value, e.g.
// files[0].issues[1].line.
type SchemaFailure struct {
	Message string
	Field   string
	Value   any
}

// ValidateReport checks the generic JSON tree against the report schema and
// builds the typed report. It validates presence and type of every field,
// line >= 1, non-negative summary counts, and the kind enum when the policy
// closes it. It fails fast on the first defect and does not reconcile summary
// arithmetic against the file list.
func ValidateReport(value any, policy KindPolicy) (*AnalysisReport, *SchemaFailure) {
	root, ok := value.(map[string]any)
	if !ok {
		return nil, schemaFailure("report", "must be an object", value)
	}

	filesRaw, ok := root["files"]
	if !ok {
		return nil, schemaFailure("files", "is required", nil)
	}
	filesList, ok := filesRaw.([]any)
	if !ok {
		return nil, schemaFailure("files", "must be an array", filesRaw)
	}

	files := make([]FileAnalysis, 0, len(filesList))
	for i, fileRaw := range filesList {
		filePath := fmt.Sprintf("files[%d]", i)
		fileObj, ok := fileRaw.(map[string]any)
		if !ok {
			return nil, schemaFailure(filePath, "must be an object", fileRaw)
		}

		name, fail := requireString(fileObj, "name", filePath)
		if fail != nil {
			return nil, fail
		}

		issuesRaw, ok := fileObj["issues"]
		if !ok {
			return nil, schemaFailure(filePath+".issues", "is required", nil)
		}
		issuesList, ok := issuesRaw.([]any)
		if !ok {
			return nil, schemaFailure(filePath+".issues", "must be an array", issuesRaw)
		}

		issues := make([]AnalysisIssue, 0, len(issuesList))
		for j, issueRaw := range issuesList {
			issuePath := fmt.Sprintf("%s.issues[%d]", filePath, j)
			issueObj, ok := issueRaw.(map[string]any)
			if !ok {
				return nil, schemaFailure(issuePath, "must be an object", issueRaw)
			}

			kind, fail := requireString(issueObj, "type", issuePath)
			if fail != nil {
				return nil, fail
			}
			if !policy.permits(kind) {
				return nil, schemaFailure(issuePath+".type", fmt.Sprintf("%q is not an allowed issue type", kind), kind)
			}

			line, fail := requireInt(issueObj, "line", issuePath, 1)
			if fail != nil {
				return nil, fail
			}

			description, fail := requireString(issueObj, "description", issuePath)
			if fail != nil {
				return nil, fail
			}
			suggestion, fail := requireString(issueObj, "suggestion", issuePath)
			if fail != nil {
				return nil, fail
			}

			issues = append(issues, AnalysisIssue{
				Kind:        kind,
				Line:        line,
				Description: description,
				Suggestion:  suggestion,
			})
		}

		files = append(files, FileAnalysis{Path: name, Issues: issues})
	}

	summaryRaw, ok := root["summary"]
	if !ok {
		return nil, schemaFailure("summary", "is required", nil)
	}
	summaryObj, ok := summaryRaw.(map[string]any)
	if !ok {
		return nil, schemaFailure("summary", "must be an object", summaryRaw)
	}

	totalFiles, fail := requireInt(summaryObj, "total_files", "summary", 0)
	if fail != nil {
		return nil, fail
	}
	totalIssues, fail := requireInt(summaryObj, "total_issues", "summary", 0)
	if fail != nil {
		return nil, fail
	}
	criticalIssues, fail := requireInt(summaryObj, "critical_issues", "summary", 0)
	if fail != nil {
		return nil, fail
	}

	return &AnalysisReport{
		Files: files,
		Summary: AnalysisSummary{
			TotalFiles:     totalFiles,
			TotalIssues:    totalIssues,
			CriticalIssues: criticalIssues,
		},
	}, nil
}

func schemaFailure(field, problem string, value any) *SchemaFailure {
	return &SchemaFailure{
		Message: fmt.Sprintf("%s %s", field, problem),
		Field:   field,
		Value:   value,
	}
}

func requireString(obj map[string]any, key, parent string) (string, *SchemaFailure) {
	field := parent + "." + key
	if parent == "" {
		field = key
	}
	raw, ok := obj[key]
	if !ok {
		return "", schemaFailure(field, "is required", nil)
	}
	str, ok := raw.(string)
	if !ok {
		return "", schemaFailure(field, "must be a string", raw)
	}
	if str == "" {
		return "", schemaFailure(field, "must not be empty", raw)
	}
	return str, nil
}

func requireInt(obj map[string]any, key, parent string, min int) (int, *SchemaFailure) {
	field := parent + "." + key
	if parent == "" {
		field = key
	}
	raw, ok := obj[key]
	if !ok {
		return 0, schemaFailure(field, "is required", nil)
	}
	num, ok := raw.(float64)
	if !ok {
		return 0, schemaFailure(field, "must be an integer", raw)
	}
	if num != math.Trunc(num) {
		return 0, schemaFailure(field, "must be an integer", raw)
	}
	value := int(num)
	if value < min {
		return 0, schemaFailure(field, fmt.Sprintf("must be >= %d", min), raw)
	}
	return value, nil
}
