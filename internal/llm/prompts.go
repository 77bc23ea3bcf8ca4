package llm

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed prompts/review_v1.txt
var reviewPromptV1 string

// PromptTemplate returns the review prompt text and whether the version was
// recognized. Unrecognized versions fall back to v1.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v1":
		return reviewPromptV1, true
	default:
		return reviewPromptV1, false
	}
}

// BuildUserPrompt renders the user-facing half of the review request.
func BuildUserPrompt(input ReviewInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following GitHub pull request diff for repository '%s' PR #%d.\n\n", input.RepoURL, input.PRNumber)
	if strings.TrimSpace(input.Title) != "" {
		fmt.Fprintf(&b, "Title: %s\n", input.Title)
	}
	if strings.TrimSpace(input.Description) != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", input.Description)
	}
	b.WriteString("\n```diff\n")
	b.WriteString(input.Diff)
	b.WriteString("\n```\n")
	return b.String()
}
