package reviews

import (
	"encoding/json"
	"fmt"
)

// parseSnippetLimit bounds the diagnostic snippet attached to parse failures.
const parseSnippetLimit = 1000

// ParseFailure reports that model output was not well-formed JSON.
type ParseFailure struct {
	Message string
	Snippet string
}

// ParseReport parses normalized model output into the generic JSON tree.
// Strict parsing only: trailing garbage or partial documents fail. Same input
// always yields the same outcome.
func ParseReport(text string) (any, *ParseFailure) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, &ParseFailure{
			Message: fmt.Sprintf("invalid JSON in model output: %v", err),
			Snippet: snippet(text),
		}
	}
	return value, nil
}

func snippet(text string) string {
	if len(text) > parseSnippetLimit {
		return text[:parseSnippetLimit]
	}
	return text
}
