package reviews

import "strings"

// NormalizeOutput strips at most one leading code fence (with optional
// language tag) and at most one trailing fence from raw model output, then
// trims whitespace. It never fails: malformed content is returned trimmed
// as-is and left for the parser to reject.
func NormalizeOutput(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)

	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(text[:len(text)-3])
	}
	return text
}
