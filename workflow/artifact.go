package workflow

import (
	"regexp"
	"strings"
)

// Artifact is a code or document artifact extracted from LLM output
type Artifact struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Parsed is the result of splitting raw LLM output into its parts
type Parsed struct {
	// Text is the output with artifact and thinking blocks removed
	Text string `json:"text"`

	// Reasoning is the concatenated content of thinking blocks
	Reasoning string `json:"reasoning,omitempty"`

	// Artifacts are the extracted artifact blocks in document order
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

var (
	artifactPattern = regexp.MustCompile(`(?s)<artifact\b([^>]*)>(.*?)</artifact>`)
	thinkingPattern = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	attrPattern     = regexp.MustCompile(`(\w+)="([^"]*)"`)
)

// Parse splits raw LLM output into plain text, reasoning, and artifacts.
// Malformed or unclosed tags are left in the text untouched; Parse never
// fails.
func Parse(raw string) *Parsed {
	parsed := &Parsed{}

	text := artifactPattern.ReplaceAllStringFunc(raw, func(match string) string {
		groups := artifactPattern.FindStringSubmatch(match)
		artifact := Artifact{Content: strings.TrimSpace(groups[2])}

		for _, attr := range attrPattern.FindAllStringSubmatch(groups[1], -1) {
			switch attr[1] {
			case "type":
				artifact.Type = attr[2]
			case "title":
				artifact.Title = attr[2]
			}
		}

		parsed.Artifacts = append(parsed.Artifacts, artifact)
		return ""
	})

	var reasoning []string
	text = thinkingPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := thinkingPattern.FindStringSubmatch(match)
		if block := strings.TrimSpace(groups[1]); block != "" {
			reasoning = append(reasoning, block)
		}
		return ""
	})

	parsed.Text = strings.TrimSpace(text)
	parsed.Reasoning = strings.Join(reasoning, "\n\n")

	return parsed
}
