package ai

import (
	"fmt"
	"strings"
)

// extractJSON pulls the JSON payload out of a model response. Models are
// asked for raw JSON but still wrap it in markdown fences or preamble text
// often enough that parsing has to tolerate both.
func extractJSON(response string) (string, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	// Strip markdown code fences, with or without a language tag.
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "[{") {
			text = text[nl+1:]
		}
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	// Drop any preamble before the first bracket and trailer after the last.
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", fmt.Errorf("no JSON found in response")
	}
	var end int
	if text[start] == '[' {
		end = strings.LastIndexByte(text, ']')
	} else {
		end = strings.LastIndexByte(text, '}')
	}
	if end < start {
		return "", fmt.Errorf("unterminated JSON in response")
	}
	return text[start : end+1], nil
}
