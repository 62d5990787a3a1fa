package nlparser

import (
	"regexp"
	"strings"
)

var fillerWords = []string{"on", "for", "at", "in", "worked", "log", "logged", "spent", "doing"}

// extractDescription strips every recognized token (duration phrases,
// date keywords, day names, the matched project/task names, and a
// short filler-word list) from text and collapses the remainder to a
// single-spaced string, mirroring _extract_description.
func extractDescription(text, projectName, taskName string) string {
	description := text

	for _, p := range durationPatterns {
		description = p.re.ReplaceAllString(description, "")
	}

	for keyword := range dateKeywords {
		description = replaceWordCI(description, keyword)
	}
	for dayName := range daysOfWeek {
		description = replaceWordCI(description, dayName)
	}

	if projectName != "" {
		description = replaceWordCI(description, projectName)
	}
	if taskName != "" {
		description = replaceWordCI(description, taskName)
	}

	for _, word := range fillerWords {
		description = replaceWordCI(description, word)
	}

	return strings.Join(strings.Fields(description), " ")
}

func replaceWordCI(text, word string) string {
	if word == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	return re.ReplaceAllString(text, "")
}
