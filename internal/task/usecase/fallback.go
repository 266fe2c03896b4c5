package usecase

import (
	"regexp"
	"strings"
	"unicode"
)

// conjunctionRe splits clauses joined by spoken connectors. Sentence
// punctuation is handled first, so this only sees single sentences.
var conjunctionRe = regexp.MustCompile(`(?i)\s*(?:,\s*)?\b(?:and then|then|and also|also|and)\b\s+`)

// fallbackSplit produces tasks without a language model by cutting the
// transcript on sentence boundaries and spoken connectors. It always returns
// at least one task for a non-empty transcript.
func fallbackSplit(transcript string) []parsedTask {
	var tasks []parsedTask
	for _, sentence := range splitSentences(transcript) {
		for _, clause := range conjunctionRe.Split(sentence, -1) {
			title := cleanClause(clause)
			if title == "" {
				continue
			}
			tasks = append(tasks, parsedTask{
				Project: "General",
				Title:   title,
				Owner:   "Unassigned",
			})
		}
	}
	if len(tasks) == 0 {
		if title := cleanClause(transcript); title != "" {
			tasks = append(tasks, parsedTask{
				Project: "General",
				Title:   title,
				Owner:   "Unassigned",
			})
		}
	}
	return tasks
}

// cleanClause trims filler and punctuation and capitalizes the first letter.
func cleanClause(clause string) string {
	title := strings.TrimSpace(clause)
	title = strings.Trim(title, ".,;:!? ")
	if len(title) < 3 {
		return ""
	}
	title = truncate(title, 80)
	runes := []rune(title)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
