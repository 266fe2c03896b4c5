package usecase

import (
	"regexp"
	"strings"
)

// maxChunkChars keeps a single model request well inside context limits.
const maxChunkChars = 1500

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// sanitizeJSONResponse removes markdown code fences and leading/trailing
// prose that language models often add around JSON output.
func sanitizeJSONResponse(text string) string {
	if matches := codeFenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return text
	}
	end := strings.LastIndexAny(text, "]}")
	if end == -1 || end < start {
		return text
	}
	return strings.TrimSpace(text[start : end+1])
}

// chunkTranscript splits a long transcript at sentence boundaries so no
// chunk exceeds maxChars. A single oversized sentence becomes its own chunk.
func chunkTranscript(transcript string, maxChars int) []string {
	if len(transcript) <= maxChars {
		return []string{transcript}
	}

	sentences := splitSentences(transcript)
	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

var sentenceEndRe = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)

// splitSentences cuts text on sentence-ending punctuation. Text without any
// comes back as a single sentence.
func splitSentences(text string) []string {
	var sentences []string
	rest := strings.TrimSpace(text)
	for {
		loc := sentenceEndRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		sentence := strings.TrimSpace(rest[loc[2]:loc[3]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		rest = rest[loc[1]:]
		if rest == "" {
			return sentences
		}
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut
}
