package usecase

import (
	"fmt"
	"strings"
)

const extractionSystemPrompt = `You extract actionable tasks from a spoken note transcript.

Reply with a JSON array only, no prose. Each element is an object with:
- "project": the project or area the task belongs to, "General" if unclear
- "title": a short imperative task title
- "owner": the person responsible, or "Unassigned"
- "due_date": a date in YYYY-MM-DD, a natural phrase like "tomorrow" or "Friday", or null

Rules:
- Split compound sentences into separate tasks.
- Keep the tasks in the order they are spoken.
- Never invent tasks that are not in the transcript.
- Pick owners only from the team list when one is given.`

// buildExtractionPrompt renders the user turn for one transcript chunk.
func buildExtractionPrompt(transcript, today string, members []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Today is %s.\n", today))
	if len(members) > 0 {
		sb.WriteString(fmt.Sprintf("Team members: %s.\n", strings.Join(members, ", ")))
	}
	sb.WriteString("\nTranscript:\n")
	sb.WriteString(transcript)
	return sb.String()
}
