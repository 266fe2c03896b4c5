package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"speaktodo/internal/model"
	"speaktodo/internal/task"
	"speaktodo/pkg/llmprovider"
)

// parsedTask is the wire schema the language model replies with.
type parsedTask struct {
	Project string  `json:"project"`
	Title   string  `json:"title"`
	Owner   string  `json:"owner"`
	DueDate *string `json:"due_date"`
}

// Extract turns a transcript into draft task records.
func (uc *implUseCase) Extract(ctx context.Context, sc model.Scope, input task.ExtractInput) (task.ExtractOutput, error) {
	transcript := strings.TrimSpace(input.Transcript)
	if transcript == "" {
		return task.ExtractOutput{}, nil
	}

	uc.l.Infof(ctx, "extract: chat=%d transcript_length=%d", sc.ChatID, len(transcript))

	members, err := uc.directory.Members(ctx, uc.cfg.BoardID)
	if err != nil {
		uc.l.Warnf(ctx, "extract: member list unavailable, owners stay unresolved: %v", err)
		members = nil
	}

	parsed, degradedReason := uc.parseWithLLM(ctx, transcript, members)
	degraded := degradedReason != ""
	if degraded {
		uc.l.Warnf(ctx, "extract: falling back to keyword split: %s", degradedReason)
		parsed = fallbackSplit(transcript)
	}
	if len(parsed) == 0 {
		// The model answered but found nothing. A non-empty transcript
		// must still produce something reviewable.
		degraded = true
		degradedReason = "model returned no tasks"
		parsed = fallbackSplit(transcript)
	}

	now := uc.now()
	records := make([]model.TaskRecord, 0, len(parsed))
	for _, p := range parsed {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		record := model.TaskRecord{
			ID:      uuid.NewString(),
			Project: defaultIfEmpty(strings.TrimSpace(p.Project), "General"),
			Title:   title,
			Owner:   "Unassigned",
			Status:  model.TaskStatusDraft,
		}
		uc.assignOwner(ctx, &record, p.Owner)
		record.DueDate = uc.resolveDue(ctx, p.DueDate, now)
		records = append(records, record)
	}
	if len(records) == 0 {
		// Validation stripped everything. Keep the guarantee with a
		// single task carrying the raw note.
		records = append(records, model.TaskRecord{
			ID:      uuid.NewString(),
			Project: "General",
			Title:   truncate(transcript, 80),
			Owner:   "Unassigned",
			Status:  model.TaskStatusDraft,
		})
	}

	uc.l.Infof(ctx, "extract: produced %d tasks degraded=%v", len(records), degraded)
	return task.ExtractOutput{
		Tasks:          records,
		Degraded:       degraded,
		DegradedReason: degradedReason,
	}, nil
}

// parseWithLLM asks the provider chain for tasks. It returns a non-empty
// reason instead of tasks when the chain or its output is unusable.
func (uc *implUseCase) parseWithLLM(ctx context.Context, transcript string, members []model.BoardMember) ([]parsedTask, string) {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	today := uc.now().Format("Monday, 2006-01-02")

	var all []parsedTask
	for _, chunk := range chunkTranscript(transcript, maxChunkChars) {
		resp, err := uc.llm.GenerateContent(ctx, &llmprovider.Request{
			System: extractionSystemPrompt,
			Messages: []llmprovider.Message{
				{Role: "user", Content: buildExtractionPrompt(chunk, today, names)},
			},
			Temperature: 0.2,
			MaxTokens:   2048,
		})
		if err != nil {
			return nil, err.Error()
		}

		cleaned := sanitizeJSONResponse(resp.Text)
		var tasks []parsedTask
		if err := json.Unmarshal([]byte(cleaned), &tasks); err != nil {
			uc.l.Errorf(ctx, "extract: unparseable model output. Raw=%q Cleaned=%q", resp.Text, cleaned)
			return nil, "model output was not valid JSON"
		}
		all = append(all, tasks...)
	}
	return all, ""
}

// assignOwner resolves a spoken owner name through the member directory,
// which applies the configured ambiguity policy. Ambiguous or unknown names
// and an unavailable directory all leave the task unassigned.
func (uc *implUseCase) assignOwner(ctx context.Context, record *model.TaskRecord, spoken string) {
	spoken = strings.TrimSpace(spoken)
	if spoken == "" || strings.EqualFold(spoken, "unassigned") {
		return
	}
	member, ok, err := uc.directory.Resolve(ctx, uc.cfg.BoardID, spoken)
	if err != nil {
		uc.l.Infof(ctx, "extract: owner %q not resolved, leaving unassigned: %v", spoken, err)
		return
	}
	if !ok {
		uc.l.Debugf(ctx, "extract: owner %q not on the board", spoken)
		return
	}
	record.Owner = member.Name
	record.OwnerID = member.RemoteID
}

// resolveDue accepts either an ISO date or a natural phrase from the model.
func (uc *implUseCase) resolveDue(ctx context.Context, due *string, now time.Time) *time.Time {
	if due == nil {
		return nil
	}
	phrase := strings.TrimSpace(*due)
	if phrase == "" || strings.EqualFold(phrase, "null") {
		return nil
	}
	resolved, ok := uc.dates.Resolve(phrase, now)
	if !ok {
		uc.l.Debugf(ctx, "extract: could not resolve due date %q", phrase)
		return nil
	}
	return &resolved
}

func (uc *implUseCase) now() time.Time {
	if loc, err := time.LoadLocation(uc.cfg.Timezone); err == nil {
		return time.Now().In(loc)
	}
	return time.Now()
}

func defaultIfEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
