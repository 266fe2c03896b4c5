package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"speaktodo/internal/model"
	"speaktodo/internal/session"
	"speaktodo/internal/task"
	pkgTelegram "speaktodo/pkg/telegram"
)

var timeNow = time.Now

// sendReview posts the review message for a fresh session and remembers its
// message id for in-place edits.
func (h *handler) sendReview(ctx context.Context, s *session.Session, degraded bool) error {
	tasks := s.Tasks()
	msgID, err := h.bot.SendMessageWithKeyboard(
		s.Scope.ChatID,
		renderReviewText(tasks, degraded),
		"Markdown",
		reviewKeyboard(tasks),
	)
	if err != nil {
		return fmt.Errorf("send review: %w", err)
	}
	s.ReviewMessageID = msgID
	return nil
}

// refreshReview redraws the review message after an edit.
func (h *handler) refreshReview(ctx context.Context, s *session.Session) error {
	tasks := s.Tasks()
	if s.ReviewMessageID == 0 {
		return h.sendReview(ctx, s, s.Degraded)
	}
	return h.bot.EditMessageText(
		s.Scope.ChatID,
		s.ReviewMessageID,
		renderReviewText(tasks, s.Degraded),
		"Markdown",
		reviewKeyboard(tasks),
	)
}

// showFieldMenu swaps the review keyboard for the per-task field menu.
func (h *handler) showFieldMenu(ctx context.Context, s *session.Session, taskID string) error {
	t, err := s.Task(taskID)
	if err != nil {
		return h.reportSessionError(s.Scope.ChatID, err)
	}
	return h.bot.EditMessageText(
		s.Scope.ChatID,
		s.ReviewMessageID,
		fmt.Sprintf("Editing *%s*\n%s\n\nWhat do you want to change?", t.Title, renderTaskMeta(t)),
		"Markdown",
		fieldKeyboard(taskID),
	)
}

func renderReviewText(tasks []model.TaskRecord, degraded bool) string {
	var sb strings.Builder
	if len(tasks) == 1 {
		sb.WriteString("📋 Here's what I heard (1 task):\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("📋 Here's what I heard (%d tasks):\n\n", len(tasks)))
	}
	if degraded {
		sb.WriteString("⚠️ _The assistant was unavailable, so this is a rough split. Please check it carefully._\n\n")
	}
	for i, t := range tasks {
		sb.WriteString(fmt.Sprintf("%d. *%s*\n   %s\n", i+1, t.Title, renderTaskMeta(t)))
	}
	sb.WriteString("\nEdit anything that's off, then confirm.")
	return sb.String()
}

func renderTaskMeta(t model.TaskRecord) string {
	due := "no due date"
	if t.DueDate != nil {
		due = t.DueDate.Format("Mon, Jan 2")
	}
	return fmt.Sprintf("📁 %s · 👤 %s · 📅 %s", t.Project, t.Owner, due)
}

func reviewKeyboard(tasks []model.TaskRecord) *pkgTelegram.InlineKeyboardMarkup {
	var rows [][]pkgTelegram.InlineKeyboardButton
	for i, t := range tasks {
		rows = append(rows, []pkgTelegram.InlineKeyboardButton{
			{Text: fmt.Sprintf("✏️ Task %d", i+1), CallbackData: cbEditTask + t.ID},
			{Text: fmt.Sprintf("🗑 Task %d", i+1), CallbackData: cbRemoveTask + t.ID},
		})
	}
	rows = append(rows,
		[]pkgTelegram.InlineKeyboardButton{{Text: "➕ Add task", CallbackData: cbAddTask}},
		[]pkgTelegram.InlineKeyboardButton{
			{Text: "✅ Confirm", CallbackData: cbConfirmAll},
			{Text: "❌ Cancel", CallbackData: cbCancelAll},
		},
	)
	return &pkgTelegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func fieldKeyboard(taskID string) *pkgTelegram.InlineKeyboardMarkup {
	return &pkgTelegram.InlineKeyboardMarkup{InlineKeyboard: [][]pkgTelegram.InlineKeyboardButton{
		{
			{Text: "📁 Project", CallbackData: cbEditProj + taskID},
			{Text: "✏️ Title", CallbackData: cbEditTitle + taskID},
		},
		{
			{Text: "👤 Owner", CallbackData: cbEditOwner + taskID},
			{Text: "📅 Due date", CallbackData: cbEditDue + taskID},
		},
		{
			{Text: "⬅️ Back", CallbackData: cbBack},
		},
	}}
}

// renderOutcomeReport summarizes a commit, calling out partial failures.
func renderOutcomeReport(out task.CommitOutput) string {
	var sb strings.Builder
	switch {
	case out.Failed == 0:
		sb.WriteString(fmt.Sprintf("✅ All %d task(s) are on the board!\n\n", out.Committed))
	case out.Committed == 0:
		sb.WriteString("⚠️ None of the tasks made it to the board.\n\n")
	default:
		sb.WriteString(fmt.Sprintf("⚠️ %d task(s) made it, %d did not:\n\n", out.Committed, out.Failed))
	}
	for i, o := range out.Outcomes {
		if o.Status == model.CommitStatusCommitted {
			sb.WriteString(fmt.Sprintf("%d. ✅ %s\n", i+1, o.Title))
			continue
		}
		sb.WriteString(fmt.Sprintf("%d. ❌ %s (%s)\n", i+1, o.Title, o.ErrorDetail))
	}
	if out.Failed > 0 {
		sb.WriteString("\nThe failed ones were not saved. Send a new voice note to retry them.")
	}
	return sb.String()
}
