package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"speaktodo/internal/session"
	"speaktodo/internal/task"
	pkgTelegram "speaktodo/pkg/telegram"
)

// Callback data grammar. Task ids ride after the prefix; Telegram caps
// callback data at 64 bytes, which fits a UUID comfortably.
const (
	cbEditTask   = "edit_task_"
	cbEditProj   = "edit_project_"
	cbEditTitle  = "edit_title_"
	cbEditOwner  = "edit_owner_"
	cbEditDue    = "edit_due_"
	cbRemoveTask = "remove_task_"
	cbAddTask    = "add_task"
	cbConfirmAll = "confirm_all"
	cbCancelAll  = "cancel_all"
	cbBack       = "back_to_tasks"
)

// processCallback routes an inline keyboard press.
func (h *handler) processCallback(ctx context.Context, cb *pkgTelegram.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil {
		return h.bot.AnswerCallbackQuery(cb.ID, "")
	}
	chatID := cb.Message.Chat.ID

	s, err := h.sessions.Get(chatID)
	if err != nil {
		_ = h.bot.AnswerCallbackQuery(cb.ID, "This review has expired.")
		return h.bot.SendMessage(chatID, "That review is gone. Send a new voice note to start over.")
	}

	data := cb.Data
	switch {
	case data == cbConfirmAll:
		return h.confirmAndCommit(ctx, cb, s)

	case data == cbCancelAll:
		_ = h.bot.AnswerCallbackQuery(cb.ID, "Dropped.")
		if err := s.Abandon(); err != nil {
			return h.reportSessionError(chatID, err)
		}
		h.sessions.Remove(chatID)
		return h.bot.EditMessageText(chatID, s.ReviewMessageID, "❌ Review dropped. Nothing was put on the board.", "", nil)

	case data == cbAddTask:
		if err := s.SetPending(session.Pending{AddTask: true}); err != nil {
			_ = h.bot.AnswerCallbackQuery(cb.ID, "")
			return h.reportSessionError(chatID, err)
		}
		_ = h.bot.AnswerCallbackQuery(cb.ID, "")
		return h.bot.SendMessage(chatID, "Type the title of the new task.")

	case data == cbBack:
		_ = h.bot.AnswerCallbackQuery(cb.ID, "")
		s.ClearPending()
		return h.refreshReview(ctx, s)

	case strings.HasPrefix(data, cbEditTask):
		_ = h.bot.AnswerCallbackQuery(cb.ID, "")
		return h.showFieldMenu(ctx, s, strings.TrimPrefix(data, cbEditTask))

	case strings.HasPrefix(data, cbRemoveTask):
		taskID := strings.TrimPrefix(data, cbRemoveTask)
		if err := s.RemoveTask(taskID); err != nil {
			_ = h.bot.AnswerCallbackQuery(cb.ID, "")
			return h.reportSessionError(chatID, err)
		}
		_ = h.bot.AnswerCallbackQuery(cb.ID, "Removed.")
		return h.refreshReview(ctx, s)

	default:
		return h.fieldEditCallback(ctx, cb, s)
	}
}

// fieldEditCallback handles the edit_<field>_<id> family by parking a
// pending edit and prompting for the value.
func (h *handler) fieldEditCallback(ctx context.Context, cb *pkgTelegram.CallbackQuery, s *session.Session) error {
	chatID := cb.Message.Chat.ID

	var (
		field  session.Field
		taskID string
		prompt string
	)
	switch {
	case strings.HasPrefix(cb.Data, cbEditProj):
		field, taskID = session.FieldProject, strings.TrimPrefix(cb.Data, cbEditProj)
		prompt = "Type the project name."
	case strings.HasPrefix(cb.Data, cbEditTitle):
		field, taskID = session.FieldTitle, strings.TrimPrefix(cb.Data, cbEditTitle)
		prompt = "Type the new title."
	case strings.HasPrefix(cb.Data, cbEditOwner):
		field, taskID = session.FieldOwner, strings.TrimPrefix(cb.Data, cbEditOwner)
		prompt = "Who should own this? Type a name, or \"none\"."
	case strings.HasPrefix(cb.Data, cbEditDue):
		field, taskID = session.FieldDueDate, strings.TrimPrefix(cb.Data, cbEditDue)
		prompt = "When is it due? Try \"tomorrow\", \"Friday\", or 2024-06-14. \"none\" clears it."
	default:
		h.l.Warnf(ctx, "telegram handler: unknown callback %q", cb.Data)
		return h.bot.AnswerCallbackQuery(cb.ID, "")
	}

	if _, err := s.Task(taskID); err != nil {
		_ = h.bot.AnswerCallbackQuery(cb.ID, "")
		return h.reportSessionError(chatID, err)
	}
	if err := s.SetPending(session.Pending{TaskID: taskID, Field: field}); err != nil {
		_ = h.bot.AnswerCallbackQuery(cb.ID, "")
		return h.reportSessionError(chatID, err)
	}
	_ = h.bot.AnswerCallbackQuery(cb.ID, "")
	return h.bot.SendMessage(chatID, prompt)
}

// confirmAndCommit finalizes the session and pushes its tasks to the board.
func (h *handler) confirmAndCommit(ctx context.Context, cb *pkgTelegram.CallbackQuery, s *session.Session) error {
	chatID := cb.Message.Chat.ID

	confirmed, err := s.Confirm()
	if err != nil {
		if errors.Is(err, session.ErrInvalidState) {
			return h.bot.AnswerCallbackQuery(cb.ID, "Already being handled.")
		}
		_ = h.bot.AnswerCallbackQuery(cb.ID, "")
		return err
	}
	h.sessions.Remove(chatID)
	_ = h.bot.AnswerCallbackQuery(cb.ID, "Committing...")

	if len(confirmed) == 0 {
		return h.bot.EditMessageText(chatID, s.ReviewMessageID, "Nothing left to commit.", "", nil)
	}

	if err := h.bot.EditMessageText(chatID, s.ReviewMessageID, fmt.Sprintf("⏳ Putting %d task(s) on the board...", len(confirmed)), "", nil); err != nil {
		h.l.Warnf(ctx, "telegram handler: progress edit failed: %v", err)
	}

	out, err := h.uc.Commit(ctx, s.Scope, task.CommitInput{Tasks: confirmed})
	if err != nil {
		h.l.Errorf(ctx, "telegram handler: commit failed: %v", err)
		return h.bot.SendMessage(chatID, "The board rejected the commit. Your tasks were not saved; please try again.")
	}

	return h.bot.SendMessageWithMode(chatID, renderOutcomeReport(out), "Markdown")
}
