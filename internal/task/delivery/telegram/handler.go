package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"speaktodo/internal/model"
	"speaktodo/internal/session"
	"speaktodo/internal/task"
	"speaktodo/pkg/openai"
	pkgResponse "speaktodo/pkg/response"
	pkgTelegram "speaktodo/pkg/telegram"
)

// HandleWebhook is the Gin handler for incoming Telegram webhook updates.
// It responds with HTTP 200 immediately and processes the update in a
// background goroutine: transcription plus extraction can take longer than
// Telegram's webhook timeout.
func (h *handler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	var update pkgTelegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.l.Errorf(ctx, "telegram handler: failed to parse update: %v", err)
		pkgResponse.Error(c, err, nil)
		return
	}

	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		go func() {
			bgCtx := context.Background()
			if err := h.processCallback(bgCtx, cb); err != nil {
				h.l.Errorf(bgCtx, "telegram handler: callback failed: %v", err)
			}
		}()
	case update.Message != nil:
		msg := update.Message
		go func() {
			bgCtx := context.Background()
			if err := h.processMessage(bgCtx, msg); err != nil {
				h.l.Errorf(bgCtx, "telegram handler: processMessage failed: %v", err)
				_ = h.bot.SendMessage(msg.Chat.ID, "Something went wrong handling your message. Please try again.")
			}
		}()
	default:
		pkgResponse.OK(c, map[string]string{"status": "ignored"})
		return
	}

	pkgResponse.OK(c, map[string]string{"status": "accepted"})
}

// processMessage handles one incoming Telegram message.
func (h *handler) processMessage(ctx context.Context, msg *pkgTelegram.Message) error {
	if msg.Voice != nil || msg.Audio != nil {
		return h.processVoice(ctx, msg)
	}
	if msg.Text == "" {
		return nil
	}

	switch msg.Text {
	case "/start":
		return h.bot.SendMessageWithMode(msg.Chat.ID,
			"👋 Welcome to *SpeakToDo*!\n\nSend me a voice note describing what needs to get done and I will:\n• 🎙 Transcribe it\n• 📋 Extract the tasks\n• ✅ Put them on your board after you review them\n\n_Example: \"Call John tomorrow about the launch, and email Sarah the budget by Friday.\"_",
			"Markdown",
		)
	case "/help":
		return h.bot.SendMessageWithMode(msg.Chat.ID,
			"*How to use:*\n\n1. Record a voice note listing your tasks.\n2. Review the extracted tasks with the buttons.\n3. Hit *Confirm* to put them on the board.\n\n/cancel drops the review you are in.",
			"Markdown",
		)
	case "/cancel":
		return h.cancelActiveSession(msg.Chat.ID)
	}

	// Plain text either completes a pending edit or is a nudge to send
	// voice instead.
	s, err := h.sessions.Get(msg.Chat.ID)
	if err == nil {
		if pending, ok := s.TakePending(); ok {
			return h.applyPendingEdit(ctx, s, pending, msg.Text)
		}
	}
	return h.bot.SendMessage(msg.Chat.ID, "Send me a voice note and I'll turn it into tasks. /help for details.")
}

// processVoice runs the full pipeline: download, transcribe, extract, and
// open a review session.
func (h *handler) processVoice(ctx context.Context, msg *pkgTelegram.Message) error {
	voice := msg.Voice
	if voice == nil {
		voice = msg.Audio
	}

	if err := h.bot.SendMessage(msg.Chat.ID, "🎙 Got it, transcribing..."); err != nil {
		h.l.Warnf(ctx, "telegram handler: ack message failed: %v", err)
	}

	file, err := h.bot.GetFile(ctx, voice.FileID)
	if err != nil {
		h.l.Errorf(ctx, "telegram handler: getFile failed: %v", err)
		return h.bot.SendMessage(msg.Chat.ID, "I couldn't fetch your voice note from Telegram. Please resend it.")
	}
	audio, err := h.bot.DownloadFile(ctx, file.FilePath)
	if err != nil {
		h.l.Errorf(ctx, "telegram handler: download failed: %v", err)
		return h.bot.SendMessage(msg.Chat.ID, "I couldn't download your voice note. Please resend it.")
	}

	transcript, err := h.stt.Transcribe(ctx, fileName(file.FilePath), audio)
	if err != nil {
		if openai.IsTranscriptionError(err) {
			h.l.Warnf(ctx, "telegram handler: transcription failed: %v", err)
			return h.bot.SendMessage(msg.Chat.ID, "I couldn't understand the audio. Try again in a quieter spot?")
		}
		return fmt.Errorf("transcribe: %w", err)
	}

	scope := buildScope(msg)
	out, err := h.uc.Extract(ctx, scope, task.ExtractInput{Transcript: transcript})
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if len(out.Tasks) == 0 {
		return h.bot.SendMessage(msg.Chat.ID, "I didn't hear any tasks in that note. Try describing what needs to be done.")
	}

	s := h.sessions.Create(scope, out.Tasks, out.Degraded)
	return h.sendReview(ctx, s, out.Degraded)
}

// applyPendingEdit finishes an edit the user started with a button press.
func (h *handler) applyPendingEdit(ctx context.Context, s *session.Session, pending session.Pending, text string) error {
	chatID := s.Scope.ChatID
	text = strings.TrimSpace(text)

	if pending.AddTask {
		if _, err := s.AddTask(model.TaskRecord{Project: "General", Title: text}); err != nil {
			if errors.Is(err, session.ErrEmptyTitle) {
				_ = s.SetPending(pending)
				return h.bot.SendMessage(chatID, "The task needs a title. What should it say?")
			}
			return h.reportSessionError(chatID, err)
		}
		return h.refreshReview(ctx, s)
	}

	var err error
	switch pending.Field {
	case session.FieldTitle:
		err = s.EditTitle(pending.TaskID, text)
	case session.FieldProject:
		err = s.EditProject(pending.TaskID, text)
	case session.FieldOwner:
		return h.applyOwnerEdit(ctx, s, pending, text)
	case session.FieldDueDate:
		return h.applyDueDateEdit(ctx, s, pending, text)
	default:
		return nil
	}
	if err != nil {
		if errors.Is(err, session.ErrEmptyTitle) {
			_ = s.SetPending(pending)
			return h.bot.SendMessage(chatID, "The title can't be empty. What should it say?")
		}
		return h.reportSessionError(chatID, err)
	}
	return h.refreshReview(ctx, s)
}

func (h *handler) applyOwnerEdit(ctx context.Context, s *session.Session, pending session.Pending, text string) error {
	chatID := s.Scope.ChatID

	if text == "" || strings.EqualFold(text, "none") || strings.EqualFold(text, "unassigned") {
		if err := s.EditOwner(pending.TaskID, model.BoardMember{}); err != nil {
			return h.reportSessionError(chatID, err)
		}
		return h.refreshReview(ctx, s)
	}

	member, ok, err := h.directory.Resolve(ctx, h.cfg.BoardID, text)
	if err != nil {
		// Ambiguity keeps the edit open so the user can be more precise.
		_ = s.SetPending(pending)
		return h.bot.SendMessage(chatID, fmt.Sprintf("That matches several people: %v. Which one?", err))
	}
	if !ok {
		// The cached roster may simply be stale. Drop it so the retry
		// sees members added since the last fetch.
		h.directory.Invalidate(h.cfg.BoardID)
		_ = s.SetPending(pending)
		return h.bot.SendMessage(chatID, fmt.Sprintf("I don't know %q on this board. Try a full name, or \"none\".", text))
	}
	if err := s.EditOwner(pending.TaskID, member); err != nil {
		return h.reportSessionError(chatID, err)
	}
	return h.refreshReview(ctx, s)
}

func (h *handler) applyDueDateEdit(ctx context.Context, s *session.Session, pending session.Pending, text string) error {
	chatID := s.Scope.ChatID

	if text == "" || strings.EqualFold(text, "none") {
		if err := s.EditDueDate(pending.TaskID, nil); err != nil {
			return h.reportSessionError(chatID, err)
		}
		return h.refreshReview(ctx, s)
	}

	due, ok := h.dates.Resolve(text, timeNow())
	if !ok {
		_ = s.SetPending(pending)
		return h.bot.SendMessage(chatID, fmt.Sprintf("I couldn't read %q as a date. Try \"tomorrow\", \"Friday\", or 2024-06-14.", text))
	}
	if err := s.EditDueDate(pending.TaskID, &due); err != nil {
		return h.reportSessionError(chatID, err)
	}
	return h.refreshReview(ctx, s)
}

func (h *handler) cancelActiveSession(chatID int64) error {
	s, err := h.sessions.Get(chatID)
	if err != nil {
		return h.bot.SendMessage(chatID, "Nothing to cancel.")
	}
	_ = s.Abandon()
	h.sessions.Remove(chatID)
	return h.bot.SendMessage(chatID, "Dropped that voice note. Send a new one whenever.")
}

func (h *handler) reportSessionError(chatID int64, err error) error {
	switch {
	case errors.Is(err, session.ErrInvalidState):
		return h.bot.SendMessage(chatID, "That review is already closed. Send a new voice note to start over.")
	case errors.Is(err, session.ErrTaskNotFound):
		return h.bot.SendMessage(chatID, "That task is gone from the list.")
	default:
		return err
	}
}

func buildScope(msg *pkgTelegram.Message) model.Scope {
	sc := model.Scope{ChatID: msg.Chat.ID}
	if msg.From != nil {
		sc.UserID = msg.From.ID
		sc.Username = msg.From.Username
	}
	return sc
}

func fileName(filePath string) string {
	if idx := strings.LastIndexByte(filePath, '/'); idx >= 0 {
		return filePath[idx+1:]
	}
	return filePath
}
