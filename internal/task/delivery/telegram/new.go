package telegram

import (
	"context"

	"github.com/gin-gonic/gin"

	"speaktodo/internal/board"
	"speaktodo/internal/session"
	"speaktodo/internal/task"
	"speaktodo/pkg/datemath"
	pkgLog "speaktodo/pkg/log"
	pkgTelegram "speaktodo/pkg/telegram"
)

// Transcriber turns a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Handler is the interface for the Telegram delivery handler.
type Handler interface {
	HandleWebhook(c *gin.Context)
}

// Config carries delivery settings.
type Config struct {
	BoardID string
}

// New creates a new Telegram delivery handler.
func New(
	l pkgLog.Logger,
	uc task.UseCase,
	bot *pkgTelegram.Bot,
	stt Transcriber,
	sessions *session.Registry,
	directory board.Directory,
	dates *datemath.Parser,
	cfg Config,
) Handler {
	return &handler{
		l:         l,
		uc:        uc,
		bot:       bot,
		stt:       stt,
		sessions:  sessions,
		directory: directory,
		dates:     dates,
		cfg:       cfg,
	}
}

type handler struct {
	l         pkgLog.Logger
	uc        task.UseCase
	bot       *pkgTelegram.Bot
	stt       Transcriber
	sessions  *session.Registry
	directory board.Directory
	dates     *datemath.Parser
	cfg       Config
}
