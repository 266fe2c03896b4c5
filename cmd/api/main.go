package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"speaktodo/config"
	_ "speaktodo/docs" // Swagger docs
	"speaktodo/internal/board"
	"speaktodo/internal/httpserver"
	"speaktodo/internal/middleware"
	"speaktodo/internal/session"
	tgDelivery "speaktodo/internal/task/delivery/telegram"
	"speaktodo/internal/task/usecase"
	"speaktodo/pkg/datemath"
	"speaktodo/pkg/gcalendar"
	"speaktodo/pkg/llmprovider"
	"speaktodo/pkg/log"
	"speaktodo/pkg/monday"
	"speaktodo/pkg/openai"
	"speaktodo/pkg/telegram"
)

// @title       SpeakToDo API
// @description Voice-driven task capture: Telegram voice notes transcribed, structured by an LLM, reviewed inline, and committed to a Monday board.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting SpeakToDo...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	if cfg.Telegram.BotToken == "" || cfg.OpenAI.APIKey == "" || cfg.Monday.APIToken == "" {
		logger.Error(ctx, "TELEGRAM_BOT_TOKEN, OPENAI_API_KEY and MONDAY_API_TOKEN are required")
		return
	}

	// 3. Clients

	// Telegram Bot client
	telegramBot := telegram.NewBot(cfg.Telegram.BotToken)

	// OpenAI client for Whisper transcription
	sttClient, err := openai.New(openai.Config{
		APIKey:       cfg.OpenAI.APIKey,
		WhisperModel: cfg.OpenAI.WhisperModel,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize OpenAI client: ", err)
		return
	}

	// LLM provider chain for task extraction
	providers, err := llmprovider.InitializeProviders(&cfg.LLM)
	if err != nil {
		logger.Error(ctx, "Failed to initialize LLM providers: ", err)
		return
	}
	llmManager := llmprovider.NewManager(providers, &llmprovider.Config{
		FallbackEnabled: cfg.LLM.FallbackEnabled,
		RetryAttempts:   cfg.LLM.RetryAttempts,
		RetryDelay:      parseDuration(cfg.LLM.RetryDelay, time.Second),
		MaxTotalTimeout: parseDuration(cfg.LLM.MaxTotalTimeout, 60*time.Second),
	}, logger)

	// Monday board client
	mondayClient, err := monday.NewClient(monday.Config{
		APIToken:          cfg.Monday.APIToken,
		APIURL:            cfg.Monday.APIURL,
		ProxyURL:          cfg.Monday.ProxyURL,
		RequestsPerSecond: cfg.Monday.RequestsPerSecond,
	}, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize Monday client: ", err)
		return
	}

	// Board member directory with TTL cache
	directory := board.NewDirectory(
		mondayClient,
		parseDuration(cfg.Monday.MembersCacheTTL, 10*time.Minute),
		board.MatcherConfig{ResolveAmbiguous: cfg.Monday.OwnerMatchFirst},
		logger,
	)

	// Review session registry
	sessions := session.NewRegistry(parseDuration(cfg.Session.TTL, 15*time.Minute), logger)
	defer sessions.Close()

	// DateMath parser
	dateMathParser, dtErr := datemath.NewParser(cfg.Timezone)
	if dtErr != nil {
		logger.Warnf(ctx, "Invalid timezone %q, falling back to UTC: %v", cfg.Timezone, dtErr)
		dateMathParser, _ = datemath.NewParser("UTC")
	}

	// Google Calendar client (optional)
	var calendarClient *gcalendar.Client
	if cfg.GoogleCalendar.CredentialsPath != "" {
		calendarClient, err = gcalendar.NewClientFromCredentialsFile(ctx, cfg.GoogleCalendar.CredentialsPath)
		if err != nil {
			logger.Warnf(ctx, "Google Calendar not available (optional): %v", err)
			calendarClient = nil
		} else {
			logger.Info(ctx, "Google Calendar initialized")
		}
	}

	// 4. UseCase
	taskUC := usecase.New(logger, llmManager, mondayClient, directory, dateMathParser, calendarClient, usecase.Config{
		BoardID:  cfg.Monday.BoardID,
		Timezone: cfg.Timezone,
		Columns: usecase.ColumnMap{
			Owner:     cfg.Monday.Columns.Owner,
			Due:       cfg.Monday.Columns.Due,
			Status:    cfg.Monday.Columns.Status,
			OwnerText: cfg.Monday.Columns.OwnerText,
		},
		StatusLabel: cfg.Monday.StatusLabel,
		CalendarID:  cfg.GoogleCalendar.CalendarID,
	})

	// 5. Delivery
	telegramHandler := tgDelivery.New(logger, taskUC, telegramBot, sttClient, sessions, directory, dateMathParser, tgDelivery.Config{
		BoardID: cfg.Monday.BoardID,
	})

	// Register webhook: auto-detect ngrok or fallback to manual config
	webhookURL := cfg.Telegram.WebhookURL
	if webhookURL == "" {
		ngrokURL, ngrokErr := detectNgrokURL(ctx, "http://ngrok:4040")
		if ngrokErr != nil {
			logger.Warnf(ctx, "Could not detect ngrok URL: %v", ngrokErr)
		} else {
			webhookURL = ngrokURL + "/webhook/telegram"
			logger.Infof(ctx, "Auto-detected ngrok URL: %s", webhookURL)
		}
	}
	if webhookURL != "" {
		if whErr := telegramBot.SetWebhook(webhookURL, cfg.Telegram.SecretToken); whErr != nil {
			logger.Warnf(ctx, "Failed to set Telegram webhook: %v", whErr)
		} else {
			logger.Infof(ctx, "Telegram webhook registered at %s", webhookURL)
		}
	}

	// 6. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:      logger,
		Port:        cfg.HTTPServer.Port,
		Mode:        cfg.HTTPServer.Mode,
		Environment: cfg.Environment.Name,
		Middleware: middleware.New(logger, middleware.Config{
			SecretToken:     cfg.Telegram.SecretToken,
			RateLimitPerMin: cfg.Telegram.RateLimitPerMin,
		}),
		TelegramHandler: telegramHandler,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	// 7. Run
	if err := httpServer.Run(ctx); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}

// parseDuration parses a duration string, returning fallback on empty or
// malformed input.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
