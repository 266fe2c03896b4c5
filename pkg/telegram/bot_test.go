package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"speaktodo/pkg/telegram"
)

func newTestBot(handler http.HandlerFunc) (*telegram.Bot, *httptest.Server) {
	ts := httptest.NewServer(handler)
	bot := telegram.NewBot("test-token")
	bot.SetAPIURL(ts.URL)
	return bot, ts
}

func TestSendMessageWithKeyboard(t *testing.T) {
	var got telegram.SendMessageRequest
	bot, ts := newTestBot(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":{"message_id":77,"chat":{"id":42}}}`))
	})
	defer ts.Close()

	kb := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Confirm", CallbackData: "confirm_all"}},
		},
	}
	msgID, err := bot.SendMessageWithKeyboard(42, "review", "Markdown", kb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgID != 77 {
		t.Errorf("message id = %d, want 77", msgID)
	}
	if got.ChatID != 42 || got.Text != "review" || got.ParseMode != "Markdown" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.ReplyMarkup == nil || got.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "confirm_all" {
		t.Errorf("keyboard not serialized: %+v", got.ReplyMarkup)
	}
}

func TestSendMessageAPIFailure(t *testing.T) {
	bot, ts := newTestBot(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	})
	defer ts.Close()

	if err := bot.SendMessage(1, "hi"); err == nil {
		t.Fatal("expected error when ok=false")
	}
}

func TestEditMessageText(t *testing.T) {
	var got telegram.EditMessageTextRequest
	bot, ts := newTestBot(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/editMessageText" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	})
	defer ts.Close()

	if err := bot.EditMessageText(42, 7, "updated", "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MessageID != 7 || got.Text != "updated" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestAnswerCallbackQuery(t *testing.T) {
	bot, ts := newTestBot(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/answerCallbackQuery" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	})
	defer ts.Close()

	if err := bot.AnswerCallbackQuery("cb-1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetFileAndDownload(t *testing.T) {
	bot, ts := newTestBot(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getFile":
			w.Write([]byte(`{"ok":true,"result":{"file_id":"f1","file_path":"voice/file_1.oga"}}`))
		case "/file/voice/file_1.oga":
			w.Write([]byte("ogg-bytes"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	defer ts.Close()

	file, err := bot.GetFile(context.Background(), "f1")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if file.FilePath != "voice/file_1.oga" {
		t.Errorf("file path = %q", file.FilePath)
	}

	data, err := bot.DownloadFile(context.Background(), file.FilePath)
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	if string(data) != "ogg-bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestSetWebhook(t *testing.T) {
	var got telegram.SetWebhookRequest
	bot, ts := newTestBot(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	})
	defer ts.Close()

	if err := bot.SetWebhook("https://example.com/webhook/telegram", "s3cret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != "https://example.com/webhook/telegram" || got.SecretToken != "s3cret" {
		t.Errorf("unexpected payload: %+v", got)
	}
}
