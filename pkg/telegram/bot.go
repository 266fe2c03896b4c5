package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Bot is the Telegram Bot API client.
type Bot struct {
	token      string
	apiURL     string
	fileURL    string
	httpClient *http.Client
}

// NewBot creates a new Telegram Bot client with the given token.
func NewBot(token string) *Bot {
	return &Bot{
		token:      token,
		apiURL:     fmt.Sprintf("https://api.telegram.org/bot%s", token),
		fileURL:    fmt.Sprintf("https://api.telegram.org/file/bot%s", token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetAPIURL overrides the default Telegram API URLs for testing purposes.
func (b *Bot) SetAPIURL(url string) {
	b.apiURL = url
	b.fileURL = url + "/file"
}

// SetWebhook registers the webhook URL with Telegram. The secret token is
// echoed back by Telegram in X-Telegram-Bot-Api-Secret-Token on every
// update, letting the server reject spoofed requests.
func (b *Bot) SetWebhook(webhookURL, secretToken string) error {
	_, err := b.call("setWebhook", SetWebhookRequest{URL: webhookURL, SecretToken: secretToken})
	return err
}

// SendMessage sends a plain text message to a Telegram chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.call("sendMessage", SendMessageRequest{ChatID: chatID, Text: text})
	return err
}

// SendMessageWithMode sends a message with optional parse mode (e.g. "Markdown").
func (b *Bot) SendMessageWithMode(chatID int64, text string, parseMode string) error {
	_, err := b.call("sendMessage", SendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode})
	return err
}

// SendMessageWithKeyboard sends a message with an inline keyboard attached
// and returns the id of the sent message so it can be edited in place.
func (b *Bot) SendMessageWithKeyboard(chatID int64, text, parseMode string, keyboard *InlineKeyboardMarkup) (int64, error) {
	resp, err := b.call("sendMessage", SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		return 0, err
	}
	var msg Message
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &msg); err != nil {
			return 0, fmt.Errorf("failed to decode sent message: %w", err)
		}
	}
	return msg.MessageID, nil
}

// EditMessageText replaces the text (and keyboard) of a previously sent message.
func (b *Bot) EditMessageText(chatID, messageID int64, text, parseMode string, keyboard *InlineKeyboardMarkup) error {
	_, err := b.call("editMessageText", EditMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: keyboard,
	})
	return err
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a spinner.
func (b *Bot) AnswerCallbackQuery(callbackID, text string) error {
	_, err := b.call("answerCallbackQuery", AnswerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	return err
}

// GetFile resolves a file_id into a downloadable file path.
func (b *Bot) GetFile(ctx context.Context, fileID string) (*File, error) {
	payload, _ := json.Marshal(map[string]string{"file_id": fileID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/getFile", b.apiURL), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build getFile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call getFile: %w", err)
	}
	defer resp.Body.Close()

	var fileResp fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fileResp); err != nil {
		return nil, fmt.Errorf("failed to decode getFile response: %w", err)
	}
	if !fileResp.OK || fileResp.Result == nil {
		return nil, fmt.Errorf("telegram getFile failed: %s", fileResp.Description)
	}
	return fileResp.Result, nil
}

// DownloadFile fetches the raw bytes of a file previously resolved by GetFile.
func (b *Bot) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", b.fileURL, filePath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("telegram file download error %d: %s", resp.StatusCode, string(raw))
	}

	return io.ReadAll(resp.Body)
}

// call POSTs a JSON payload to a Bot API method and checks the ok flag.
func (b *Bot) call(method string, payload any) (*APIResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	resp, err := b.httpClient.Post(
		fmt.Sprintf("%s/%s", b.apiURL, method), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("telegram %s API error %d: %s", method, resp.StatusCode, string(raw))
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram %s failed: %s", method, apiResp.Description)
	}
	return &apiResp, nil
}
