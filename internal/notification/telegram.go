package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// telegramMessageLimit is the hard cap per sendMessage call.
const telegramMessageLimit = 4096

// TelegramConfig holds Telegram credentials.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Enabled  bool
}

// TelegramNotifier posts Markdown messages via the Telegram bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	enabled  bool
	baseURL  string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: config.BotToken,
		chatID:   config.ChatID,
		enabled:  config.Enabled && config.BotToken != "" && config.ChatID != "",
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

// SendText posts a message, chunking at the Telegram length limit. Only
// the first chunk carries the reply threading; the id of the last chunk
// is returned.
func (t *TelegramNotifier) SendText(ctx context.Context, text string, replyTo *int64) (int64, error) {
	if !t.enabled {
		return 0, nil
	}

	var messageID int64
	for i, chunk := range chunkMessage(text, telegramMessageLimit) {
		payload := map[string]interface{}{
			"chat_id":    t.chatID,
			"text":       chunk,
			"parse_mode": "Markdown",
		}
		if i == 0 && replyTo != nil && *replyTo != 0 {
			payload["reply_to_message_id"] = *replyTo
		}

		id, err := t.call(ctx, "sendMessage", payload)
		if err != nil {
			return 0, err
		}
		messageID = id
	}
	return messageID, nil
}

// SendPhoto posts an image with a caption via multipart upload.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, photo []byte, caption string, replyTo *int64) (int64, error) {
	if !t.enabled {
		return 0, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", t.chatID); err != nil {
		return 0, err
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return 0, err
	}
	if err := writer.WriteField("parse_mode", "Markdown"); err != nil {
		return 0, err
	}
	if replyTo != nil && *replyTo != 0 {
		if err := writer.WriteField("reply_to_message_id", fmt.Sprintf("%d", *replyTo)); err != nil {
			return 0, err
		}
	}
	part, err := writer.CreateFormFile("photo", "chart.png")
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(photo); err != nil {
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send telegram photo: %w", err)
	}
	defer resp.Body.Close()
	return decodeMessageID(resp)
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload map[string]interface{}) (int64, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()
	return decodeMessageID(resp)
}

func decodeMessageID(resp *http.Response) (int64, error) {
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, data)
	}

	var parsed struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !parsed.OK {
		return 0, fmt.Errorf("telegram API rejected the message")
	}
	return parsed.Result.MessageID, nil
}

// chunkMessage splits text into limit-sized pieces, preferring to break
// at a newline.
func chunkMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if text[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
		if len(text) > 0 && text[0] == '\n' {
			text = text[1:]
		}
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
