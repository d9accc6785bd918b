// Package notify delivers operator alerts through Telegram.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// MaxMessageBytes is the sink's hard cap per message.
const MaxMessageBytes = 4096

// Sink sends one text message.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Telegram fans one message out to every configured chat id. An unconfigured
// sink (no token or no chats) is a silent no-op so the engine runs
// alert-less in development.
type Telegram struct {
	apiURL     string
	chatIDs    []string
	httpClient *http.Client
	logger     *zap.Logger
}

// TelegramConfig holds Telegram sink configuration.
type TelegramConfig struct {
	// BaseAPIURL overrides the Telegram API host, for tests.
	BaseAPIURL string
	Token      string
	ChatIDs    []string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewTelegram creates a Telegram sink.
func NewTelegram(cfg *TelegramConfig) (*Telegram, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	base := cfg.BaseAPIURL
	if base == "" {
		base = "https://api.telegram.org"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	t := &Telegram{
		chatIDs:    cfg.ChatIDs,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}
	if cfg.Token != "" {
		t.apiURL = fmt.Sprintf("%s/bot%s", strings.TrimRight(base, "/"), cfg.Token)
	}

	return t, nil
}

// Configured reports whether messages will actually be delivered.
func (t *Telegram) Configured() bool {
	return t.apiURL != "" && len(t.chatIDs) > 0
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send delivers text to every chat id, truncated to the sink's byte cap.
// Per-chat failures are logged and do not abort the fan-out.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.Configured() {
		return nil
	}

	text = Truncate(text, MaxMessageBytes)

	var lastErr error
	for _, chatID := range t.chatIDs {
		if err := t.sendOne(ctx, chatID, text); err != nil {
			MessagesSent.WithLabelValues("error").Inc()
			t.logger.Warn("telegram-send-failed",
				zap.String("chat_id", chatID),
				zap.Error(err))
			lastErr = err
			continue
		}
		MessagesSent.WithLabelValues("ok").Inc()
	}

	return lastErr
}

func (t *Telegram) sendOne(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/sendMessage", strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// Truncate caps text at maxBytes without splitting a line mid-token: it cuts
// at the last newline that fits, falling back to a rune boundary.
func Truncate(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}

	cut := text[:maxBytes]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		return cut[:idx]
	}

	// No line break to cut at; back off to a full rune.
	for len(cut) > 0 && !validBoundary(text, len(cut)) {
		cut = cut[:len(cut)-1]
	}

	return cut
}

func validBoundary(text string, i int) bool {
	if i >= len(text) {
		return true
	}

	// UTF-8 continuation bytes start with 10xxxxxx.
	return text[i]&0xC0 != 0x80
}
