package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"StockAssistant/internal/retry"
)

// DefaultTelegramBaseURL is the public Bot API root.
const DefaultTelegramBaseURL = "https://api.telegram.org"

// Parse modes accepted by Send.
const (
	ParseModeNone     = ""
	ParseModeMarkdown = "Markdown"
)

// APIError is a non-200 Bot API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error: status %d, body: %s", e.StatusCode, e.Body)
}

// TelegramNotifier talks to the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	BaseURL  string
	Client   *http.Client
	// Retry bounds SendWithRetry.
	Retry retry.Policy
	// PollTimeout is the getUpdates long-poll window in seconds.
	PollTimeout int

	logger *zap.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, proxyURL string, logger *zap.Logger) *TelegramNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			logger.Warn("ignoring invalid proxy url", zap.Error(err))
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		BaseURL:  DefaultTelegramBaseURL,
		Client: &http.Client{
			Timeout:   40 * time.Second,
			Transport: transport,
		},
		Retry:       retry.Policy{Retries: 3, InitialInterval: time.Second, MaxInterval: 8 * time.Second},
		PollTimeout: 30,
		logger:      logger,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.BaseURL, "/"), t.BotToken, method)
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// Send delivers text to chatID. If Telegram rejects the markup with a 400,
// the text is sent once more without a parse mode.
func (t *TelegramNotifier) Send(ctx context.Context, chatID int64, text, parseMode string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != ParseModeNone {
		payload["parse_mode"] = parseMode
	}

	_, err := t.call(ctx, "sendMessage", payload)
	var apiErr *APIError
	if parseMode != ParseModeNone && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		t.logger.Warn("markup rejected, resending as plain text",
			zap.Int64("chat_id", chatID), zap.String("body", apiErr.Body))
		delete(payload, "parse_mode")
		_, err = t.call(ctx, "sendMessage", payload)
	}
	return err
}

// SendChatAction shows a transient status such as "typing" in the chat.
func (t *TelegramNotifier) SendChatAction(ctx context.Context, chatID int64, action string) error {
	_, err := t.call(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  action,
	})
	return err
}

// SendWithRetry sends a message with exponential backoff retry. Client errors
// other than 429 are not retried.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text, parseMode string) error {
	_, err := retry.Do(ctx, t.Retry, func(ctx context.Context) (struct{}, error) {
		err := t.Send(ctx, chatID, text, parseMode)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
			apiErr.StatusCode != http.StatusTooManyRequests {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	}, func(attempt int, err error) {
		t.logger.Warn("telegram send failed",
			zap.Int64("chat_id", chatID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", t.Retry.Attempts()),
			zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
