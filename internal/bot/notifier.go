package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solana-buy-ranking/internal/observability"
)

// DefaultTelegramAPI is the public Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// Notifier sends text to a chat.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// TelegramNotifier calls the Bot API sendMessage method.
type TelegramNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

// NotifierOption configures a TelegramNotifier.
type NotifierOption func(*TelegramNotifier)

// WithAPIURL overrides DefaultTelegramAPI.
func WithAPIURL(url string) NotifierOption {
	return func(n *TelegramNotifier) {
		if url != "" {
			n.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithNotifierHTTPClient sets a custom HTTP client.
func WithNotifierHTTPClient(client *http.Client) NotifierOption {
	return func(n *TelegramNotifier) {
		n.client = client
	}
}

// NewTelegramNotifier creates a notifier for the bot identified by token.
func NewTelegramNotifier(token string, opts ...NotifierOption) *TelegramNotifier {
	n := &TelegramNotifier{
		baseURL: DefaultTelegramAPI,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// SendText posts text to chatID.
func (n *TelegramNotifier) SendText(ctx context.Context, chatID int64, text string) (err error) {
	defer func() { observability.RecordNotification(err) }()

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text, DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error.
		return fmt.Errorf("sendMessage to %d: request failed", chatID)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read sendMessage response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fmt.Errorf("sendMessage to %d: HTTP %d: unmarshal response: %w", chatID, resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("sendMessage to %d: %d %s", chatID, out.ErrorCode, out.Description)
	}
	return nil
}

// Compile-time interface check.
var _ Notifier = (*TelegramNotifier)(nil)
