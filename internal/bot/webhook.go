package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SecretTokenHeader carries the secret_token configured with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes bounds the request body.
const maxUpdateBytes = 1 << 20

// UpdateHandler processes a decoded update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd *Update) error
}

// WebhookHandler receives Telegram updates over HTTP.
type WebhookHandler struct {
	handler UpdateHandler
	secret  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewWebhookHandler creates a webhook endpoint. A non-empty secret must match
// SecretTokenHeader. timeout bounds the handling of one update.
func NewWebhookHandler(handler UpdateHandler, secret string, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{handler: handler, secret: secret, timeout: timeout, logger: logger}
}

// ServeHTTP decodes the update and handles it. Any parsable update is
// answered with 200, even when handling fails, so Telegram does not
// redeliver it.
func (wh *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if wh.secret != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(wh.secret)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var upd Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
		wh.logger.Warn("bad webhook payload", zap.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	if wh.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wh.timeout)
		defer cancel()
	}

	if err := wh.handler.HandleUpdate(ctx, &upd); err != nil {
		wh.logger.Error("handle update failed", zap.Int64("update_id", upd.UpdateID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}
