package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier posts watchdog alerts to a Telegram chat. Constructing it
// without credentials yields a disabled notifier whose Send is a no-op, so
// an unconfigured alert channel never fails a cycle.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
}

func NewTelegramNotifier(botToken, chatID string, logger *zap.Logger) *TelegramNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPI,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

func (n *TelegramNotifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

func (n *TelegramNotifier) Send(ctx context.Context, message string) error {
	if !n.Enabled() {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    message,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: HTTP %d", resp.StatusCode)
	}
	return nil
}
