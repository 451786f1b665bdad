package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yukikurage/worktime-api/internal/config"
)

// Telegram posts Markdown messages through the Bot API.
type Telegram struct {
	cfg    config.TelegramConfig
	client *http.Client
	chats  map[string]int64
	logger *zap.Logger
}

// NewTelegram creates a Telegram notifier. Department keys are matched case-insensitively.
func NewTelegram(cfg config.TelegramConfig, logger *zap.Logger) *Telegram {
	chats := make(map[string]int64, len(cfg.DepartmentChats))
	for department, chatID := range cfg.DepartmentChats {
		chats[strings.ToLower(department)] = chatID
	}
	return &Telegram{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		chats:  chats,
		logger: logger,
	}
}

// New picks the Telegram notifier when a bot token is configured and Nop otherwise.
func New(cfg config.TelegramConfig, logger *zap.Logger) Notifier {
	if cfg.BotToken == "" {
		logger.Info("Telegram bot token not set, notifications disabled")
		return Nop{}
	}
	return NewTelegram(cfg, logger)
}

// NotifyDepartment sends text to the department's chat; departments without a chat are skipped.
func (t *Telegram) NotifyDepartment(ctx context.Context, department, text string) {
	chatID, ok := t.chats[strings.ToLower(department)]
	if !ok || chatID == 0 {
		t.logger.Debug("No chat configured for department", zap.String("department", department))
		return
	}
	t.send(ctx, chatID, text)
}

// NotifyGeneral sends text to the general chat.
func (t *Telegram) NotifyGeneral(ctx context.Context, text string) {
	if t.cfg.GeneralChatID == 0 {
		t.logger.Debug("General chat not configured")
		return
	}
	t.send(ctx, t.cfg.GeneralChatID, text)
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) {
	// Delivery runs inside the request, detached from its cancellation; only the client timeout bounds the call.
	ctx = context.WithoutCancel(ctx)

	if err := t.post(ctx, chatID, text); err != nil {
		t.logger.Warn("Failed to send telegram notification",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (t *Telegram) post(ctx context.Context, chatID int64, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.cfg.APIBaseURL, "/"), t.cfg.BotToken)
	form := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
