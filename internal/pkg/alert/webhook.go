package alert

import (
	"Purng/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookAlerter 把告警以 JSON 推送到运维 webhook，未配置地址时只记录日志
type WebhookAlerter struct {
	url    string
	client *resty.Client
}

type webhookPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

func NewWebhookAlerter(cfg config.AlertConfig) *WebhookAlerter {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &WebhookAlerter{url: cfg.WebhookURL, client: client}
}

func (s *WebhookAlerter) Alert(ctx context.Context, title string, content string) error {
	log.WarnContext(ctx, "alert", "title", title, "content", content)
	if s.url == "" {
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&webhookPayload{
			Title:   title,
			Content: content,
			Time:    time.Now().UTC().Format(time.RFC3339),
		}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("post alert webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned %s", resp.Status())
	}
	return nil
}
