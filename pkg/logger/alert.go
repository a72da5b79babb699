package logger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/pkg/common"
	"finance-dashboard/pkg/httpclient"

	"go.uber.org/zap/zapcore"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// AlertCore tees marked entries to the ops Telegram chat.
type AlertCore struct {
	zapcore.Core
	cfg      *config.TelegramConfig
	client   httpclient.HTTPClient
	minLevel zapcore.Level
}

func NewAlertCore(core zapcore.Core, cfg *config.TelegramConfig, minLevel zapcore.Level) *AlertCore {
	return &AlertCore{
		Core:     core,
		cfg:      cfg,
		client:   httpclient.New(telegramAPIBaseURL, cfg.TimeoutDuration, ""),
		minLevel: minLevel,
	}
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		Core:     a.Core.With(fields),
		cfg:      a.cfg,
		client:   a.client,
		minLevel: a.minLevel,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checked.AddCore(entry, a)
	}
	return checked
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && shouldSendAlert(fields) {
		go a.send(entry, fields)
	}
	return a.Core.Write(entry, fields)
}

func shouldSendAlert(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

func formatAlert(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🚨 %s alert\n\n%s\n\n", entry.Level.CapitalString(), entry.Message))
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("• %s: %v\n", k, enc.Fields[k]))
	}
	sb.WriteString(fmt.Sprintf("\n%s", entry.Time.Format("2006-01-02 15:04:05")))
	return sb.String()
}

func (a *AlertCore) send(entry zapcore.Entry, fields []zapcore.Field) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.TimeoutDuration)
	defer cancel()

	payload := map[string]interface{}{
		"chat_id": a.cfg.ChatID,
		"text":    formatAlert(entry, fields),
	}
	_, _ = a.client.Post(ctx, fmt.Sprintf("/bot%s/sendMessage", a.cfg.BotToken), payload, nil, nil)
}
