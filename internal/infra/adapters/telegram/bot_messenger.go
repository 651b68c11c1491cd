package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/adapter"
)

var _ adapter.MessengerClient = (*BotMessenger)(nil)

// BotMessenger sends through the Telegram Bot API on behalf of one account.
type BotMessenger struct {
	accountID string
	bot       *tgbotapi.BotAPI
	log       *zerolog.Logger
}

// NewBotMessenger authenticates the token with getMe. An empty endpoint uses
// the public Bot API. A rejected token is reported as domain.ErrAccountFatal.
func NewBotMessenger(accountID, token, endpoint string, logger *zerolog.Logger) (*BotMessenger, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: account %s has no bot token", domain.ErrAccountFatal, accountID)
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && isAuthFailure(apiErr.Code) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountFatal, apiErr.Message)
		}
		return nil, fmt.Errorf("connect bot %s: %w", accountID, err)
	}
	lg := logger.With().Str("component", "telegram").Str("account_id", accountID).Logger()
	lg.Info().Str("bot", bot.Self.UserName).Msg("bot authorized")
	return &BotMessenger{accountID: accountID, bot: bot, log: &lg}, nil
}

func (m *BotMessenger) Send(ctx context.Context, target, text string) (adapter.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return adapter.Outcome{}, err
	}
	msg, ok := buildMessage(target, text)
	if !ok {
		return adapter.PermanentFailure("invite links cannot be addressed by a bot"), nil
	}
	_, err := m.bot.Send(msg)
	if err != nil {
		out, fatal := classify(err)
		if fatal != nil {
			return adapter.Outcome{}, fatal
		}
		m.log.Debug().Str("target", target).Str("outcome", string(out.Kind)).Str("reason", out.Reason).Msg("send not delivered")
		return out, nil
	}
	return adapter.Delivered(), nil
}

// buildMessage maps a normalized target onto a chat id or channel username.
func buildMessage(target, text string) (tgbotapi.MessageConfig, bool) {
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text), true
	}
	if strings.HasPrefix(target, "@") {
		return tgbotapi.NewMessageToChannel(target, text), true
	}
	return tgbotapi.MessageConfig{}, false
}

// classify turns a Bot API error into a send outcome. The second return is
// non-nil only when the account itself can no longer send.
func classify(err error) (adapter.Outcome, error) {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return adapter.PermanentFailure("transport: " + err.Error()), nil
	}
	desc := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		return adapter.FloodWait(wait), nil

	case isAuthFailure(apiErr.Code):
		return adapter.Outcome{}, fmt.Errorf("%w: %s", domain.ErrAccountFatal, apiErr.Message)

	case apiErr.Code == http.StatusForbidden:
		reason := model.ReasonChatForbidden
		switch {
		case strings.Contains(desc, "blocked by the user"):
			reason = model.ReasonUserBlocked
		case strings.Contains(desc, "rights") || strings.Contains(desc, "write_forbidden"):
			reason = model.ReasonChatWriteForbidden
		}
		return blacklisted(reason), nil

	case apiErr.Code == http.StatusBadRequest:
		switch {
		case strings.Contains(desc, "chat not found"), strings.Contains(desc, "peer_id_invalid"):
			return blacklisted(model.ReasonChatNotFound), nil
		case strings.Contains(desc, "not enough rights"), strings.Contains(desc, "chat_write_forbidden"):
			return blacklisted(model.ReasonChatWriteForbidden), nil
		case strings.Contains(desc, "chat_restricted"), strings.Contains(desc, "user_banned_in_channel"):
			return blacklisted(model.ReasonChatForbidden), nil
		}
		return adapter.PermanentFailure(apiErr.Message), nil
	}
	return adapter.PermanentFailure(fmt.Sprintf("telegram %d: %s", apiErr.Code, apiErr.Message)), nil
}

func blacklisted(reason string) adapter.Outcome {
	out := adapter.PermanentFailure(reason)
	out.Blacklist = true
	return out
}

// 401 is a revoked token, 404 a malformed one.
func isAuthFailure(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusNotFound
}
