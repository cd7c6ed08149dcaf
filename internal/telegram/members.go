package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MemberChecker asks the Bot API whether a user is in a chat. The bot must be
// an admin of channels it checks.
type MemberChecker struct {
	bot *tgbotapi.BotAPI
}

// NewMemberChecker builds a checker without calling getMe, so startup does not
// depend on Telegram being reachable.
func NewMemberChecker(token string) *MemberChecker {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(tgbotapi.APIEndpoint)
	return &MemberChecker{bot: bot}
}

// WithEndpoint overrides the Bot API endpoint, format "<base>/bot%s/%s".
func (m *MemberChecker) WithEndpoint(endpoint string) *MemberChecker {
	m.bot.SetAPIEndpoint(endpoint)
	return m
}

func chatConfig(chatID string, userID int64) tgbotapi.GetChatMemberConfig {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = "@" + strings.TrimPrefix(chatID, "@")
	}
	return cfg
}

// IsMember reports membership. A Bot API refusal (unknown chat, bot not in
// the channel) counts as "not a member"; only transport failures are errors.
func (m *MemberChecker) IsMember(ctx context.Context, chatID string, tgUserID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := m.bot.GetChatMember(chatConfig(chatID, tgUserID))
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return false, nil
		}
		return false, err
	}
	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	}
	return false, nil
}
