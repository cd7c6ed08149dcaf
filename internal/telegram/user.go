package telegram

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"ton_shooter/internal/domain"
)

var ErrNoUser = errors.New("init data has no user")

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u *WebAppUser) Profile() domain.TelegramProfile {
	return domain.TelegramProfile{TgID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

// ParseUser extracts the user object from verified initData values.
func ParseUser(values url.Values) (*WebAppUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, ErrNoUser
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, ErrNoUser
	}
	return &user, nil
}

const refPrefix = "ref_"

// RefPayload is the start parameter that invites to the app on behalf of tgID.
func RefPayload(tgID int64) string {
	return refPrefix + strconv.FormatInt(tgID, 10)
}

// ParseRef returns the inviter's Telegram id from a "ref_<tgId>" start_param.
func ParseRef(startParam string) (int64, bool) {
	s, ok := strings.CutPrefix(startParam, refPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ReferralLink is the Mini App deep link carrying the ref payload.
func ReferralLink(botUsername string, tgID int64) string {
	return "https://t.me/" + strings.TrimPrefix(botUsername, "@") + "?startapp=" + RefPayload(tgID)
}
