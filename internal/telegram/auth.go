package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoHash      = errors.New("init data has no hash")
	ErrBadHash     = errors.New("init data hash mismatch")
	ErrStale       = errors.New("init data is too old")
	ErrBadAuthDate = errors.New("init data auth_date is invalid")
)

// clock skew tolerated for auth_date in the future
const maxSkew = 5 * time.Minute

// secretKey is HMAC_SHA256("WebAppData", botToken).
func secretKey(botToken string) []byte {
	h := hmac.New(sha256.New, []byte("WebAppData"))
	h.Write([]byte(botToken))
	return h.Sum(nil)
}

// dataCheckString joins every field except hash as sorted key=value lines.
func dataCheckString(values url.Values) string {
	var dataCheck []string
	for k, v := range values {
		if k == "hash" {
			continue
		}
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)
	return strings.Join(dataCheck, "\n")
}

// Sign computes the hash Telegram would put into initData with these fields.
func Sign(values url.Values, botToken string) string {
	h := hmac.New(sha256.New, secretKey(botToken))
	h.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateInitData verifies the Mini App initData signature and, when maxAge
// is positive, that auth_date is recent.
func ValidateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrNoHash
	}
	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrBadHash
	}
	h := hmac.New(sha256.New, secretKey(botToken))
	h.Write([]byte(dataCheckString(values)))
	if !hmac.Equal(h.Sum(nil), provided) {
		return nil, ErrBadHash
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, ErrBadAuthDate
		}
		at := time.Unix(authDate, 0)
		if now.Sub(at) > maxAge || at.Sub(now) > maxSkew {
			return nil, ErrStale
		}
	}

	return values, nil
}
