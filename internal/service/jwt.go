package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a session token carries.
type Claims struct {
	AccountID int64
	TgID      int64
}

// Tokens issues and checks HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if secret == "" {
		panic("JWT secret is empty")
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: systemClock}
}

func (t *Tokens) Issue(accountID, tgID int64) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id": accountID,
		"tg":      tgID,
		"exp":     now.Add(t.ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, ErrInvalidToken
	}
	tg, _ := claims["tg"].(float64)

	return &Claims{AccountID: int64(userID), TgID: int64(tg)}, nil
}
