// internal/auth/auth.go

// Package auth issues guest identity tokens. A token pins a player id to a
// browser session so a page reload keeps the same identity; there are no
// accounts and no seat recovery behind it.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a guest token stays valid.
const DefaultTTL = 24 * time.Hour

// Service signs and verifies guest tokens with a shared HMAC secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	log    *logrus.Logger
}

// New builds a Service. A zero ttl falls back to DefaultTTL.
func New(secret string, ttl time.Duration, log *logrus.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{secret: []byte(secret), ttl: ttl, log: log}
}

// IssueGuest mints a token for a fresh player id.
func (s *Service) IssueGuest() (token, playerID string, err error) {
	playerID = uuid.NewString()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: sign guest token: %w", err)
	}
	return token, playerID, nil
}

// Verify checks a token and returns the player id it carries.
func (s *Service) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("auth: token missing subject")
	}
	return claims.Subject, nil
}

// GuestHandler serves POST /auth/guest, returning {token, playerId}.
func (s *Service) GuestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token, playerID, err := s.IssueGuest()
		if err != nil {
			s.log.WithError(err).Error("guest token issue failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"token":    token,
			"playerId": playerID,
		})
	}
}
