// Package auth implements the single-password gate in front of the dashboard.
// A successful login stores a signed session token in the durable cache so a
// reload does not re-prompt.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/config"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/ports"
)

type session struct {
	Token string `json:"token"`
}

// Gate checks the configured password and manages the cached session.
type Gate struct {
	password string
	secret   []byte
	ttl      time.Duration
	cache    ports.Cache
	logger   *logger.Logger
}

// NewGate creates a gate from the auth configuration. The configured password
// may be plain text or a bcrypt hash.
func NewGate(cfg config.AuthConfig, cache ports.Cache, log *logger.Logger) *Gate {
	return &Gate{
		password: cfg.Password,
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.SessionTTL,
		cache:    cache,
		logger:   log.WithComponent("auth"),
	}
}

// Login validates the password and stores a fresh session on success.
func (g *Gate) Login(password string) error {
	if !g.match(password) {
		g.logger.Warnw("Login rejected")
		return entities.ErrInvalidPassword
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "lifeos",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	g.cache.Put(entities.CacheKeyAuthSession, session{Token: signed})
	return nil
}

// Authenticated reports whether a valid, unexpired session is stored.
func (g *Gate) Authenticated() bool {
	var s session
	if !g.cache.Get(entities.CacheKeyAuthSession, &s) || s.Token == "" {
		return false
	}

	_, err := jwt.Parse(s.Token, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		g.logger.Debugw("Stored session rejected", "error", err)
		return false
	}
	return true
}

// Logout drops the stored session.
func (g *Gate) Logout() {
	g.cache.Delete(entities.CacheKeyAuthSession)
}

func (g *Gate) match(password string) bool {
	if strings.HasPrefix(g.password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(g.password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(password)) == 1
}
