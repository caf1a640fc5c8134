package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/pkg/logger"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

// Registry is the part of a Store the cookie manager needs.
type Registry interface {
	Exists(id string) bool
	Create() string
}

type CookieConfig struct {
	Name   string
	Secret string
	TTL    time.Duration
	Secure bool
}

// Manager issues and verifies session cookies. The cookie value is an
// HS256 JWT whose subject is the session id.
type Manager struct {
	cfg      CookieConfig
	registry Registry
	now      func() time.Time
}

func NewManager(cfg CookieConfig, registry Registry) *Manager {
	return &Manager{cfg: cfg, registry: registry, now: time.Now}
}

func (m *Manager) sign(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
}

// Verify returns the session id carried by a cookie value.
func (m *Manager) Verify(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(m.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}

func (m *Manager) write(w http.ResponseWriter, id string) error {
	value, err := m.sign(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// resolve finds the live session of r, or starts one.
func (m *Manager) resolve(r *http.Request) (id string, fresh bool) {
	if c, err := r.Cookie(m.cfg.Name); err == nil {
		if id, err := m.Verify(c.Value); err == nil && m.registry.Exists(id) {
			return id, false
		}
	}
	return m.registry.Create(), true
}

// Middleware attaches the session id to the request context and refreshes
// the cookie so active sessions slide forward.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, fresh := m.resolve(r)
		ctx := internal.ContextWithSessionID(r.Context(), id)
		if fresh {
			logger.From(ctx).Debug("session started")
		}

		if err := m.write(w, id); err != nil {
			logger.From(ctx).Error("failed to sign session cookie", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
