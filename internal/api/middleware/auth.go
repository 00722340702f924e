package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth validates requests against static API keys and, when a secret is
// configured, HS256 JWTs. OpenAI SDK clients always send a Bearer token, so
// both arrive through the Authorization header; the X-API-Key header is
// accepted as well. With no keys and no secret configured the middleware is
// a no-op: a local deployment needs no auth.
type Auth struct {
	keys      []string
	jwtSecret []byte
}

// NewAuth creates the middleware from the configured keys and JWT secret.
func NewAuth(apiKeys []string, jwtSecret string) *Auth {
	return &Auth{keys: apiKeys, jwtSecret: []byte(jwtSecret)}
}

// Enabled reports whether any credential is configured.
func (a *Auth) Enabled() bool {
	return len(a.keys) > 0 || len(a.jwtSecret) > 0
}

// Authenticate rejects requests without a valid credential.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			unauthorized(w, "missing credentials")
			return
		}
		if a.matchKey(token) || a.validJWT(token) {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, "invalid credentials")
	})
}

func (a *Auth) matchKey(token string) bool {
	for _, key := range a.keys {
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

func (a *Auth) validJWT(token string) bool {
	if len(a.jwtSecret) == 0 {
		return false
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	return err == nil && parsed.Valid
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
