// Package auth guards the operator API with a shared password and
// short-lived session tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abrezinsky/cuevote/internal/clock"
)

const (
	CookieName    = "cuevote_session"
	SessionExpiry = 12 * time.Hour

	bearerPrefix = "Bearer "
)

// Pool-hall words for password generation
var poolWords = []string{
	"cue", "chalk", "rack", "break", "corner",
	"pocket", "bank", "kiss", "eight", "nine",
	"stripe", "solid", "rail", "felt", "bridge",
	"scratch", "english", "masse", "lag",
}

// Auth tracks operator sessions. Tokens are accepted from the session
// cookie or an Authorization bearer header.
type Auth struct {
	password []byte
	clock    clock.Clock
	mu       sync.RWMutex
	expiries map[string]time.Time
}

// New creates an Auth checking against password
func New(password string) *Auth {
	return NewWithClock(password, clock.NewSystem())
}

// NewWithClock creates an Auth whose session expiry follows clk
func NewWithClock(password string, clk clock.Clock) *Auth {
	return &Auth{
		password: []byte(password),
		clock:    clk,
		expiries: make(map[string]time.Time),
	}
}

// GeneratePassword returns three random pool words joined by dashes
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(poolWords))))
		if err != nil {
			panic("auth: crypto/rand unavailable: " + err.Error())
		}
		words[i] = poolWords[n.Int64()]
	}
	return strings.Join(words, "-")
}

// Login returns a new session token when password matches
func (a *Auth) Login(password string) (string, bool) {
	if subtle.ConstantTimeCompare([]byte(password), a.password) != 1 {
		return "", false
	}

	token := newToken()
	a.mu.Lock()
	a.expiries[token] = a.clock.Now().Add(SessionExpiry)
	a.mu.Unlock()
	return token, true
}

// Logout forgets token
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.expiries, token)
	a.mu.Unlock()
}

// ValidateSession reports whether token belongs to an unexpired session.
// Expired tokens are dropped on sight.
func (a *Auth) ValidateSession(token string) bool {
	if token == "" {
		return false
	}
	a.mu.RLock()
	expiry, ok := a.expiries[token]
	a.mu.RUnlock()
	if !ok {
		return false
	}

	if a.clock.Now().After(expiry) {
		a.Logout(token)
		return false
	}
	return true
}

// ActiveSessions counts sessions that have not yet expired
func (a *Auth) ActiveSessions() int {
	now := a.clock.Now()
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, expiry := range a.expiries {
		if !now.After(expiry) {
			n++
		}
	}
	return n
}

// PruneExpired drops every expired session and returns how many were removed
func (a *Auth) PruneExpired() int {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for token, expiry := range a.expiries {
		if now.After(expiry) {
			delete(a.expiries, token)
			removed++
		}
	}
	return removed
}

// TokenFromRequest returns the bearer token if present, else the cookie value
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetSessionFromRequest reports whether r carries a valid session
func (a *Auth) GetSessionFromRequest(r *http.Request) bool {
	return a.ValidateSession(TokenFromRequest(r))
}

// RequireAuthAPI rejects requests without a valid session with 401
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.GetSessionFromRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("WWW-Authenticate", `Bearer realm="cuevote"`)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
	})
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// newToken returns 32 random bytes, URL-safe encoded
func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
