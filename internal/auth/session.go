package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName = "session_token"
	issuer     = "consultas"
)

var ErrNoSession = errors.New("no valid session")

// Session is the authenticated state of one browser.
type Session struct {
	ID            string
	Username      string
	Authenticated bool
	ExpiresAt     time.Time
}

type sessionClaims struct {
	Authenticated bool `json:"auth"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session cookies. Logged out session IDs
// are remembered until their token would have expired anyway.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessions(secret string, ttl time.Duration, secureCookie bool) *Sessions {
	return &Sessions{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secureCookie,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue signs a new session for username and sets it on w.
func (s *Sessions) Issue(w http.ResponseWriter, username string) (Session, error) {
	now := s.now()
	sess := Session{
		ID:            uuid.NewString(),
		Username:      username,
		Authenticated: true,
		ExpiresAt:     now.Add(s.ttl).Truncate(time.Second),
	}

	claims := sessionClaims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Parse validates a token string and returns its session.
func (s *Sessions) Parse(token string) (Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if !parsed.Valid || !claims.Authenticated {
		return Session{}, ErrNoSession
	}
	if s.isRevoked(claims.ID) {
		return Session{}, fmt.Errorf("%w: session logged out", ErrNoSession)
	}

	return Session{
		ID:            claims.ID,
		Username:      claims.Subject,
		Authenticated: true,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

// FromRequest reads the session cookie of r.
func (s *Sessions) FromRequest(r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	return s.Parse(c.Value)
}

// Revoke rejects sess from now on, even if its cookie is replayed.
func (s *Sessions) Revoke(sess Session) {
	if sess.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[sess.ID] = sess.ExpiresAt
}

func (s *Sessions) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}

// Logout revokes the session carried by r, if any, and expires its cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.FromRequest(r); err == nil {
		s.Revoke(sess)
	}
	s.Clear(w)
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionKey struct{}

func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the session placed by Require.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok && sess.Authenticated
}

// Require lets authenticated requests through and sends everyone else to
// loginPath. HTMX requests get HX-Redirect since a 303 would be swapped inline.
func (s *Sessions) Require(loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.FromRequest(r)
		if err != nil {
			slog.DebugContext(r.Context(), "Unauthenticated request redirected",
				"path", r.URL.Path, "error", err)
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", loginPath)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
