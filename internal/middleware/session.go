package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"webauth/internal/auth"
	"webauth/internal/auth/resolver"
	"webauth/internal/logger"
	"webauth/internal/metrics"
	"webauth/internal/session"
)

// LoginPath is where Require sends anonymous requests.
const LoginPath = "/login"

// SessionMiddleware turns the session cookie into an auth.Resolution
// (Resolve) and enforces it on protected routes (Require).
type SessionMiddleware struct {
	Sessions session.Store
	Users    resolver.Resolver
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func NewSessionMiddleware(
	sessions session.Store,
	users resolver.Resolver,
	m *metrics.Metrics,
) *SessionMiddleware {
	return &SessionMiddleware{
		Sessions: sessions,
		Users:    users,
		Metrics:  m,
		Now:      time.Now,
	}
}

// Resolve never rejects. Every failure mode degrades to anonymous.
func (s *SessionMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.ResolutionFromContext(r.Context()); err == nil {
			next.ServeHTTP(w, r)
			return
		}

		res, outcome := s.resolve(r)
		s.Metrics.SessionResolution(outcome)

		next.ServeHTTP(w, r.WithContext(auth.WithResolution(r.Context(), res)))
	})
}

func (s *SessionMiddleware) resolve(r *http.Request) (auth.Resolution, string) {
	// 1. Read session cookie
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return auth.Anonymous(), "no_cookie"
	}

	tok, err := session.ParseToken(cookie.Value)
	if err != nil {
		return auth.Anonymous(), "malformed"
	}

	// 2. Load session by lookup half
	rec, err := s.Sessions.Lookup(r.Context(), tok.Lookup)
	if errors.Is(err, session.ErrNotFound) {
		return auth.Anonymous(), "unknown"
	}
	if err != nil {
		logger.Warn("session lookup failed", map[string]any{
			"error": err,
		})
		return auth.Anonymous(), "store_error"
	}

	// 3. Constant-time secret check, then expiry
	if !session.SecretEqual(rec.Secret, tok.Secret) {
		logger.Warn("session secret mismatch", map[string]any{
			"user_id": rec.UserID,
		})
		return auth.Anonymous(), "mismatch"
	}

	if rec.Expired(s.now()) {
		return auth.Anonymous(), "expired"
	}

	// 4. Load the user behind the session
	user, err := s.Users.UserByID(r.Context(), rec.UserID)
	if err != nil {
		if !errors.Is(err, resolver.ErrUserNotFound) {
			logger.Warn("session user lookup failed", map[string]any{
				"error":   err,
				"user_id": rec.UserID,
			})
		}
		return auth.Anonymous(), "no_user"
	}

	return auth.Authenticated(auth.ResolvedIdentity{
		UserID:  user.ID,
		Email:   user.Email,
		Picture: user.Picture,
	}), "authenticated"
}

func (s *SessionMiddleware) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Decision is what Require does with a request.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	InternalError
)

// Decide maps the resolve stage's output to an enforcement decision.
func Decide(res auth.Resolution, err error) Decision {
	switch {
	case err != nil:
		return InternalError
	case res.Authenticated():
		return Allow
	default:
		return RedirectToLogin
	}
}

// LoginRedirect is the login URL that comes back to requestURI.
func LoginRedirect(requestURI string) string {
	return LoginPath + "?return_url=" + url.QueryEscape(requestURI)
}

// Require lets authenticated requests through and sends anonymous ones
// to the login page. It must run after Resolve.
func (s *SessionMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := auth.ResolutionFromContext(r.Context())

		switch Decide(res, err) {
		case Allow:
			next.ServeHTTP(w, r)
		case RedirectToLogin:
			http.Redirect(w, r, LoginRedirect(r.URL.RequestURI()), http.StatusFound)
		default:
			logger.Error("protected route without session resolution", map[string]any{
				"error": err,
				"path":  r.URL.Path,
			})
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	})
}
