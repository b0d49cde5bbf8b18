package session

import (
	"net/http"
	"time"
)

const (
	CookieName = "session_token"
	cookiePath = "/"

	deletedValue = "deleted"
)

// SetCookie issues the session cookie: HttpOnly, Secure, SameSite=Strict.
func SetCookie(w http.ResponseWriter, t Token, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    t.String(),
		Path:     cookiePath,
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie overwrites the session cookie with an already-expired value.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    deletedValue,
		Path:     cookiePath,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
