// Package googletest runs a fake Google OAuth server for tests. It
// issues codes at /auth, checks the PKCE verifier at /token and serves
// a configurable userinfo document.
package googletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"webauth/internal/auth/provider/google"
)

const (
	ClientID     = "test-client"
	ClientSecret = "test-secret"
)

type grant struct {
	challenge   string
	redirectURI string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	n        int
	grants   map[string]grant
	userinfo string
}

// New starts the server and stops it on cleanup. The userinfo document
// defaults to a verified a@x.com.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		grants:   map[string]grant{},
		userinfo: `{"email":"a@x.com","picture":"https://img.test/a.png","verified_email":true}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.authorize)
	mux.HandleFunc("/token", s.token)
	mux.HandleFunc("/userinfo", s.userInfo)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Options points a google.Provider at this server.
func (s *Server) Options() google.Options {
	return google.Options{
		ClientID:     ClientID,
		ClientSecret: ClientSecret,
		AuthURL:      s.URL + "/auth",
		TokenURL:     s.URL + "/token",
		UserInfoURL:  s.URL + "/userinfo",
		HTTPClient:   s.Client(),
	}
}

func (s *Server) SetUserInfo(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userinfo = doc
}

// authorize approves every request and redirects back with a fresh code.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") != ClientID || q.Get("code_challenge_method") != "S256" {
		http.Error(w, "bad authorization request", http.StatusBadRequest)
		return
	}

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirect.Host == "" {
		http.Error(w, "bad redirect_uri", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.n++
	code := fmt.Sprintf("code-%d", s.n)
	s.grants[code] = grant{challenge: q.Get("code_challenge"), redirectURI: redirect.String()}
	s.mu.Unlock()

	back := redirect.Query()
	back.Set("code", code)
	back.Set("state", q.Get("state"))
	redirect.RawQuery = back.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := r.PostForm

	s.mu.Lock()
	g, ok := s.grants[form.Get("code")]
	delete(s.grants, form.Get("code"))
	s.mu.Unlock()

	valid := ok &&
		form.Get("client_id") == ClientID &&
		form.Get("client_secret") == ClientSecret &&
		form.Get("redirect_uri") == g.redirectURI &&
		oauth2.S256ChallengeFromVerifier(form.Get("code_verifier")) == g.challenge

	w.Header().Set("Content-Type", "application/json")
	if !valid {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "access-" + form.Get("code"),
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) userInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	doc := s.userinfo
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Approve plays the browser's visit to the provider: it follows
// authURL once and returns the redirect back to the app.
func (s *Server) Approve(t testing.TB, authURL string) *url.URL {
	t.Helper()

	client := *s.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Get(authURL)
	if err != nil {
		t.Fatalf("googletest: visit %s: %v", authURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("googletest: authorize returned %d", resp.StatusCode)
	}

	back, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("googletest: bad redirect: %v", err)
	}
	return back
}
