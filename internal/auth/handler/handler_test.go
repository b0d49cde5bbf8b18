package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webauth/internal/auth"
	"webauth/internal/auth/flow"
	"webauth/internal/auth/pending"
	"webauth/internal/auth/provider/google"
	"webauth/internal/auth/provider/google/googletest"
	"webauth/internal/auth/resolver"
	"webauth/internal/db"
	"webauth/internal/db/dbtest"
	"webauth/internal/middleware"
	"webauth/internal/pages"
	"webauth/internal/session"
)

type testEnv struct {
	router *gin.Engine
	idp    *googletest.Server
	db     *db.DB
}

func newTestEnv(t *testing.T, confirmHop bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d := dbtest.New(t)
	idp := googletest.New(t)

	p, err := google.New(idp.Options())
	require.NoError(t, err)

	users := resolver.NewDBResolver(d)
	sessions := session.NewSQLStore(d)
	ctrl := flow.NewController(p, pending.NewSQLStore(d, 10*time.Minute), users, sessions)

	renderer, err := pages.NewRenderer()
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.GinResolve(middleware.NewSessionMiddleware(sessions, users, nil)))
	NewHandler(ctrl, renderer, confirmHop).RegisterRoutes(r)

	return &testEnv{router: r, idp: idp, db: d}
}

func (e *testEnv) get(target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = "localhost:3000"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login runs /login and the provider approval, returning the
// /oauth_return URL the browser would visit.
func (e *testEnv) login(t *testing.T, returnURL string) string {
	t.Helper()

	rec := e.get("/login?return_url=" + url.QueryEscape(returnURL))
	require.Equal(t, http.StatusFound, rec.Code)

	back := e.idp.Approve(t, rec.Header().Get("Location"))
	require.Equal(t, "http://localhost:3000/oauth_return", back.Scheme+"://"+back.Host+back.Path)
	return back.RequestURI()
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestLoginRedirectsToProvider(t *testing.T) {
	e := newTestEnv(t, false)

	rec := e.get("/login?return_url=/profile")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, e.idp.URL+"/auth", loc.Scheme+"://"+loc.Host+loc.Path)
	assert.Equal(t, "S256", loc.Query().Get("code_challenge_method"))
	assert.Equal(t, 1, dbtest.Count(t, e.db, "pending_authorizations"))
}

func TestOAuthReturnSetsCookie(t *testing.T) {
	e := newTestEnv(t, false)

	rec := e.get(e.login(t, "/profile"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile", rec.Header().Get("Location"))

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	tok, err := session.ParseToken(c.Value)
	require.NoError(t, err)
	assert.Len(t, tok.Secret, session.SecretLength)

	// Logged in now: /login short-circuits to /
	rec = e.get("/login?return_url=/profile", c)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestOAuthReturnConfirmHop(t *testing.T) {
	e := newTestEnv(t, true)

	rec := e.get(e.login(t, "/profile"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/cookies?return_url=%2Fprofile", rec.Header().Get("Location"))
	assert.NotNil(t, sessionCookie(rec))
}

func TestOAuthReturnReplay(t *testing.T) {
	e := newTestEnv(t, false)
	back := e.login(t, "/")

	require.Equal(t, http.StatusFound, e.get(back).Code)

	rec := e.get(back)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, sessionCookie(rec))
	assert.Equal(t, 1, dbtest.Count(t, e.db, "sessions"))
}

func TestOAuthReturnProviderError(t *testing.T) {
	e := newTestEnv(t, false)
	back, err := url.Parse(e.login(t, "/"))
	require.NoError(t, err)

	q := back.Query()
	q.Del("code")
	q.Set("error", "access_denied")
	back.RawQuery = q.Encode()

	rec := e.get(back.RequestURI())
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 0, dbtest.Count(t, e.db, "pending_authorizations"))
}

func TestOAuthReturnUnverifiedEmail(t *testing.T) {
	e := newTestEnv(t, false)
	e.idp.SetUserInfo(`{"email":"a@x.com","picture":"","verified_email":false}`)

	rec := e.get(e.login(t, "/"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, dbtest.Count(t, e.db, "users"))
	assert.Equal(t, 0, dbtest.Count(t, e.db, "sessions"))
}

func TestOAuthReturnMalformedClaims(t *testing.T) {
	e := newTestEnv(t, false)
	e.idp.SetUserInfo(`{"picture":"","verified_email":true}`)

	rec := e.get(e.login(t, "/"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t, false)
	c := sessionCookie(e.get(e.login(t, "/")))
	require.NotNil(t, c)

	rec := e.get("/logout", c)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Equal(t, 0, dbtest.Count(t, e.db, "sessions"))

	// No cookie at all still clears and redirects
	rec = e.get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotNil(t, sessionCookie(rec))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidOrExpiredState, http.StatusBadRequest},
		{fmt.Errorf("%w: boom", auth.ErrTokenExchangeFailed), http.StatusBadGateway},
		{auth.ErrMalformedClaims, http.StatusBadGateway},
		{auth.ErrEmailNotVerified, http.StatusForbidden},
		{fmt.Errorf("%w: db", auth.ErrStore), http.StatusInternalServerError},
		{auth.ErrMissingContext, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, msg := StatusFor(tt.err)
		assert.Equal(t, tt.want, status, tt.err.Error())
		assert.NotContains(t, msg, tt.err.Error())
	}
}
