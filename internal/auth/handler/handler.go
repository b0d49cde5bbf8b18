package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"webauth/internal/auth"
	"webauth/internal/auth/flow"
	"webauth/internal/auth/provider/google"
	"webauth/internal/logger"
	"webauth/internal/pages"
	"webauth/internal/session"
)

const cookiesPath = "/cookies"

type Handler struct {
	flow  *flow.Controller
	pages *pages.Renderer

	// confirmHop sends the browser through /cookies after login.
	confirmHop bool
}

func NewHandler(
	controller *flow.Controller,
	renderer *pages.Renderer,
	confirmHop bool,
) *Handler {
	return &Handler{
		flow:       controller,
		pages:      renderer,
		confirmHop: confirmHop,
	}
}

// RegisterRoutes mounts the login routes. The resolve stage must
// already be installed on r.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/login", h.login)
	r.GET(google.ReturnPath, h.oauthReturn)
	r.GET("/logout", h.logout)
}

func (h *Handler) login(c *gin.Context) {
	var current *auth.ResolvedIdentity
	if res, err := auth.ResolutionFromContext(c.Request.Context()); err == nil {
		if id, ok := res.Identity(); ok {
			current = &id
		}
	}

	target, err := h.flow.LoginStart(
		c.Request.Context(),
		c.Request.Host,
		c.Query("return_url"),
		current,
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

func (h *Handler) oauthReturn(c *gin.Context) {
	code := c.Query("code")

	// Provider-side refusal (user cancelled, consent denied). The state
	// is still consumed below; an empty code fails the exchange.
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth return carried provider error", map[string]any{
			"error": errParam,
			"desc":  c.Query("error_description"),
		})
		code = ""
	}

	done, err := h.flow.LoginReturn(
		c.Request.Context(),
		c.Request.Host,
		c.Query("state"),
		code,
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	session.SetCookie(c.Writer, done.Token, done.ExpiresAt)

	target := done.ReturnURL
	if h.confirmHop {
		target = cookiesPath + "?return_url=" + url.QueryEscape(done.ReturnURL)
	}

	c.Redirect(http.StatusFound, target)
}

func (h *Handler) logout(c *gin.Context) {
	// 1. Best-effort delete by lookup half
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.flow.Logout(c.Request.Context(), cookie.Value); err != nil {
			logger.Warn("logout delete failed", map[string]any{
				"error": err,
			})
		}
	}

	// 2. Always clear the cookie
	session.ClearCookie(c.Writer)

	c.Redirect(http.StatusFound, flow.DefaultLanding)
}

// fail logs err and renders the error page with its status.
func (h *Handler) fail(c *gin.Context, err error) {
	status, message := StatusFor(err)

	fields := map[string]any{
		"error":  err,
		"path":   c.Request.URL.Path,
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("login flow failed", fields)
	} else {
		logger.Warn("login flow rejected", fields)
	}

	h.pages.RenderError(c, status, message)
}

// StatusFor maps a flow error to an HTTP status and a user-facing
// message. Causes are never shown to the user.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidOrExpiredState):
		return http.StatusBadRequest, "This login link is invalid or has expired. Please sign in again."
	case errors.Is(err, auth.ErrEmailNotVerified):
		return http.StatusForbidden, "Your email address is not verified with the provider."
	case errors.Is(err, auth.ErrTokenExchangeFailed),
		errors.Is(err, auth.ErrMalformedClaims):
		return http.StatusBadGateway, "The identity provider could not complete the login."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}
