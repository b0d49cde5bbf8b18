// Package flow drives the two-step OAuth login (start, return) and logout.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webauth/internal/auth"
	"webauth/internal/auth/pending"
	"webauth/internal/auth/provider"
	"webauth/internal/auth/resolver"
	"webauth/internal/logger"
	"webauth/internal/metrics"
	"webauth/internal/session"
)

// DefaultSessionTTL is the fixed lifetime of an issued session.
const DefaultSessionTTL = 24 * time.Hour

type Controller struct {
	provider   provider.IdentityProvider
	pending    pending.Store
	users      resolver.Resolver
	sessions   session.Store
	metrics    *metrics.Metrics
	sessionTTL time.Duration
	now        func() time.Time
}

type Option func(*Controller)

func WithSessionTTL(d time.Duration) Option {
	return func(c *Controller) { c.sessionTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func NewController(
	idp provider.IdentityProvider,
	pendingStore pending.Store,
	users resolver.Resolver,
	sessions session.Store,
	opts ...Option,
) *Controller {
	c := &Controller{
		provider:   idp,
		pending:    pendingStore,
		users:      users,
		sessions:   sessions,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Completion is the result of a successful login return.
type Completion struct {
	Token     session.Token
	ExpiresAt time.Time
	ReturnURL string
	Identity  auth.ResolvedIdentity
}

// LoginStart returns where to send the browser: the provider's
// authorization endpoint, or DefaultLanding when current is already set.
func (c *Controller) LoginStart(
	ctx context.Context,
	host string,
	returnURL string,
	current *auth.ResolvedIdentity,
) (string, error) {

	if current != nil {
		return DefaultLanding, nil
	}

	req, err := c.provider.AuthorizationRequest(host)
	if err != nil {
		return "", fmt.Errorf("flow: build authorization request: %w", err)
	}

	err = c.pending.Create(ctx, pending.Authorization{
		CSRFToken:    req.CSRFToken,
		PKCEVerifier: req.PKCEVerifier,
		ReturnURL:    SanitizeReturnURL(returnURL),
		CreatedAt:    c.now(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", auth.ErrStore, err)
	}

	return req.URL, nil
}

// LoginReturn completes the flow. The pending record for state is
// consumed first and stays consumed whatever happens afterwards.
func (c *Controller) LoginReturn(
	ctx context.Context,
	host string,
	state string,
	code string,
) (*Completion, error) {

	completion, err := c.loginReturn(ctx, host, state, code)
	c.metrics.LoginAttempt(outcome(err))
	return completion, err
}

func (c *Controller) loginReturn(
	ctx context.Context,
	host string,
	state string,
	code string,
) (*Completion, error) {

	// 1. Consume CSRF/PKCE state
	if state == "" {
		return nil, auth.ErrInvalidOrExpiredState
	}

	pa, err := c.pending.Consume(ctx, state)
	if errors.Is(err, pending.ErrNotFound) {
		return nil, auth.ErrInvalidOrExpiredState
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrStore, err)
	}

	if code == "" {
		return nil, fmt.Errorf("%w: provider returned no code", auth.ErrTokenExchangeFailed)
	}

	// 2. Exchange code + verifier
	accessToken, err := c.provider.ExchangeCode(ctx, host, code, pa.PKCEVerifier)
	if err != nil {
		return nil, classify(err, auth.ErrTokenExchangeFailed)
	}

	// 3. Claims; unverified email is a hard stop
	claims, err := c.provider.FetchIdentityClaims(ctx, accessToken)
	if err != nil {
		return nil, classify(err, auth.ErrTokenExchangeFailed)
	}
	if !claims.EmailVerified {
		return nil, auth.ErrEmailNotVerified
	}

	// 4. Lookup-or-create user
	user, err := c.users.Resolve(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrStore, err)
	}

	// 5. Issue session
	token, err := session.NewToken()
	if err != nil {
		return nil, err
	}

	now := c.now()
	rec := session.Record{
		LookupKey: token.Lookup,
		Secret:    token.Secret,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(c.sessionTTL),
	}
	if err := c.sessions.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrStore, err)
	}
	c.metrics.SessionIssued()

	logger.Info("login succeeded", map[string]any{
		"user_id":    user.ID,
		"session":    shortKey(token.Lookup),
		"expires_at": rec.ExpiresAt.Unix(),
	})

	return &Completion{
		Token:     token,
		ExpiresAt: rec.ExpiresAt,
		ReturnURL: pa.ReturnURL,
		Identity: auth.ResolvedIdentity{
			UserID:  user.ID,
			Email:   user.Email,
			Picture: user.Picture,
		},
	}, nil
}

// Logout deletes the session named by the cookie's lookup half. The
// secret half is not checked.
func (c *Controller) Logout(ctx context.Context, cookieValue string) error {
	key := session.LookupKey(cookieValue)
	if key == "" {
		return nil
	}

	if err := c.sessions.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrStore, err)
	}

	logger.Info("logout", map[string]any{
		"session": shortKey(key),
	})
	return nil
}

var knownKinds = []error{
	auth.ErrInvalidOrExpiredState,
	auth.ErrTokenExchangeFailed,
	auth.ErrMalformedClaims,
	auth.ErrEmailNotVerified,
	auth.ErrStore,
}

// classify keeps err if it already carries a known kind, otherwise tags
// it with fallback.
func classify(err, fallback error) error {
	for _, kind := range knownKinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", fallback, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, auth.ErrInvalidOrExpiredState):
		return "invalid_state"
	case errors.Is(err, auth.ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, auth.ErrMalformedClaims):
		return "malformed_claims"
	case errors.Is(err, auth.ErrTokenExchangeFailed):
		return "exchange_failed"
	case errors.Is(err, auth.ErrStore):
		return "store_error"
	default:
		return "error"
	}
}

// shortKey trims a lookup key for logs.
func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
