package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"webauth/internal/auth"
	"webauth/internal/auth/provider"
	"webauth/internal/logger"
	"webauth/internal/utils"
)

const (
	DefaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL    = "https://www.googleapis.com/oauth2/v3/token"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// EmailScope is the minimal scope that exposes the user's email.
	EmailScope = "https://www.googleapis.com/auth/userinfo.email"

	ReturnPath = "/oauth_return"

	defaultTimeout  = 10 * time.Second
	csrfTokenBytes  = 16
	maxUserInfoBody = 1 << 20
)

type Options struct {
	ClientID     string
	ClientSecret string

	// Endpoint overrides; empty means the Google defaults.
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// Timeout bounds each outbound call to the provider.
	Timeout time.Duration

	// HTTPClient is used for all provider calls; defaults to a client
	// with Timeout set.
	HTTPClient *http.Client
}

// Provider is the Google OAuth2 client with PKCE.
type Provider struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	userInfoURL  string
	timeout      time.Duration
	httpClient   *http.Client
}

var _ provider.IdentityProvider = (*Provider)(nil)

func New(opts Options) (*Provider, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("google oauth config missing client id or secret")
	}

	p := &Provider{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		endpoint: oauth2.Endpoint{
			AuthURL:   orDefault(opts.AuthURL, DefaultAuthURL),
			TokenURL:  orDefault(opts.TokenURL, DefaultTokenURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		userInfoURL: orDefault(opts.UserInfoURL, DefaultUserInfoURL),
		timeout:     opts.Timeout,
		httpClient:  opts.HTTPClient,
	}

	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: p.timeout}
	}

	return p, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// RedirectURL derives the OAuth return URL from the request host.
// Loopback hosts get plain http, everything else https. Forwarded
// scheme headers are never consulted.
func RedirectURL(host string) string {
	scheme := "https"
	if isLoopback(host) {
		scheme = "http"
	}
	return scheme + "://" + host + ReturnPath
}

func isLoopback(host string) bool {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	hostname = strings.Trim(hostname, "[]")

	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

func (p *Provider) config(host string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Endpoint:     p.endpoint,
		RedirectURL:  RedirectURL(host),
		Scopes:       []string{EmailScope},
	}
}

// AuthorizationRequest builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthorizationRequest(host string) (*provider.AuthorizationRequest, error) {
	csrfToken, err := utils.RandomString(csrfTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("google: csrf token: %w", err)
	}

	verifier := oauth2.GenerateVerifier()

	authURL := p.config(host).AuthCodeURL(
		csrfToken,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)

	return &provider.AuthorizationRequest{
		URL:           authURL,
		CSRFToken:     csrfToken,
		PKCEVerifier:  verifier,
		PKCEChallenge: oauth2.S256ChallengeFromVerifier(verifier),
	}, nil
}

// ExchangeCode runs the code-for-token exchange on its own goroutine and
// waits for it, bounded by the provider timeout.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	host string,
	code string,
	codeVerifier string,
) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	cfg := p.config(host)

	var token *oauth2.Token
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := cfg.Exchange(gctx, code, oauth2.VerifierOption(codeVerifier))
		if err != nil {
			return err
		}
		token = t
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Warn("google token exchange failed", map[string]any{
			"error": err,
		})
		return "", fmt.Errorf("%w: %w", auth.ErrTokenExchangeFailed, err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", auth.ErrTokenExchangeFailed)
	}

	return token.AccessToken, nil
}

// FetchIdentityClaims queries the userinfo endpoint with the access token.
func (p *Provider) FetchIdentityClaims(ctx context.Context, accessToken string) (*auth.Claims, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google: userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %w", auth.ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: userinfo status %d", auth.ErrTokenExchangeFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo body: %w", auth.ErrTokenExchangeFailed, err)
	}

	return ParseClaims(body)
}

// ParseClaims extracts email, picture and verified_email from a userinfo
// document. Each field must be present with the right JSON type.
func ParseClaims(body []byte) (*auth.Claims, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", auth.ErrMalformedClaims)
	}

	email := gjson.GetBytes(body, "email")
	if email.Type != gjson.String || email.Str == "" {
		return nil, fmt.Errorf("%w: email", auth.ErrMalformedClaims)
	}

	picture := gjson.GetBytes(body, "picture")
	if picture.Type != gjson.String {
		return nil, fmt.Errorf("%w: picture", auth.ErrMalformedClaims)
	}

	verified := gjson.GetBytes(body, "verified_email")
	if verified.Type != gjson.True && verified.Type != gjson.False {
		return nil, fmt.Errorf("%w: verified_email", auth.ErrMalformedClaims)
	}

	if !verified.Bool() {
		return nil, auth.ErrEmailNotVerified
	}

	return &auth.Claims{
		Email:         email.Str,
		Picture:       picture.Str,
		EmailVerified: true,
	}, nil
}
