package provider

import (
	"context"

	"webauth/internal/auth"
)

// AuthorizationRequest is everything login start needs to redirect the
// browser and to remember for the return leg.
type AuthorizationRequest struct {
	URL           string
	CSRFToken     string
	PKCEVerifier  string
	PKCEChallenge string
}

// IdentityProvider defines the contract for the external identity
// provider. Implementations return identity facts only and must not
// perform user creation or session management.
type IdentityProvider interface {
	// AuthorizationRequest builds the provider redirect for a request
	// that arrived on host, with a fresh CSRF token and PKCE pair.
	AuthorizationRequest(host string) (*AuthorizationRequest, error)

	// ExchangeCode trades the authorization code for an access token.
	// Failures wrap auth.ErrTokenExchangeFailed.
	ExchangeCode(
		ctx context.Context,
		host string,
		code string,
		codeVerifier string,
	) (accessToken string, err error)

	// FetchIdentityClaims reads the user's email, picture and
	// verified-email flag with the access token.
	FetchIdentityClaims(ctx context.Context, accessToken string) (*auth.Claims, error)
}
