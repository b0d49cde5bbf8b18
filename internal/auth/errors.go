package auth

import "errors"

var (
	// ErrInvalidOrExpiredState rejects forged, replayed or stale login returns.
	ErrInvalidOrExpiredState = errors.New("invalid or expired oauth state")

	// ErrTokenExchangeFailed covers provider rejections and transport failures.
	ErrTokenExchangeFailed = errors.New("oauth token exchange failed")

	ErrMalformedClaims  = errors.New("malformed identity claims")
	ErrEmailNotVerified = errors.New("email address is not verified")

	// ErrStore wraps any persistence failure.
	ErrStore = errors.New("store failure")

	// ErrMissingContext means the enforce stage ran without the resolve
	// stage in front of it.
	ErrMissingContext = errors.New("request has no resolved identity context")
)
