// Package auth owns the OAuth2 authorization-code flow: the persisted
// token cache, the session that mints and refreshes tokens, and the
// coordinator that drives an interactive login end to end.
package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// expirySkew is subtracted from the expiry when checking validity so a
// token about to lapse mid-request is treated as expired.
const expirySkew = 30 * time.Second

// Token is the persisted credential shape.
//
// A Token is either absent, valid (now < ExpiresAt), or expired. Expired
// tokens must be refreshed before use, never sent as-is. It is created on a
// successful code exchange, mutated in place on refresh, and written
// through to disk on every create/refresh.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope,omitempty"`
}

// Valid reports whether the access token can still be sent, with a small
// skew so near-expired tokens refresh early. No network call is made.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Before(t.ExpiresAt.Add(-expirySkew))
}

// Refreshable reports whether an expired token carries a refresh token.
func (t *Token) Refreshable() bool {
	return t != nil && t.RefreshToken != ""
}

// OAuth2 converts to the [oauth2.Token] form used on the wire.
func (t *Token) OAuth2() *oauth2.Token {
	if t == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
		TokenType:    "Bearer",
	}
}

// FromOAuth2 builds a Token from an [oauth2.Token], preserving the previous
// refresh token and scope when the provider omits them on refresh.
func FromOAuth2(tok *oauth2.Token, prev *Token) *Token {
	if tok == nil {
		return nil
	}

	t := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}

	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		t.Scope = scope
	}

	if prev != nil {
		if t.RefreshToken == "" {
			t.RefreshToken = prev.RefreshToken
		}
		if t.Scope == "" {
			t.Scope = prev.Scope
		}
	}

	return t
}
