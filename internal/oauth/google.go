// Package oauth performs the Google authorization-code exchange and reads the
// signed-in user's profile.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/iliyamo/cinemaops/internal/config"
)

var (
	// ErrNoEmail is returned when the profile carries no email address.
	ErrNoEmail = errors.New("oauth: profile has no email")
	// ErrExchange wraps token endpoint failures.
	ErrExchange = errors.New("oauth exchange failed")
)

// Profile is the subset of the OpenID userinfo document used for sign-in.
type Profile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Google exchanges codes against Google's token endpoint, or the one named
// in the config.
type Google struct {
	conf        *oauth2.Config
	userInfoURL string
}

func NewGoogle(c config.GoogleConfig) *Google {
	ep := endpoints.Google
	if c.TokenURL != "" {
		ep.TokenURL = c.TokenURL
	}
	// client_id and client_secret travel in the form body.
	ep.AuthStyle = oauth2.AuthStyleInParams
	return &Google{
		conf: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     ep,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: c.UserInfoURL,
	}
}

// Exchange trades an authorization code for tokens.
func (g *Google) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	return tok, nil
}

// Profile fetches the userinfo document with tok.
func (g *Google) Profile(ctx context.Context, tok *oauth2.Token) (Profile, error) {
	var p Profile
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return p, err
	}
	resp, err := g.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return p, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return p, fmt.Errorf("userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return p, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("userinfo: %w", err)
	}
	if p.Email == "" {
		return p, ErrNoEmail
	}
	return p, nil
}

// TokenJSON renders tok the way Google's token endpoint does, including the
// id_token when present.
func TokenJSON(tok *oauth2.Token) map[string]any {
	out := map[string]any{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
	}
	if tok.RefreshToken != "" {
		out["refresh_token"] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		out["expiry"] = tok.Expiry
	}
	if id, ok := tok.Extra("id_token").(string); ok && id != "" {
		out["id_token"] = id
	}
	return out
}
