package auth

import (
	"fmt"

	"golang.org/x/oauth2"

	"fitdash/internal/config"
	"fitdash/internal/store"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes required for our app (Strava uses comma-separated scopes)
var Scopes = []string{
	"read,activity:read_all",
}

// NewOAuthConfig builds the Strava OAuth config from the app credentials.
// The redirect points at the local callback server.
func NewOAuthConfig(cfg config.StravaConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: fmt.Sprintf("http://localhost:%d%s", CallbackPort, CallbackPath),
		Scopes:      Scopes,
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// Record converts the result to its stored form
func (r *AuthResult) Record() *store.Auth {
	return &store.Auth{
		AthleteID:    r.AthleteID,
		AccessToken:  r.Token.AccessToken,
		RefreshToken: r.Token.RefreshToken,
		ExpiresAt:    r.Token.Expiry,
	}
}

// TokenFromRecord rebuilds an oauth2 token from stored credentials
func TokenFromRecord(a *store.Auth) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       a.ExpiresAt,
	}
}

// ExtractAthleteID extracts the athlete ID from the token extras.
// Strava includes athlete info in the token response.
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]any); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}
