package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// Auth is the Google sign in flow shared by the Google and YouTube
// providers. The connected identity is the user's YouTube channel.
type Auth struct {
	Base *providers.Base
}

func (a Auth) oauthConfig() *oauth2.Config {
	settings := a.Base.OAuth()
	return &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURL:  settings.RedirectURI,
		Scopes:       settings.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.Base.URL(AuthURL),
			TokenURL:  a.Base.URL(TokenURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (a Auth) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.Base.Runtime().HTTPClient)
}

// Exchange trades the code for tokens, checks the granted scopes and
// resolves the channel behind the grant.
func (a Auth) Exchange(ctx context.Context, req core.ExchangeRequest) ([]core.ExchangeResult, error) {
	if err := a.Base.CheckExchange(req); err != nil {
		return nil, err
	}

	var opts []oauth2.AuthCodeOption
	if verifier := strings.TrimSpace(req.CSRFToken); verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := a.oauthConfig().Exchange(a.clientContext(ctx), req.Code, opts...)
	if err != nil {
		return nil, tokenError(err, "Failed to exchange Google code")
	}

	scope, _ := token.Extra("scope").(string)
	if err := a.Base.RequireGrantedScopes(providers.SplitScopes(scope, providers.ScopeDelimiterSpace)); err != nil {
		return nil, err
	}

	service, err := a.Service(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	channel, err := a.Channel(ctx, service)
	if err != nil {
		return nil, err
	}

	result := core.ExchangeResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		AccountID:    channel.Id,
		Details:      ChannelDetails(channel),
	}
	if !token.Expiry.IsZero() {
		result.Expiry = token.Expiry.UTC()
	}
	return []core.ExchangeResult{result}, nil
}

// Refresh redeems a refresh token through the oauth2 token source.
func (a Auth) Refresh(ctx context.Context, refreshToken string) (core.RefreshResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.RefreshResult{}, core.BadInputError("Refresh token is required")
	}
	source := a.oauthConfig().TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return core.RefreshResult{}, tokenError(err, "Failed to refresh Google access token")
	}
	result := core.RefreshResult{AccessToken: token.AccessToken}
	if token.RefreshToken != refreshToken {
		result.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		result.Expiry = token.Expiry.UTC()
	}
	return result, nil
}

// Service builds a YouTube Data API client that authenticates as accessToken
// and talks to the configured API origin.
func (a Auth) Service(ctx context.Context, accessToken string) (*ytapi.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	service, err := ytapi.NewService(ctx,
		option.WithHTTPClient(oauth2.NewClient(a.clientContext(ctx), source)),
		option.WithEndpoint(a.Base.URL(APIURL)+"/"),
	)
	if err != nil {
		return nil, core.MapError(fmt.Errorf("youtube client: %w", err))
	}
	return service, nil
}

// Channel returns the channel owned by the authenticated user.
func (a Auth) Channel(ctx context.Context, service *ytapi.Service) (*ytapi.Channel, error) {
	res, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, APIError(err, "Failed to get YouTube channel data")
	}
	if len(res.Items) == 0 || res.Items[0] == nil || strings.TrimSpace(res.Items[0].Id) == "" {
		return nil, core.PlatformError("Could not retrieve YouTube channel ID", http.StatusOK, nil)
	}
	return res.Items[0], nil
}

// ChannelDetails prefers the channel handle as username and falls back to
// its title.
func ChannelDetails(channel *ytapi.Channel) *core.AccountDetails {
	details := &core.AccountDetails{}
	if channel == nil || channel.Snippet == nil {
		return details
	}
	snippet := channel.Snippet
	details.Name = snippet.Title
	details.Username = snippet.Title
	if handle := strings.ReplaceAll(snippet.CustomUrl, "@", ""); handle != "" {
		details.Username = handle
	}
	if snippet.Thumbnails != nil && snippet.Thumbnails.Default != nil {
		details.AvatarURL = snippet.Thumbnails.Default.Url
	}
	return details
}

// APIError converts a YouTube client failure into a platform error.
func APIError(err error, failure string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := failure
		if detail := strings.TrimSpace(apiErr.Message); detail != "" {
			message += ": " + detail
		}
		return core.PlatformError(message, apiErr.Code, []byte(apiErr.Body))
	}
	if mapped := core.MapError(err); mapped != nil && mapped.TextCode == core.ErrorTimeout {
		return mapped
	}
	return core.PlatformError(failure+": "+err.Error(), 0, nil)
}

func tokenError(err error, failure string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		message := failure
		switch {
		case strings.TrimSpace(retrieveErr.ErrorDescription) != "":
			message += ": " + retrieveErr.ErrorDescription
		case strings.TrimSpace(retrieveErr.ErrorCode) != "":
			message += ": " + retrieveErr.ErrorCode
		}
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return core.PlatformError(message, status, retrieveErr.Body)
	}
	return APIError(err, failure)
}
