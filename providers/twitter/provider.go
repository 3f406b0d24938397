package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
)

const (
	AuthURL  = "https://twitter.com/i/oauth2/authorize"
	APIURL   = "https://api.twitter.com"
	TokenURL = APIURL + "/2/oauth2/token"
)

type Config = providers.Config

// Provider connects X accounts through OAuth 2.0 with PKCE. Publishing is
// not available.
type Provider struct {
	*providers.Base
}

func DefaultScopes() []string {
	return []string{"tweet.read", "tweet.write", "users.read", "offline.access"}
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		Base: cfg.Base(core.PlatformTwitter, AuthURL, providers.ScopeDelimiterSpace, DefaultScopes(), nil),
	}, nil
}

type bearer string

func (b bearer) Add(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+string(b))
}

func (p *Provider) Exchange(ctx context.Context, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	startedAt := time.Now()
	results, err := p.exchange(ctx, req)
	return providers.Finish(ctx, p.Base, "exchange", startedAt, results, err)
}

func (p *Provider) exchange(ctx context.Context, req core.ExchangeRequest) ([]core.ExchangeResult, error) {
	if err := p.CheckExchange(req); err != nil {
		return nil, err
	}
	oauth := p.OAuth()

	token, err := p.FetchToken(ctx, providers.TokenRequest{
		Method: http.MethodPost,
		URL:    TokenURL,
		Form: url.Values{
			"code":          {req.Code},
			"grant_type":    {"authorization_code"},
			"client_id":     {oauth.ClientID},
			"client_secret": {oauth.ClientSecret},
			"redirect_uri":  {oauth.RedirectURI},
			"code_verifier": {req.CSRFToken},
		},
		BasicAuth: true,
		Failure:   "Failed to exchange Twitter code",
	})
	if err != nil {
		return nil, err
	}

	if err := p.RequireGrantedScopes(providers.SplitScopes(token.Scope, providers.ScopeDelimiterSpace)); err != nil {
		return nil, err
	}

	user, err := p.me(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return []core.ExchangeResult{{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		AccountID:    user.ID,
		Expiry:       core.ExpiresIn(p.Now(), token.ExpiresIn),
		Details: &core.AccountDetails{
			Name:      user.Name,
			Username:  user.UserName,
			AvatarURL: user.ProfileImageURL,
		},
	}}, nil
}

// Refresh redeems a refresh token issued for the offline.access scope. X
// rotates the refresh token on every use.
func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	return p.RenewToken(ctx, token, func(token string) providers.TokenRequest {
		return providers.TokenRequest{
			Method: http.MethodPost,
			URL:    TokenURL,
			Form: url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {token},
				"client_id":     {p.OAuth().ClientID},
			},
			BasicAuth: true,
		}
	})
}

func (p *Provider) me(ctx context.Context, accessToken string) (*gotwitter.UserObj, error) {
	client := &gotwitter.Client{
		Authorizer: bearer(accessToken),
		Client:     p.Runtime().HTTPClient,
		Host:       p.URL(APIURL),
	}
	res, err := client.AuthUserLookup(ctx, gotwitter.UserLookupOpts{
		UserFields: []gotwitter.UserField{
			gotwitter.UserFieldID,
			gotwitter.UserFieldName,
			gotwitter.UserFieldUserName,
			gotwitter.UserFieldProfileImageURL,
		},
	})
	if err != nil {
		var apiErr *gotwitter.ErrorResponse
		if errors.As(err, &apiErr) {
			message := "Failed to get Twitter user info"
			if detail := strings.TrimSpace(apiErr.Detail); detail != "" {
				message += ": " + detail
			} else if title := strings.TrimSpace(apiErr.Title); title != "" {
				message += ": " + title
			}
			return nil, core.PlatformError(message, apiErr.StatusCode, nil)
		}
		return nil, core.MapError(err)
	}
	if res == nil || res.Raw == nil || len(res.Raw.Users) == 0 || res.Raw.Users[0] == nil {
		return nil, core.PlatformError("Failed to get Twitter user info: response missing user", http.StatusOK, nil)
	}
	return res.Raw.Users[0], nil
}

func (p *Provider) Publish(_ context.Context, _ core.PostContent) core.Result[[]core.PublishOutcome] {
	return providers.Unsupported("Twitter publishing is not supported")
}

var _ core.Provider = (*Provider)(nil)
