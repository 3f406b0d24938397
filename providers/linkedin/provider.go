package linkedin

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/golang-jwt/jwt/v4"
)

const (
	AuthURL  = "https://www.linkedin.com/oauth/v2/authorization"
	TokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
)

type Config = providers.Config

// Provider connects LinkedIn members through OpenID Connect. Publishing is
// not available.
type Provider struct {
	*providers.Base
}

func DefaultScopes() []string {
	return []string{"openid", "profile", "email", "w_member_social"}
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		Base: cfg.Base(core.PlatformLinkedIn, AuthURL, providers.ScopeDelimiterSpace, DefaultScopes(), nil),
	}, nil
}

// idTokenClaims are the OpenID claims LinkedIn signs into id_token.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Locale        any    `json:"locale"`
}

// Exchange trades the code for tokens and reads the member profile from the
// id_token claims. LinkedIn does not echo the csrf token back.
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
		},
		Failure: "Failed to exchange LinkedIn code",
	})
	if err != nil {
		return nil, err
	}

	// LinkedIn answers with a comma separated scope list.
	granted := providers.SplitScopes(strings.ReplaceAll(token.Scope, ",", " "), providers.ScopeDelimiterSpace)
	if err := p.RequireGrantedScopes(granted); err != nil {
		return nil, err
	}

	claims, err := decodeIDToken(token.IDToken)
	if err != nil {
		return nil, err
	}

	return []core.ExchangeResult{{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		AccountID:    claims.Subject,
		Expiry:       core.ExpiresIn(p.Now(), token.ExpiresIn),
		Details: &core.AccountDetails{
			Name:      claims.Name,
			AvatarURL: claims.Picture,
		},
	}}, nil
}

func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	oauth := p.OAuth()
	return p.RenewToken(ctx, token, func(token string) providers.TokenRequest {
		return providers.TokenRequest{
			Method: http.MethodPost,
			URL:    TokenURL,
			Form: url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {token},
				"client_id":     {oauth.ClientID},
				"client_secret": {oauth.ClientSecret},
			},
		}
	})
}

// decodeIDToken reads the claims without verifying the signature. The token
// arrives directly from LinkedIn over TLS in the token response.
func decodeIDToken(raw string) (idTokenClaims, error) {
	var claims idTokenClaims
	if strings.TrimSpace(raw) == "" {
		return claims, core.PlatformError("Failed to exchange LinkedIn code: response missing id_token", http.StatusOK, nil)
	}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return claims, core.PlatformError("Failed to decode LinkedIn id_token", http.StatusOK, nil)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return claims, core.PlatformError("LinkedIn id_token carries no subject", http.StatusOK, nil)
	}
	return claims, nil
}

func (p *Provider) Publish(_ context.Context, _ core.PostContent) core.Result[[]core.PublishOutcome] {
	return providers.Unsupported("LinkedIn publishing is not supported")
}

var _ core.Provider = (*Provider)(nil)
