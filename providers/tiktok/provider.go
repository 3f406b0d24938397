package tiktok

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/goliatone/go-sotsial/transport"
	"github.com/samber/lo"
)

const (
	AuthURL = "https://www.tiktok.com/v2/auth/authorize/"
	APIURL  = "https://open.tiktokapis.com"
)

const (
	ScopeVideoPublish    = "video.publish"
	ScopeVideoUpload     = "video.upload"
	ScopeUserInfoBasic   = "user.info.basic"
	ScopeUserInfoProfile = "user.info.profile"
)

const userInfoFields = "open_id,username,avatar_url,display_name"

type Config = providers.Config

type Provider struct {
	*providers.Base
}

func DefaultScopes() []string {
	return []string{ScopeVideoPublish, ScopeVideoUpload, ScopeUserInfoBasic, ScopeUserInfoProfile}
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.Base(core.PlatformTikTok, AuthURL, providers.ScopeDelimiterComma, DefaultScopes(), map[string]string{
		"client_key": strings.TrimSpace(cfg.OAuth.ClientID),
	})
	return &Provider{Base: base}, nil
}

func endpoint(path string) string {
	return APIURL + path
}

// apiError is the error envelope every TikTok v2 response carries. Code
// "ok" means success.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

func (e apiError) failed() bool {
	return e.Code != "" && e.Code != "ok"
}

type userInfoResponse struct {
	Data struct {
		User struct {
			OpenID      string `json:"open_id"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
		} `json:"user"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// Exchange requires the grant's csrf token, which doubles as the PKCE
// verifier. The refresh token lifetime sets the connection expiry.
func (p *Provider) Exchange(ctx context.Context, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	startedAt := time.Now()
	results, err := p.exchange(ctx, req)
	return providers.Finish(ctx, p.Base, "exchange", startedAt, results, err)
}

func (p *Provider) exchange(ctx context.Context, req core.ExchangeRequest) ([]core.ExchangeResult, error) {
	if strings.TrimSpace(req.CSRFToken) == "" {
		return nil, core.CSRFRequiredError(core.PlatformTikTok)
	}
	if err := p.CheckExchange(req); err != nil {
		return nil, err
	}
	oauth := p.OAuth()

	token, err := p.FetchToken(ctx, providers.TokenRequest{
		Method: http.MethodPost,
		URL:    endpoint("/v2/oauth/token/"),
		Form: url.Values{
			"client_key":    {oauth.ClientID},
			"client_secret": {oauth.ClientSecret},
			"grant_type":    {"authorization_code"},
			"redirect_uri":  {oauth.RedirectURI},
			"code":          {req.Code},
			"code_verifier": {req.CSRFToken},
		},
		Failure: "Failed to exchange TikTok code for access token",
	})
	if err != nil {
		return nil, err
	}

	granted := providers.SplitScopes(token.Scope, providers.ScopeDelimiterComma)
	if len(granted) > 0 {
		if err := p.RequireScopes(granted); err != nil {
			return nil, err
		}
	}

	result := core.ExchangeResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		AccountID:    token.OpenID,
		Expiry:       core.ExpiresIn(p.Now(), token.RefreshExpiresIn),
		Details:      &core.AccountDetails{},
	}
	if lo.Contains(granted, ScopeUserInfoProfile) {
		req := transport.WithBearer(
			transport.GetRequest(endpoint("/v2/user/info/"), map[string]string{"fields": userInfoFields}),
			token.AccessToken,
		)
		var info userInfoResponse
		if err := p.CallJSON(ctx, req, "Failed to get TikTok user profile", &info); err != nil {
			return nil, err
		}
		if info.Error.failed() {
			return nil, core.PlatformError("Failed to get TikTok user profile: "+info.Error.Message, http.StatusOK, nil)
		}
		result.Details = &core.AccountDetails{
			Name:      info.Data.User.DisplayName,
			Username:  info.Data.User.Username,
			AvatarURL: info.Data.User.AvatarURL,
		}
		if result.AccountID == "" {
			result.AccountID = info.Data.User.OpenID
		}
	}
	return []core.ExchangeResult{result}, nil
}

// Refresh redeems a refresh token. TikTok may rotate the refresh token.
func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	oauth := p.OAuth()
	return p.RenewToken(ctx, token, func(token string) providers.TokenRequest {
		return providers.TokenRequest{
			Method: http.MethodPost,
			URL:    endpoint("/v2/oauth/token/"),
			Form: url.Values{
				"client_key":    {oauth.ClientID},
				"client_secret": {oauth.ClientSecret},
				"grant_type":    {"refresh_token"},
				"refresh_token": {token},
			},
		}
	})
}

var _ core.Provider = (*Provider)(nil)
