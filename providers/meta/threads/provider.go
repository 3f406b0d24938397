package threads

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	meta "github.com/goliatone/go-sotsial/providers/meta/common"
)

const AuthURL = "https://threads.net/oauth/authorize"

const (
	ScopeBasic          = "threads_basic"
	ScopeContentPublish = "threads_content_publish"
)

const profileFields = "id,name,username,threads_profile_picture_url"

type Config = providers.Config

type Provider struct {
	*providers.Base
	containers meta.Containers
}

func DefaultScopes() []string {
	return []string{ScopeBasic, ScopeContentPublish}
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.Base(core.PlatformThreads, AuthURL, providers.ScopeDelimiterComma, DefaultScopes(), nil)
	version := base.Runtime().Settings.Meta.ThreadsVersion
	return &Provider{
		Base: base,
		containers: meta.Containers{
			Base:        base,
			Endpoint:    meta.Versioned(meta.ThreadsGraphURL, version, ""),
			CreatePath:  "threads",
			PublishPath: "threads_publish",
		},
	}, nil
}

// Exchange trades the code for a short lived token, swaps it for a long
// lived one and reads the profile. The long lived token is returned as the
// access token; no refresh token is issued.
func (p *Provider) Exchange(ctx context.Context, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	startedAt := time.Now()
	results, err := p.exchange(ctx, req)
	return providers.Finish(ctx, p.Base, "exchange", startedAt, results, err)
}

func (p *Provider) exchange(ctx context.Context, req core.ExchangeRequest) ([]core.ExchangeResult, error) {
	if strings.TrimSpace(req.CSRFToken) == "" {
		core.LogWarn(ctx, p.Logger(), "CSRF token may be required for Threads authorisation.", nil)
	}
	if err := p.CheckExchange(req); err != nil {
		return nil, err
	}
	oauth := p.OAuth()

	form := url.Values{
		"client_id":     {oauth.ClientID},
		"client_secret": {oauth.ClientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {oauth.RedirectURI},
		"code":          {req.Code},
	}
	if req.CSRFToken != "" {
		form.Set("code_verifier", req.CSRFToken)
	}
	short, err := p.FetchToken(ctx, providers.TokenRequest{
		Method:  http.MethodPost,
		URL:     meta.ThreadsGraphURL + "/oauth/access_token",
		Form:    form,
		Failure: "Failed to exchange Threads code for access token",
	})
	if err != nil {
		return nil, err
	}

	long, err := meta.LongLivedToken(ctx, p.Base, meta.ThreadsGraphURL+"/access_token", "th_exchange_token", short.AccessToken)
	if err != nil {
		return nil, err
	}

	if validation := p.Validate(ctx, long.AccessToken, oauth.Scopes); !validation.OK() {
		return nil, validation.Error
	}

	profile, err := meta.FetchProfile(ctx, p.Base, meta.ThreadsGraphURL+"/me", profileFields, long.AccessToken, "Failed to get Threads user id")
	if err != nil {
		return nil, err
	}

	return []core.ExchangeResult{{
		AccessToken: long.AccessToken,
		AccountID:   profile.ID,
		Expiry:      core.ExpiresIn(p.Now(), long.ExpiresIn),
		Details:     profile.Details(),
	}}, nil
}

// Refresh extends the long lived access token.
func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	return meta.RefreshLongLived(ctx, p.Base, meta.ThreadsGraphURL+"/refresh_access_token", "th_refresh_token", token)
}

// Publish stages a text, single media or carousel container per account and
// publishes it.
func (p *Provider) Publish(ctx context.Context, content core.PostContent) core.Result[[]core.PublishOutcome] {
	post, err := providers.ExpectContent[core.ThreadsPost](core.PlatformThreads, content)
	if err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}
	if err := post.Validate(); err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}

	return p.PublishEach(ctx, func(ctx context.Context, account core.Account) (core.PublishOutcome, error) {
		containerID, err := p.stage(ctx, account, post)
		if err != nil {
			return core.PublishOutcome{}, err
		}
		return p.containers.Publish(ctx, account, containerID, nil)
	})
}

func (p *Provider) stage(ctx context.Context, account core.Account, post core.ThreadsPost) (string, error) {
	if len(post.Media) > 1 {
		return p.containers.Carousel(ctx, account, post.Media, map[string]string{"text": post.Text})
	}
	params := map[string]string{"media_type": "TEXT"}
	if len(post.Media) == 1 {
		params = meta.MediaParams(post.Media[0])
	}
	params["text"] = post.Text
	return p.containers.Create(ctx, account, params, "Failed to create single container")
}

var _ core.Provider = (*Provider)(nil)
