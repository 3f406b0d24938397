package instagram

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

const AuthURL = "https://www.instagram.com/oauth/authorize"

const (
	ScopeBusinessBasic          = "instagram_business_basic"
	ScopeBusinessContentPublish = "instagram_business_content_publish"
)

const profileFields = "id,name,username,profile_picture_url"

type Config = providers.Config

type Provider struct {
	*providers.Base
	graphVersion string
	containers   meta.Containers
}

func DefaultScopes() []string {
	return []string{ScopeBusinessBasic, ScopeBusinessContentPublish}
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.Base(core.PlatformInstagram, AuthURL, providers.ScopeDelimiterComma, DefaultScopes(), map[string]string{
		"enable_fb_login":      "0",
		"force_authentication": "1",
	})
	return &Provider{
		Base:         base,
		graphVersion: base.Runtime().Settings.Meta.GraphVersion,
		containers: meta.Containers{
			Base:        base,
			Endpoint:    meta.InstagramGraphURL,
			CreatePath:  "media",
			PublishPath: "media_publish",
		},
	}, nil
}

// Validate introspects the token with debug_token.
func (p *Provider) Validate(ctx context.Context, accessToken string, scopes []string) core.Result[core.ValidateResult] {
	return meta.DebugToken(ctx, p.Base, p.graphVersion, accessToken, scopes)
}

func (p *Provider) Exchange(ctx context.Context, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	startedAt := time.Now()
	results, err := p.exchange(ctx, req)
	return providers.Finish(ctx, p.Base, "exchange", startedAt, results, err)
}

func (p *Provider) exchange(ctx context.Context, req core.ExchangeRequest) ([]core.ExchangeResult, error) {
	if strings.TrimSpace(req.CSRFToken) == "" {
		core.LogWarn(ctx, p.Logger(), "CSRF token may be required for Instagram authorisation.", nil)
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
		URL:     meta.InstagramAPIURL + "/oauth/access_token",
		Form:    form,
		Failure: "Failed to exchange Instagram code for access token",
	})
	if err != nil {
		return nil, err
	}

	long, err := meta.LongLivedToken(ctx, p.Base, meta.InstagramGraphURL+"/access_token", "ig_exchange_token", short.AccessToken)
	if err != nil {
		return nil, err
	}

	if validation := p.Validate(ctx, long.AccessToken, oauth.Scopes); !validation.OK() {
		return nil, validation.Error
	}

	profile, err := meta.FetchProfile(ctx, p.Base,
		meta.Versioned(meta.InstagramGraphURL, p.graphVersion, "me"),
		profileFields, long.AccessToken, "Failed to get Instagram user.")
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
	return meta.RefreshLongLived(ctx, p.Base, meta.InstagramGraphURL+"/refresh_access_token", "ig_refresh_token", token)
}

// Publish stages a feed, reel or story container per account and publishes it.
func (p *Provider) Publish(ctx context.Context, content core.PostContent) core.Result[[]core.PublishOutcome] {
	post, err := providers.ExpectContent[core.InstagramPost](core.PlatformInstagram, content)
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
		return p.containers.Publish(ctx, account, containerID, publishParams(post.Kind()))
	})
}

// publishParams repeats the container media type on media_publish for reels
// and stories.
func publishParams(kind core.InstagramPostType) map[string]string {
	switch kind {
	case core.InstagramReel:
		return map[string]string{"media_type": "REELS"}
	case core.InstagramStory:
		return map[string]string{"media_type": "STORIES"}
	}
	return nil
}

func (p *Provider) stage(ctx context.Context, account core.Account, post core.InstagramPost) (string, error) {
	kind := post.Kind()
	if kind == core.InstagramFeed && len(post.Media) > 1 {
		return p.containers.Carousel(ctx, account, post.Media, map[string]string{"caption": post.Text})
	}

	params := map[string]string{}
	media := post.Media[0]
	if media.Type == core.MediaVideo {
		params["media_type"] = "VIDEO"
		params["video_url"] = media.URL
	} else {
		params["image_url"] = media.URL
	}
	switch kind {
	case core.InstagramReel:
		params["media_type"] = "REELS"
	case core.InstagramStory:
		params["media_type"] = "STORIES"
	}
	if kind != core.InstagramStory {
		params["caption"] = post.Text
	}
	return p.containers.Create(ctx, account, params, "Failed to create single container")
}

var _ core.Provider = (*Provider)(nil)
