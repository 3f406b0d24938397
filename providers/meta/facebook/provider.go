package facebook

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	meta "github.com/goliatone/go-sotsial/providers/meta/common"
	"github.com/goliatone/go-sotsial/transport"
)

const (
	ScopePagesShowList       = "pages_show_list"
	ScopePublishVideo        = "publish_video"
	ScopePagesManagePosts    = "pages_manage_posts"
	ScopePagesReadEngagement = "pages_read_engagement"
	ScopeBusinessManagement  = "business_management"
)

const (
	RuploadURL = "https://rupload.facebook.com"

	pageFields = "id,name,access_token,picture,username"

	// Page tokens obtained from a short lived user token carry no expires_in.
	defaultPageTokenTTL = 90 * 24 * time.Hour
)

type Config = providers.Config

// Provider publishes to Facebook Pages. Accounts are pages, each with its
// own page access token.
type Provider struct {
	*providers.Base
	version string
}

func DefaultScopes() []string {
	return []string{
		ScopePagesShowList,
		ScopePublishVideo,
		ScopePagesManagePosts,
		ScopePagesReadEngagement,
		ScopeBusinessManagement,
	}
}

func AuthURL(version string) string {
	return "https://www.facebook.com/" + strings.Trim(version, "/") + "/dialog/oauth"
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	version := cfg.Runtime.Normalize().Settings.Meta.GraphVersion
	base := cfg.Base(core.PlatformFacebook, AuthURL(version), providers.ScopeDelimiterComma, DefaultScopes(), nil)
	return &Provider{Base: base, version: version}, nil
}

func (p *Provider) graph(path string) string {
	return meta.Versioned(meta.GraphURL, p.version, path)
}

// Validate introspects the token with debug_token.
func (p *Provider) Validate(ctx context.Context, accessToken string, scopes []string) core.Result[core.ValidateResult] {
	return meta.DebugToken(ctx, p.Base, p.version, accessToken, scopes)
}

// Refresh hands the token back unchanged. Page tokens derived from a long
// lived user token have no refresh grant.
func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	startedAt := time.Now()
	if strings.TrimSpace(token) == "" {
		return providers.Finish(ctx, p.Base, "refresh", startedAt, core.RefreshResult{}, core.BadInputError("Refresh token is required"))
	}
	return providers.Finish(ctx, p.Base, "refresh", startedAt, core.RefreshResult{AccessToken: strings.TrimSpace(token)}, nil)
}

type page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	Picture     struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type pagesResponse struct {
	Data []page `json:"data"`
}

// Exchange returns one result per page the authorizing user manages. Each
// carries that page's own token.
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
	token, err := p.FetchToken(ctx, providers.TokenRequest{
		Method:  http.MethodPost,
		URL:     p.graph("oauth/access_token"),
		Form:    form,
		Failure: "Failed to exchange Facebook code for access token",
	})
	if err != nil {
		return nil, err
	}

	if validation := p.Validate(ctx, token.AccessToken, oauth.Scopes); !validation.OK() {
		return nil, validation.Error
	}

	pagesReq := transport.WithBearer(
		transport.GetRequest(p.graph("me/accounts"), map[string]string{"fields": pageFields}),
		token.AccessToken,
	)
	var pages pagesResponse
	if err := p.CallJSON(ctx, pagesReq, "Failed to get Facebook pages", &pages); err != nil {
		return nil, err
	}
	if len(pages.Data) == 0 {
		return nil, core.WithHint(
			core.BadInputError("No Facebook pages found for this account"),
			"Select at least one Page when granting access.",
		)
	}

	expiry := core.ExpiresIn(p.Now(), token.ExpiresIn)
	if expiry.IsZero() {
		expiry = p.Now().Add(defaultPageTokenTTL).UTC()
	}
	results := make([]core.ExchangeResult, 0, len(pages.Data))
	for _, item := range pages.Data {
		results = append(results, core.ExchangeResult{
			AccessToken: item.AccessToken,
			AccountID:   item.ID,
			Expiry:      expiry,
			Details: &core.AccountDetails{
				Name:      item.Name,
				Username:  item.Username,
				AvatarURL: item.Picture.Data.URL,
			},
		})
	}
	return results, nil
}

// Publish dispatches each page to the reel, video or feed flow.
func (p *Provider) Publish(ctx context.Context, content core.PostContent) core.Result[[]core.PublishOutcome] {
	post, err := providers.ExpectContent[core.FacebookPost](core.PlatformFacebook, content)
	if err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}
	if err := post.Validate(); err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}

	return p.PublishEach(ctx, func(ctx context.Context, account core.Account) (core.PublishOutcome, error) {
		if strings.TrimSpace(account.AccessToken) == "" {
			return core.PublishOutcome{}, core.BadInputError("No access token found")
		}
		var (
			postID string
			err    error
		)
		switch post.Kind() {
		case core.FacebookKindReel:
			postID, err = p.publishReel(ctx, account, post)
		case core.FacebookKindVideo:
			postID, err = p.publishVideo(ctx, account, post)
		default:
			postID, err = p.publishFeed(ctx, account, post)
		}
		if err != nil {
			return core.PublishOutcome{}, err
		}
		return core.PublishOutcome{PostID: postID, AccountID: account.ID}, nil
	})
}

type idResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

func (p *Provider) postForm(ctx context.Context, path string, form url.Values, token, failure string, target any) error {
	form.Set("access_token", token)
	return p.CallJSON(ctx, transport.FormRequest(http.MethodPost, p.graph(path), form), failure, target)
}

func schedule(form url.Values, publishAt *time.Time) {
	if publishAt == nil {
		return
	}
	form.Set("published", "false")
	form.Set("scheduled_publish_time", strconv.FormatInt(publishAt.Unix(), 10))
}

var _ core.Provider = (*Provider)(nil)
