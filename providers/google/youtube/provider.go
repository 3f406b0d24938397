package youtube

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/goliatone/go-sotsial/providers/google/common"
	"github.com/samber/lo"
	"google.golang.org/api/googleapi"
	ytapi "google.golang.org/api/youtube/v3"
)

const (
	shortsTag      = "#shorts"
	shortsLabel    = "#Shorts"
	videoMediaType = "video/mp4"
)

type Config = providers.Config

// Provider uploads videos to every connected channel. Authorization is the
// Google flow with upload scopes.
type Provider struct {
	*providers.Base
	auth common.Auth
}

func DefaultScopes() []string {
	return common.PublishScopes()
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.Base(core.PlatformYouTube, common.AuthURL, providers.ScopeDelimiterSpace, DefaultScopes(), common.AuthParams())
	return &Provider{Base: base, auth: common.Auth{Base: base}}, nil
}

func (p *Provider) Exchange(ctx context.Context, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	startedAt := time.Now()
	results, err := p.auth.Exchange(ctx, req)
	return providers.Finish(ctx, p.Base, "exchange", startedAt, results, err)
}

func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	startedAt := time.Now()
	result, err := p.auth.Refresh(ctx, token)
	return providers.Finish(ctx, p.Base, "refresh", startedAt, result, err)
}

// Publish downloads the video once and uploads it to each channel in turn.
func (p *Provider) Publish(ctx context.Context, content core.PostContent) core.Result[[]core.PublishOutcome] {
	post, err := providers.ExpectContent[core.YouTubePost](core.PlatformYouTube, content)
	if err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}
	if err := post.Validate(); err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}
	if len(p.Accounts()) == 0 {
		return p.PublishEach(ctx, nil)
	}

	video, err := p.download(ctx, post.Media[0].URL)
	if err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}
	metadata := BuildVideo(post)

	return p.PublishEach(ctx, func(ctx context.Context, account core.Account) (core.PublishOutcome, error) {
		if strings.TrimSpace(account.AccessToken) == "" {
			return core.PublishOutcome{}, core.BadInputError("No access token found")
		}
		service, err := p.auth.Service(ctx, account.AccessToken)
		if err != nil {
			return core.PublishOutcome{}, err
		}
		call := service.Videos.Insert([]string{"snippet", "status"}, metadata).
			Media(bytes.NewReader(video), googleapi.ContentType(videoMediaType), googleapi.ChunkSize(0)).
			Context(ctx)
		if notify := post.Options.NotifySubscribers; notify != nil {
			call = call.NotifySubscribers(*notify)
		}
		uploaded, err := call.Do()
		if err != nil {
			return core.PublishOutcome{}, common.APIError(err, "Failed to upload video")
		}
		if uploaded == nil || strings.TrimSpace(uploaded.Id) == "" {
			return core.PublishOutcome{}, core.PlatformError("Failed to upload video: response missing id", http.StatusOK, nil)
		}
		return core.PublishOutcome{PostID: uploaded.Id, AccountID: account.ID}, nil
	})
}

func (p *Provider) download(ctx context.Context, rawURL string) ([]byte, error) {
	res, err := p.FetchMedia(ctx, rawURL, "Failed to fetch video")
	if err != nil {
		return nil, err
	}
	if len(res.Body) == 0 {
		return nil, core.PlatformError("Failed to fetch video: empty body", res.StatusCode, nil)
	}
	return res.Body, nil
}

// BuildVideo maps a post onto the upload metadata. Shorts get the #Shorts
// marker in title, description and tags unless already present.
func BuildVideo(post core.YouTubePost) *ytapi.Video {
	title := post.Text
	description := post.Description
	tags := append([]string(nil), post.Options.Tags...)

	if post.Options.Type == core.YouTubeShort {
		if !strings.Contains(strings.ToLower(title), shortsTag) {
			title += " " + shortsLabel
		}
		if !strings.Contains(strings.ToLower(description), shortsTag) {
			if description != "" {
				description += "\n\n"
			}
			description += shortsLabel
		}
		if !lo.Contains(tags, "shorts") && !lo.Contains(tags, "Shorts") {
			tags = append(tags, "Shorts")
		}
	}

	privacy := post.Privacy
	if privacy == "" {
		privacy = "public"
	}
	return &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       title,
			Description: description,
			Tags:        tags,
			CategoryId:  post.Options.CategoryID,
		},
		Status: &ytapi.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: post.Options.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
}

var _ core.Provider = (*Provider)(nil)
