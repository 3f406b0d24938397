package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/goliatone/go-sotsial/transport"
	"github.com/samber/lo"
)

const (
	// PollInterval is the wait before every status fetch.
	PollInterval = 10 * time.Second
	// MaxPollAttempts bounds the status loop to five minutes.
	MaxPollAttempts = 30
)

const (
	StatusProcessing = "PROCESSING"
	StatusSuccess    = "SUCCESS"
)

type creatorInfoResponse struct {
	Data struct {
		CreatorUsername         string   `json:"creator_username"`
		PrivacyLevelOptions     []string `json:"privacy_level_options"`
		CommentDisabled         bool     `json:"comment_disabled"`
		DuetDisabled            bool     `json:"duet_disabled"`
		StitchDisabled          bool     `json:"stitch_disabled"`
		MaxVideoPostDurationSec int      `json:"max_video_post_duration_sec"`
	} `json:"data"`
	Error apiError `json:"error"`
}

type postInfo struct {
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	PrivacyLevel       string `json:"privacy_level"`
	DisableComment     bool   `json:"disable_comment"`
	DisableDuet        bool   `json:"disable_duet"`
	DisableStitch      bool   `json:"disable_stitch"`
	BrandContentToggle bool   `json:"brand_content_toggle"`
	BrandOrganicToggle bool   `json:"brand_organic_toggle"`
}

type sourceInfo struct {
	Source          string   `json:"source"`
	VideoURL        string   `json:"video_url,omitempty"`
	PhotoCoverIndex *int     `json:"photo_cover_index,omitempty"`
	PhotoImages     []string `json:"photo_images,omitempty"`
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
	PostMode   string     `json:"post_mode,omitempty"`
	MediaType  string     `json:"media_type,omitempty"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
	Error apiError `json:"error"`
}

type statusResponse struct {
	Data struct {
		Status     string `json:"status"`
		FailReason string `json:"fail_reason"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// Publish queries each creator's posting constraints, initializes a pull
// from URL upload and polls until TikTok finishes processing it.
func (p *Provider) Publish(ctx context.Context, content core.PostContent) core.Result[[]core.PublishOutcome] {
	post, err := providers.ExpectContent[core.TikTokPost](core.PlatformTikTok, content)
	if err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}
	if err := post.Validate(); err != nil {
		return core.Fail[[]core.PublishOutcome](err)
	}

	return p.PublishEach(ctx, func(ctx context.Context, account core.Account) (core.PublishOutcome, error) {
		publishID, err := p.publishAccount(ctx, account, post)
		if err != nil {
			return core.PublishOutcome{}, err
		}
		return core.PublishOutcome{PostID: publishID, AccountID: account.ID}, nil
	})
}

func (p *Provider) publishAccount(ctx context.Context, account core.Account, post core.TikTokPost) (string, error) {
	if strings.TrimSpace(account.AccessToken) == "" {
		return "", core.BadInputError("No access token found")
	}

	creator, err := p.creatorInfo(ctx, account)
	if err != nil {
		return "", err
	}

	info, err := buildPostInfo(post, creator)
	if err != nil {
		return "", err
	}

	payload := initRequest{PostInfo: info}
	path := "/v2/post/publish/video/init/"
	failure := "Failed to create video post"
	if post.Kind() == core.TikTokImage {
		cover := 0
		path = "/v2/post/publish/content/init/"
		failure = "Failed to create photo post"
		payload.PostInfo.Description = post.Text
		payload.PostMode = "DIRECT_POST"
		payload.MediaType = "PHOTO"
		payload.SourceInfo = sourceInfo{
			Source:          "PULL_FROM_URL",
			PhotoCoverIndex: &cover,
			PhotoImages:     lo.Map(post.Media, func(item core.MediaItem, _ int) string { return item.URL }),
		}
	} else {
		payload.SourceInfo = sourceInfo{Source: "PULL_FROM_URL", VideoURL: post.Media[0].URL}
	}

	req, err := transport.JSONRequest(http.MethodPost, endpoint(path), payload)
	if err != nil {
		return "", err
	}
	var created initResponse
	if err := p.CallJSON(ctx, transport.WithBearer(req, account.AccessToken), failure, &created); err != nil {
		return "", err
	}
	if created.Error.failed() {
		return "", core.PlatformError(failure+": "+created.Error.Message, http.StatusOK, nil)
	}
	if created.Data.PublishID == "" {
		return "", core.PlatformError("Failed to get publish ID", http.StatusOK, nil)
	}

	if err := p.awaitPublish(ctx, account, created.Data.PublishID); err != nil {
		return "", err
	}
	return created.Data.PublishID, nil
}

func (p *Provider) creatorInfo(ctx context.Context, account core.Account) (creatorInfoResponse, error) {
	req, err := transport.JSONRequest(http.MethodPost, endpoint("/v2/post/publish/creator_info/query/"), map[string]any{})
	if err != nil {
		return creatorInfoResponse{}, err
	}
	var creator creatorInfoResponse
	if err := p.CallJSON(ctx, transport.WithBearer(req, account.AccessToken), "Failed to get creator info", &creator); err != nil {
		return creatorInfoResponse{}, err
	}
	if creator.Error.Code != "ok" {
		return creatorInfoResponse{}, core.WithHint(
			core.PlatformError("Creator cannot post more content at this time", http.StatusOK, nil),
			creator.Error.Message,
		)
	}
	return creator, nil
}

// buildPostInfo resolves privacy and interaction settings against what the
// creator allows.
func buildPostInfo(post core.TikTokPost, creator creatorInfoResponse) (postInfo, error) {
	privacy := core.TikTokPrivacyLevels[post.Privacy]
	if !lo.Contains(creator.Data.PrivacyLevelOptions, privacy) {
		return postInfo{}, core.BadInputError(fmt.Sprintf("Privacy level %s is not allowed for this creator", privacy))
	}
	promotion := post.Options.Promotion
	if promotion.Commercial() && privacy == core.TikTokPrivacyLevels["private"] {
		return postInfo{}, core.WithHint(
			core.BadInputError("Commercial content cannot be set to private visibility"),
			"Set the post to public or mutual to disclose commercial content.",
		)
	}

	safety := post.Options.Safety
	return postInfo{
		Title:              post.Text,
		PrivacyLevel:       privacy,
		DisableComment:     disabled(safety.AllowComments) || creator.Data.CommentDisabled,
		DisableDuet:        disabled(safety.AllowDuet) || creator.Data.DuetDisabled,
		DisableStitch:      disabled(safety.AllowStitch) || creator.Data.StitchDisabled,
		BrandContentToggle: promotion.IsBrandedContent,
		BrandOrganicToggle: promotion.IsYourBrandContent,
	}, nil
}

func disabled(allow *bool) bool {
	return allow != nil && !*allow
}

// awaitPublish polls the status endpoint at most MaxPollAttempts times,
// sleeping PollInterval before each attempt. Failed fetches still count as
// attempts.
func (p *Provider) awaitPublish(ctx context.Context, account core.Account, publishID string) error {
	status := StatusProcessing
	for attempt := 0; attempt < MaxPollAttempts && isProcessing(status); attempt++ {
		if err := p.Runtime().Sleep(ctx, PollInterval); err != nil {
			return core.MapError(err)
		}

		req, err := transport.JSONRequest(http.MethodPost, endpoint("/v2/post/publish/status/fetch/"), map[string]string{
			"publish_id": publishID,
		})
		if err != nil {
			return err
		}
		var fetched statusResponse
		if err := p.CallJSON(ctx, transport.WithBearer(req, account.AccessToken), "Failed to fetch publish status", &fetched); err != nil {
			core.LogDebug(ctx, p.Logger(), "tiktok status fetch failed", map[string]any{
				"account_id": account.ID,
				"publish_id": publishID,
				"attempt":    attempt + 1,
				"error":      err.Error(),
			})
			continue
		}
		if fetched.Data.Status != "" {
			status = fetched.Data.Status
		}
		if status == "FAILED" && fetched.Data.FailReason != "" {
			status = status + ": " + fetched.Data.FailReason
		}
	}

	if status == StatusSuccess {
		return nil
	}
	err := core.PlatformError(core.MessagePublishFailed, http.StatusOK, nil)
	return core.WithHint(err, "TikTok reported status "+status)
}

func isProcessing(status string) bool {
	return strings.HasPrefix(status, StatusProcessing)
}
