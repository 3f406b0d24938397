package tiktok_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers/devkit"
	"github.com/goliatone/go-sotsial/providers/tiktok"
)

const (
	creatorPath = "/v2/post/publish/creator_info/query/"
	videoPath   = "/v2/post/publish/video/init/"
	photoPath   = "/v2/post/publish/content/init/"
	statusPath  = "/v2/post/publish/status/fetch/"
)

var testOAuth = core.ProviderConfig{
	ClientID:     "tt-client-key",
	ClientSecret: "tt-secret",
	RedirectURI:  "https://app.example/callback/tiktok",
}

func newProvider(t *testing.T, server *devkit.Server, accounts ...core.Account) *tiktok.Provider {
	t.Helper()
	provider, err := tiktok.New(server.Config(testOAuth, accounts...))
	if err != nil {
		t.Fatalf("new tiktok provider: %v", err)
	}
	return provider
}

func creatorInfo() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"creator_username":      "maker",
			"privacy_level_options": []string{"PUBLIC_TO_EVERYONE", "MUTUAL_FOLLOW_FRIENDS", "SELF_ONLY"},
			"comment_disabled":      false,
			"duet_disabled":         true,
			"stitch_disabled":       false,
		},
		"error": map[string]any{"code": "ok", "message": ""},
	}
}

func status(value string) devkit.Handler {
	return devkit.Respond(http.StatusOK, map[string]any{
		"data":  map[string]any{"status": value},
		"error": map[string]any{"code": "ok"},
	})
}

func videoPost() core.TikTokPost {
	return core.TikTokPost{Content: core.Content{
		Text:    "clip",
		Privacy: "public",
		Media:   []core.MediaItem{{URL: "https://cdn.example/clip.mp4", Type: core.MediaVideo}},
	}}
}

func TestProvider_GrantIncludesClientKey(t *testing.T) {
	provider := newProvider(t, devkit.NewServer(t))

	result := provider.Grant(context.Background())
	if !result.OK() {
		t.Fatalf("grant: %v", result.Err())
	}
	parsed, _ := url.Parse(result.Data.URL)
	query := parsed.Query()
	if query.Get("client_key") != "tt-client-key" {
		t.Fatalf("expected client_key, got %v", query)
	}
	if query.Get("state") == "" || query.Get("state") != result.Data.CSRFToken {
		t.Fatalf("expected state to carry the csrf token")
	}
}

func TestProvider_ExchangeRequiresCSRFToken(t *testing.T) {
	server := devkit.NewServer(t)
	provider := newProvider(t, server)

	result := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "code"})
	if result.OK() {
		t.Fatalf("expected failure without csrf token")
	}
	if result.Error.Message != "CSRF token is required for TikTok authorisation." {
		t.Fatalf("unexpected message %q", result.Error.Message)
	}
	if result.Error.Code != core.ErrorCSRFRequired {
		t.Fatalf("expected %s, got %s", core.ErrorCSRFRequired, result.Error.Code)
	}
	if server.Count() != 0 {
		t.Fatalf("expected no calls, got %d", server.Count())
	}
}

func TestProvider_ExchangeReadsProfile(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v2/oauth/token/", http.StatusOK, map[string]any{
		"access_token":       "act",
		"refresh_token":      "rft",
		"open_id":            "open-1",
		"scope":              "user.info.profile,video.upload,video.publish,user.info.basic",
		"expires_in":         86400,
		"refresh_expires_in": 31536000,
		"token_type":         "Bearer",
	})
	server.JSON(http.MethodGet, "/v2/user/info/", http.StatusOK, map[string]any{
		"data": map[string]any{"user": map[string]any{
			"open_id": "open-1", "username": "maker", "display_name": "Maker", "avatar_url": "https://cdn.example/m.png",
		}},
		"error": map[string]any{"code": "ok"},
	})
	provider := newProvider(t, server)

	result := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "code", CSRFToken: "verifier"})
	if !result.OK() {
		t.Fatalf("exchange: %v", result.Err())
	}
	got := result.Data[0]
	if got.AccessToken != "act" || got.RefreshToken != "rft" || got.AccountID != "open-1" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Details.Username != "maker" || got.Details.Name != "Maker" {
		t.Fatalf("unexpected details %+v", got.Details)
	}
	form := server.CallsTo(http.MethodPost, "/v2/oauth/token/")[0].Form()
	if form.Get("client_key") != "tt-client-key" || form.Get("code_verifier") != "verifier" {
		t.Fatalf("unexpected token form %v", form)
	}
	info := server.CallsTo(http.MethodGet, "/v2/user/info/")[0]
	if info.Header.Get("Authorization") != "Bearer act" || info.Query.Get("fields") != "open_id,username,avatar_url,display_name" {
		t.Fatalf("unexpected user info call %+v", info)
	}
}

func TestProvider_ExchangeRejectsPartialGrant(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v2/oauth/token/", http.StatusOK, map[string]any{
		"access_token": "act", "open_id": "open-1", "scope": "user.info.basic",
	})
	provider := newProvider(t, server)

	result := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "code", CSRFToken: "verifier"})
	if result.OK() || result.Error.Code != core.ErrorScopeMismatch {
		t.Fatalf("expected scope mismatch, got %+v", result.Error)
	}
}

func TestProvider_PublishRejectsMixedMediaWithoutCalls(t *testing.T) {
	server := devkit.NewServer(t)
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	result := provider.Publish(context.Background(), core.TikTokPost{Content: core.Content{
		Privacy: "public",
		Media: []core.MediaItem{
			{URL: "https://cdn.example/a.jpg", Type: core.MediaImage},
			{URL: "https://cdn.example/b.mp4", Type: core.MediaVideo},
		},
	}})
	if result.OK() {
		t.Fatalf("expected mixed media failure")
	}
	if result.Error.Message != "TikTok posts must contain either all images or all videos, not a mix of both" {
		t.Fatalf("unexpected message %q", result.Error.Message)
	}
	if server.Count() != 0 {
		t.Fatalf("expected zero calls, got %d", server.Count())
	}
}

func TestProvider_PublishPollsUntilSuccess(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, creatorInfo())
	server.JSON(http.MethodPost, videoPath, http.StatusOK, map[string]any{
		"data": map[string]any{"publish_id": "pub-1"}, "error": map[string]any{"code": "ok"},
	})
	script := devkit.Repeat(29, status("PROCESSING_DOWNLOAD"))
	script = append(script, status("SUCCESS"))
	server.Handle(http.MethodPost, statusPath, script...)
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	post := videoPost()
	allowComments := false
	post.Options.Safety.AllowComments = &allowComments
	result := provider.Publish(context.Background(), post)
	if !result.OK() {
		t.Fatalf("publish: %v", result.Err())
	}
	if result.Data[0].PostID != "pub-1" {
		t.Fatalf("expected publish id as post id, got %q", result.Data[0].PostID)
	}
	if calls := len(server.CallsTo(http.MethodPost, statusPath)); calls != 30 {
		t.Fatalf("expected 30 status fetches, got %d", calls)
	}
	if server.Sleeper.Count() != 30 {
		t.Fatalf("expected a wait before each fetch, got %d", server.Sleeper.Count())
	}

	init := server.CallsTo(http.MethodPost, videoPath)[0]
	if init.Header.Get("Authorization") != "Bearer act" {
		t.Fatalf("expected bearer account token")
	}
	body := init.JSON()
	info := body["post_info"].(map[string]any)
	if info["privacy_level"] != "PUBLIC_TO_EVERYONE" || info["disable_comment"] != true || info["disable_duet"] != true || info["disable_stitch"] != false {
		t.Fatalf("unexpected post_info %v", info)
	}
	source := body["source_info"].(map[string]any)
	if source["source"] != "PULL_FROM_URL" || source["video_url"] != "https://cdn.example/clip.mp4" {
		t.Fatalf("unexpected source_info %v", source)
	}
	if server.CallsTo(http.MethodPost, statusPath)[0].JSON()["publish_id"] != "pub-1" {
		t.Fatalf("expected status fetch for pub-1")
	}
}

func TestProvider_PublishSucceedsOnThirtiethAttempt(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, creatorInfo())
	server.JSON(http.MethodPost, videoPath, http.StatusOK, map[string]any{"data": map[string]any{"publish_id": "pub-2"}, "error": map[string]any{"code": "ok"}})
	script := devkit.Repeat(29, status("PROCESSING"))
	script = append(script, status("SUCCESS"))
	server.Handle(http.MethodPost, statusPath, script...)
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	result := provider.Publish(context.Background(), videoPost())
	if !result.OK() {
		t.Fatalf("publish: %v", result.Err())
	}
}

func TestProvider_PublishGivesUpAfterThirtyAttempts(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, creatorInfo())
	server.JSON(http.MethodPost, videoPath, http.StatusOK, map[string]any{"data": map[string]any{"publish_id": "pub-3"}, "error": map[string]any{"code": "ok"}})
	server.Handle(http.MethodPost, statusPath, status("PROCESSING"))
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	result := provider.Publish(context.Background(), videoPost())
	if result.OK() {
		t.Fatalf("expected failure when processing never ends")
	}
	if calls := len(server.CallsTo(http.MethodPost, statusPath)); calls != tiktok.MaxPollAttempts {
		t.Fatalf("expected exactly %d status fetches, got %d", tiktok.MaxPollAttempts, calls)
	}
	if len(result.Error.Details) != 1 || result.Error.Details[0].AccountID != "open-1" {
		t.Fatalf("expected a per account failure, got %+v", result.Error)
	}
}

func TestProvider_PublishTreatsOtherTerminalStatusAsFailure(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, creatorInfo())
	server.JSON(http.MethodPost, videoPath, http.StatusOK, map[string]any{"data": map[string]any{"publish_id": "pub-5"}, "error": map[string]any{"code": "ok"}})
	server.Handle(http.MethodPost, statusPath, status("PROCESSING_UPLOAD"), status("PUBLISH_COMPLETE"))
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	result := provider.Publish(context.Background(), videoPost())
	if result.OK() {
		t.Fatalf("expected failure for a status other than SUCCESS")
	}
	if calls := len(server.CallsTo(http.MethodPost, statusPath)); calls != 2 {
		t.Fatalf("expected polling to stop at the first terminal status, got %d fetches", calls)
	}
	if len(result.Error.Details) != 1 || result.Error.Details[0].Hint != "TikTok reported status PUBLISH_COMPLETE" {
		t.Fatalf("unexpected failure %+v", result.Error)
	}
}

func TestProvider_PublishPhotoPost(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, creatorInfo())
	server.JSON(http.MethodPost, photoPath, http.StatusOK, map[string]any{"data": map[string]any{"publish_id": "pub-4"}, "error": map[string]any{"code": "ok"}})
	server.Handle(http.MethodPost, statusPath, status("SUCCESS"))
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	result := provider.Publish(context.Background(), core.TikTokPost{Content: core.Content{
		Text:    "album",
		Privacy: "mutual",
		Media: []core.MediaItem{
			{URL: "https://cdn.example/1.jpg", Type: core.MediaImage},
			{URL: "https://cdn.example/2.jpg", Type: core.MediaImage},
		},
	}})
	if !result.OK() {
		t.Fatalf("publish photos: %v", result.Err())
	}
	body := server.CallsTo(http.MethodPost, photoPath)[0].JSON()
	if body["post_mode"] != "DIRECT_POST" || body["media_type"] != "PHOTO" {
		t.Fatalf("unexpected photo init %v", body)
	}
	source := body["source_info"].(map[string]any)
	if source["photo_cover_index"] != float64(0) || len(source["photo_images"].([]any)) != 2 {
		t.Fatalf("unexpected source_info %v", source)
	}
}

func TestProvider_PublishRejectsCommercialPrivatePost(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, creatorInfo())
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	post := videoPost()
	post.Privacy = "private"
	post.Options.Promotion.IsBrandedContent = true
	result := provider.Publish(context.Background(), post)
	if result.OK() {
		t.Fatalf("expected failure")
	}
	detail := result.Error.Details[0]
	if detail.Message != "Commercial content cannot be set to private visibility" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(server.CallsTo(http.MethodPost, videoPath)) != 0 {
		t.Fatalf("expected no init call")
	}
}

func TestProvider_PublishRejectsDisallowedPrivacy(t *testing.T) {
	server := devkit.NewServer(t)
	info := creatorInfo()
	info["data"].(map[string]any)["privacy_level_options"] = []string{"SELF_ONLY"}
	server.JSON(http.MethodPost, creatorPath, http.StatusOK, info)
	provider := newProvider(t, server, core.Account{ID: "open-1", AccessToken: "act"})

	result := provider.Publish(context.Background(), videoPost())
	if result.OK() || result.Error.Details[0].Message != "Privacy level PUBLIC_TO_EVERYONE is not allowed for this creator" {
		t.Fatalf("unexpected result %+v", result.Error)
	}
}

func TestProvider_RefreshRotatesTokens(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v2/oauth/token/", http.StatusOK, map[string]any{
		"access_token":       "act-2",
		"refresh_token":      "rft-2",
		"open_id":            "open-1",
		"expires_in":         86400,
		"refresh_expires_in": 31536000,
		"token_type":         "Bearer",
	})
	provider := newProvider(t, server)

	result := provider.Refresh(context.Background(), "rft-1")
	if !result.OK() {
		t.Fatalf("refresh: %v", result.Err())
	}
	if result.Data.AccessToken != "act-2" || result.Data.RefreshToken != "rft-2" || result.Data.Expiry.IsZero() {
		t.Fatalf("unexpected refresh result %+v", result.Data)
	}
	form := server.CallsTo(http.MethodPost, "/v2/oauth/token/")[0].Form()
	want := url.Values{
		"client_key":    {"tt-client-key"},
		"client_secret": {"tt-secret"},
		"grant_type":    {"refresh_token"},
		"refresh_token": {"rft-1"},
	}
	for key := range want {
		if form.Get(key) != want.Get(key) {
			t.Fatalf("expected %s=%q, got %q", key, want.Get(key), form.Get(key))
		}
	}
}

func TestProvider_RefreshReportsTokenError(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v2/oauth/token/", http.StatusOK, map[string]any{
		"error":             "invalid_grant",
		"error_description": "Refresh token is invalid or expired.",
	})
	provider := newProvider(t, server)

	result := provider.Refresh(context.Background(), "rft-1")
	if result.OK() {
		t.Fatalf("expected refresh failure")
	}
	if result.Error.Message != "Failed to refresh TikTok access token: Refresh token is invalid or expired." {
		t.Fatalf("unexpected message %q", result.Error.Message)
	}
}
