package core

import (
	"strings"
	"testing"
)

func images(n int) []MediaItem {
	out := make([]MediaItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MediaItem{URL: "https://cdn.example.com/" + strings.Repeat("i", i+1) + ".jpg", Type: MediaImage})
	}
	return out
}

func TestPostContentFor_MergesSharedFields(t *testing.T) {
	post := Post{
		Content: Content{Text: "shared", Media: images(2), Privacy: "public"},
		TikTok:  &TikTokPost{Content: Content{Text: "tiktok text"}},
	}

	threads, ok := post.ContentFor(PlatformThreads).(ThreadsPost)
	if !ok {
		t.Fatalf("expected ThreadsPost variant")
	}
	if threads.Text != "shared" || len(threads.Media) != 2 {
		t.Fatalf("expected shared fields on threads, got %+v", threads.Content)
	}

	tiktok := post.ContentFor(PlatformTikTok).(TikTokPost)
	if tiktok.Text != "tiktok text" {
		t.Fatalf("expected override text, got %q", tiktok.Text)
	}
	if len(tiktok.Media) != 2 || tiktok.Privacy != "public" {
		t.Fatalf("expected shared media and privacy, got %+v", tiktok.Content)
	}

	for _, platform := range Platforms() {
		content := post.ContentFor(platform)
		if content == nil || content.Platform() != platform {
			t.Fatalf("expected variant for %s", platform)
		}
	}
}

func TestPostContentFor_EmptyOverrideMediaIsKept(t *testing.T) {
	post := Post{
		Content:   Content{Text: "shared", Media: images(1)},
		Instagram: &InstagramPost{Content: Content{Media: []MediaItem{}}, Type: InstagramStory},
	}
	instagram := post.ContentFor(PlatformInstagram).(InstagramPost)
	if len(instagram.Media) != 0 {
		t.Fatalf("expected explicit empty media to win, got %d items", len(instagram.Media))
	}
}

func TestCarouselLimits(t *testing.T) {
	if err := (ThreadsPost{Content: Content{Media: images(20)}}).Validate(); err != nil {
		t.Fatalf("expected 20 threads items to pass, got %v", err)
	}
	if err := (ThreadsPost{Content: Content{Media: images(21)}}).Validate(); err == nil {
		t.Fatalf("expected 21 threads items to fail")
	}
	if err := (InstagramPost{Content: Content{Media: images(10)}}).Validate(); err != nil {
		t.Fatalf("expected 10 instagram items to pass, got %v", err)
	}
	err := (InstagramPost{Content: Content{Media: images(11)}}).Validate()
	if err == nil {
		t.Fatalf("expected 11 instagram items to fail")
	}
	if got := ToErrorResponse(err).Code; got != ErrorBadInput {
		t.Fatalf("expected bad input code, got %q", got)
	}
}

func TestInstagramPostValidate(t *testing.T) {
	video := MediaItem{URL: "https://cdn.example.com/v.mp4", Type: MediaVideo}
	cases := []struct {
		name    string
		post    InstagramPost
		wantErr string
	}{
		{name: "feed without media", post: InstagramPost{}, wantErr: "You must provide at least one media item for a post on Instagram."},
		{name: "reel with image", post: InstagramPost{Type: InstagramReel, Content: Content{Media: images(1)}}, wantErr: "Instagram reels require exactly one video"},
		{name: "reel with video", post: InstagramPost{Type: InstagramReel, Content: Content{Media: []MediaItem{video}}}},
		{name: "story with two", post: InstagramPost{Type: InstagramStory, Content: Content{Media: images(2)}}, wantErr: "Instagram stories require exactly one media item"},
		{name: "unknown type", post: InstagramPost{Type: "igtv", Content: Content{Media: images(1)}}, wantErr: "Instagram post type must be feed, reel or story"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.post.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || ToErrorResponse(err).Message != tc.wantErr {
				t.Fatalf("expected %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestTikTokPostValidate(t *testing.T) {
	mixed := TikTokPost{
		Content: Content{
			Privacy: "public",
			Media: []MediaItem{
				{URL: "https://cdn.example.com/a.jpg", Type: MediaImage},
				{URL: "https://cdn.example.com/b.mp4", Type: MediaVideo},
			},
		},
	}
	err := mixed.Validate()
	if err == nil || ToErrorResponse(err).Message != "TikTok posts must contain either all images or all videos, not a mix of both" {
		t.Fatalf("expected mixed media error, got %v", err)
	}

	noPrivacy := TikTokPost{Content: Content{Media: images(2)}}
	if err := noPrivacy.Validate(); err == nil {
		t.Fatalf("expected privacy to be required")
	}

	photos := TikTokPost{Content: Content{Media: images(3), Privacy: "mutual"}}
	if err := photos.Validate(); err != nil {
		t.Fatalf("expected photo post to validate, got %v", err)
	}
	if photos.Kind() != TikTokImage {
		t.Fatalf("expected image kind, got %q", photos.Kind())
	}

	wrongType := TikTokPost{Type: TikTokVideo, Content: Content{Media: images(1), Privacy: "public"}}
	if err := wrongType.Validate(); err == nil {
		t.Fatalf("expected type/media disagreement to fail")
	}
}

func TestFacebookPostKind(t *testing.T) {
	video := MediaItem{URL: "https://cdn.example.com/v.mp4", Type: MediaVideo}
	if kind := (FacebookPost{Content: Content{Media: []MediaItem{video}}}).Kind(); kind != FacebookKindVideo {
		t.Fatalf("expected video kind, got %q", kind)
	}
	if kind := (FacebookPost{Type: FacebookReel, Content: Content{Media: []MediaItem{video}}}).Kind(); kind != FacebookKindReel {
		t.Fatalf("expected reel kind, got %q", kind)
	}
	if kind := (FacebookPost{Content: Content{Media: images(2)}}).Kind(); kind != FacebookKindFeed {
		t.Fatalf("expected feed kind, got %q", kind)
	}
	if err := (FacebookPost{Type: FacebookReel, Content: Content{Media: images(1)}}).Validate(); err == nil {
		t.Fatalf("expected reel with image to fail")
	}
	if err := (FacebookPost{Content: Content{Media: append(images(1), video)}}).Validate(); err == nil {
		t.Fatalf("expected feed with video among several items to fail")
	}
}

func TestYouTubePostValidate(t *testing.T) {
	video := MediaItem{URL: "https://cdn.example.com/v.mp4", Type: MediaVideo}
	if err := (YouTubePost{Content: Content{Media: []MediaItem{video}}}).Validate(); err == nil {
		t.Fatalf("expected missing title to fail")
	}
	if err := (YouTubePost{Content: Content{Text: "t", Media: []MediaItem{video}, Privacy: "friends"}}).Validate(); err == nil {
		t.Fatalf("expected unknown privacy to fail")
	}
	if err := (YouTubePost{Content: Content{Text: "t", Media: []MediaItem{video}}}).Validate(); err != nil {
		t.Fatalf("expected valid youtube post, got %v", err)
	}
}
