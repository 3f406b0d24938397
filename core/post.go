package core

import (
	"fmt"
	"strings"
	"time"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type MediaItem struct {
	URL  string    `json:"url" toml:"url"`
	Type MediaType `json:"type" toml:"type"`
}

// Content holds the fields every platform variant shares.
type Content struct {
	Text    string      `json:"text,omitempty" toml:"text"`
	Media   []MediaItem `json:"media,omitempty" toml:"media"`
	Privacy string      `json:"privacy,omitempty" toml:"privacy"`
}

func (c Content) Common() Content {
	return c
}

func (c Content) hasVideo() bool {
	for _, item := range c.Media {
		if item.Type == MediaVideo {
			return true
		}
	}
	return false
}

func (c Content) mixedMedia() bool {
	if len(c.Media) < 2 {
		return false
	}
	first := c.Media[0].Type
	for _, item := range c.Media[1:] {
		if item.Type != first {
			return true
		}
	}
	return false
}

func (c Content) validateMediaItems() error {
	for i, item := range c.Media {
		if strings.TrimSpace(item.URL) == "" {
			return ValidationError(fmt.Sprintf("media[%d].url", i), "Media items require a URL")
		}
		if item.Type != MediaImage && item.Type != MediaVideo {
			return ValidationError(fmt.Sprintf("media[%d].type", i), "Media type must be image or video")
		}
	}
	return nil
}

// PostContent is the closed set of platform specific post variants.
type PostContent interface {
	Platform() Platform
	Common() Content
	Validate() error
	isPostContent()
}

const (
	ThreadsMaxCarousel   = 20
	InstagramMaxCarousel = 10
	TikTokMaxPhotos      = 35
)

type ThreadsPost struct {
	Content
}

func (ThreadsPost) Platform() Platform { return PlatformThreads }
func (ThreadsPost) isPostContent()     {}

func (p ThreadsPost) Validate() error {
	if len(p.Media) > ThreadsMaxCarousel {
		return ValidationError("media", fmt.Sprintf("Threads only allows up to %d media items per carousel", ThreadsMaxCarousel))
	}
	if strings.TrimSpace(p.Text) == "" && len(p.Media) == 0 {
		return ValidationError("text", "A Threads post needs text or media")
	}
	return p.validateMediaItems()
}

type InstagramPostType string

const (
	InstagramFeed  InstagramPostType = "feed"
	InstagramReel  InstagramPostType = "reel"
	InstagramStory InstagramPostType = "story"
)

type InstagramPost struct {
	Content
	Type InstagramPostType `json:"ig_type,omitempty" toml:"ig_type"`
}

func (InstagramPost) Platform() Platform { return PlatformInstagram }
func (InstagramPost) isPostContent()     {}

func (p InstagramPost) Kind() InstagramPostType {
	if p.Type == "" {
		return InstagramFeed
	}
	return p.Type
}

func (p InstagramPost) Validate() error {
	switch p.Kind() {
	case InstagramFeed:
		if len(p.Media) == 0 {
			return ValidationError("media", "You must provide at least one media item for a post on Instagram.")
		}
		if len(p.Media) > InstagramMaxCarousel {
			return ValidationError("media", fmt.Sprintf("Instagram only allows up to %d media items per carousel", InstagramMaxCarousel))
		}
	case InstagramReel:
		if len(p.Media) != 1 || p.Media[0].Type != MediaVideo {
			return ValidationError("media", "Instagram reels require exactly one video")
		}
	case InstagramStory:
		if len(p.Media) != 1 {
			return ValidationError("media", "Instagram stories require exactly one media item")
		}
	default:
		return ValidationError("ig_type", "Instagram post type must be feed, reel or story")
	}
	return p.validateMediaItems()
}

type TikTokPostType string

const (
	TikTokVideo TikTokPostType = "video"
	TikTokImage TikTokPostType = "image"
)

type TikTokSafety struct {
	AllowComments *bool `json:"allow_comments,omitempty" toml:"allow_comments"`
	AllowDuet     *bool `json:"allow_duet,omitempty" toml:"allow_duet"`
	AllowStitch   *bool `json:"allow_stitch,omitempty" toml:"allow_stitch"`
}

type TikTokPromotion struct {
	SelfPromotion      bool `json:"self_promotion" toml:"self_promotion"`
	IsYourBrandContent bool `json:"is_your_brand_content,omitempty" toml:"is_your_brand_content"`
	IsBrandedContent   bool `json:"is_branded_content,omitempty" toml:"is_branded_content"`
}

// Commercial reports whether the post discloses any commercial relationship.
func (p TikTokPromotion) Commercial() bool {
	return p.SelfPromotion || p.IsBrandedContent
}

type TikTokOptions struct {
	Safety    TikTokSafety    `json:"safety" toml:"safety"`
	Promotion TikTokPromotion `json:"promotion" toml:"promotion"`
}

type TikTokPost struct {
	Content
	Type    TikTokPostType `json:"tk_type,omitempty" toml:"tk_type"`
	Options TikTokOptions  `json:"options" toml:"options"`
}

func (TikTokPost) Platform() Platform { return PlatformTikTok }
func (TikTokPost) isPostContent()     {}

// TikTok privacy values accepted on posts.
var TikTokPrivacyLevels = map[string]string{
	"public":  "PUBLIC_TO_EVERYONE",
	"mutual":  "MUTUAL_FOLLOW_FRIENDS",
	"private": "SELF_ONLY",
}

func (p TikTokPost) Kind() TikTokPostType {
	if len(p.Media) > 0 && p.Media[0].Type == MediaImage {
		return TikTokImage
	}
	return TikTokVideo
}

func (p TikTokPost) Validate() error {
	if len(p.Media) == 0 {
		return ValidationError("media", "TikTok posts require at least one media item")
	}
	if p.mixedMedia() {
		return ValidationError("media", "TikTok posts must contain either all images or all videos, not a mix of both")
	}
	if err := p.validateMediaItems(); err != nil {
		return err
	}
	if p.Type != "" && p.Type != p.Kind() {
		return ValidationError("tk_type", fmt.Sprintf("TikTok %s posts cannot carry %s media", p.Type, p.Media[0].Type))
	}
	if p.Kind() == TikTokVideo && len(p.Media) != 1 {
		return ValidationError("media", "TikTok video posts support exactly one video")
	}
	if p.Kind() == TikTokImage && len(p.Media) > TikTokMaxPhotos {
		return ValidationError("media", fmt.Sprintf("TikTok photo posts support up to %d images", TikTokMaxPhotos))
	}
	if _, ok := TikTokPrivacyLevels[p.Privacy]; !ok {
		return ValidationError("privacy", "TikTok posts require privacy to be public, mutual or private")
	}
	return nil
}

type FacebookPostType string

const (
	FacebookFeed FacebookPostType = "feed"
	FacebookReel FacebookPostType = "reel"
)

// FacebookPublishKind is the publishing branch a post resolves to.
type FacebookPublishKind string

const (
	FacebookKindFeed  FacebookPublishKind = "feed"
	FacebookKindVideo FacebookPublishKind = "video"
	FacebookKindReel  FacebookPublishKind = "reel"
)

type FacebookVideoOptions struct {
	Title       string `json:"title,omitempty" toml:"title"`
	Description string `json:"description,omitempty" toml:"description"`
}

type FacebookReelOptions struct {
	PlaceID       string   `json:"place_id,omitempty" toml:"place_id"`
	Collaborators []string `json:"collaborators,omitempty" toml:"collaborators"`
}

type FacebookOptions struct {
	PublishAt *time.Time           `json:"publish_at,omitempty" toml:"publish_at"`
	Video     FacebookVideoOptions `json:"video" toml:"video"`
	Reel      FacebookReelOptions  `json:"reel" toml:"reel"`
}

type FacebookPost struct {
	Content
	Type    FacebookPostType `json:"fb_type,omitempty" toml:"fb_type"`
	Link    string           `json:"link,omitempty" toml:"link"`
	Options FacebookOptions  `json:"options" toml:"options"`
}

func (FacebookPost) Platform() Platform { return PlatformFacebook }
func (FacebookPost) isPostContent()     {}

func (p FacebookPost) Kind() FacebookPublishKind {
	if p.Type == FacebookReel {
		return FacebookKindReel
	}
	if len(p.Media) == 1 && p.Media[0].Type == MediaVideo {
		return FacebookKindVideo
	}
	return FacebookKindFeed
}

func (p FacebookPost) Validate() error {
	if p.Privacy != "" && p.Privacy != "public" {
		return ValidationError("privacy", "Facebook pages only support public posts")
	}
	switch p.Kind() {
	case FacebookKindReel:
		if len(p.Media) != 1 || p.Media[0].Type != MediaVideo {
			return ValidationError("media", "Facebook reels require exactly one video")
		}
	case FacebookKindFeed:
		if p.hasVideo() {
			return ValidationError("media", "Facebook feed posts with several media items only support images")
		}
		if strings.TrimSpace(p.Text) == "" && len(p.Media) == 0 && strings.TrimSpace(p.Link) == "" {
			return ValidationError("text", "A Facebook post needs text, a link or media")
		}
	}
	return p.validateMediaItems()
}

type LinkedInPost struct {
	Content
}

func (LinkedInPost) Platform() Platform { return PlatformLinkedIn }
func (LinkedInPost) isPostContent()     {}
func (LinkedInPost) Validate() error    { return nil }

type TwitterPost struct {
	Content
}

func (TwitterPost) Platform() Platform { return PlatformTwitter }
func (TwitterPost) isPostContent()     {}
func (TwitterPost) Validate() error    { return nil }

type GooglePost struct {
	Content
}

func (GooglePost) Platform() Platform { return PlatformGoogle }
func (GooglePost) isPostContent()     {}
func (GooglePost) Validate() error    { return nil }

type YouTubeVideoType string

const (
	YouTubeStandard YouTubeVideoType = "standard"
	YouTubeShort    YouTubeVideoType = "short"
)

type YouTubeOptions struct {
	Type              YouTubeVideoType `json:"yt_type,omitempty" toml:"yt_type"`
	Tags              []string         `json:"tags,omitempty" toml:"tags"`
	CategoryID        string           `json:"category_id,omitempty" toml:"category_id"`
	MadeForKids       bool             `json:"made_for_kids,omitempty" toml:"made_for_kids"`
	NotifySubscribers *bool            `json:"notify_subscribers,omitempty" toml:"notify_subscribers"`
}

// YouTubePost uses Text as the video title.
type YouTubePost struct {
	Content
	Description string         `json:"description,omitempty" toml:"description"`
	Options     YouTubeOptions `json:"options" toml:"options"`
}

func (YouTubePost) Platform() Platform { return PlatformYouTube }
func (YouTubePost) isPostContent()     {}

func (p YouTubePost) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return ValidationError("text", "YouTube videos require a title")
	}
	if len(p.Media) != 1 || p.Media[0].Type != MediaVideo {
		return ValidationError("media", "YouTube uploads require exactly one video")
	}
	switch p.Privacy {
	case "", "public", "unlisted", "private":
	default:
		return ValidationError("privacy", "YouTube privacy must be public, unlisted or private")
	}
	return p.validateMediaItems()
}

// Post is the orchestrator input: shared content plus optional per platform
// overrides.
type Post struct {
	Content
	Threads   *ThreadsPost   `json:"threads,omitempty" toml:"threads"`
	Instagram *InstagramPost `json:"instagram,omitempty" toml:"instagram"`
	TikTok    *TikTokPost    `json:"tiktok,omitempty" toml:"tiktok"`
	Facebook  *FacebookPost  `json:"facebook,omitempty" toml:"facebook"`
	Google    *GooglePost    `json:"google,omitempty" toml:"google"`
	YouTube   *YouTubePost   `json:"youtube,omitempty" toml:"youtube"`
	LinkedIn  *LinkedInPost  `json:"linkedin,omitempty" toml:"linkedin"`
	Twitter   *TwitterPost   `json:"twitter,omitempty" toml:"twitter"`
}

// ContentFor merges the shared fields into the platform override. Fields set
// on the override win.
func (p Post) ContentFor(platform Platform) PostContent {
	switch platform {
	case PlatformThreads:
		out := deref(p.Threads)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformInstagram:
		out := deref(p.Instagram)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformTikTok:
		out := deref(p.TikTok)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformFacebook:
		out := deref(p.Facebook)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformGoogle:
		out := deref(p.Google)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformYouTube:
		out := deref(p.YouTube)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformLinkedIn:
		out := deref(p.LinkedIn)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	case PlatformTwitter:
		out := deref(p.Twitter)
		out.Content = mergeContent(p.Content, out.Content)
		return out
	}
	return nil
}

func mergeContent(shared, override Content) Content {
	out := override
	if strings.TrimSpace(out.Text) == "" {
		out.Text = shared.Text
	}
	if out.Media == nil {
		out.Media = append([]MediaItem(nil), shared.Media...)
	}
	if out.Privacy == "" {
		out.Privacy = shared.Privacy
	}
	return out
}

func deref[T any](value *T) T {
	if value == nil {
		var zero T
		return zero
	}
	return *value
}
