package core

import (
	"fmt"
	"strings"
)

// Platform identifies a supported social network.
type Platform string

const (
	PlatformThreads   Platform = "threads"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformGoogle    Platform = "google"
	PlatformYouTube   Platform = "youtube"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
)

var platformOrder = []Platform{
	PlatformThreads,
	PlatformInstagram,
	PlatformTikTok,
	PlatformFacebook,
	PlatformGoogle,
	PlatformYouTube,
	PlatformLinkedIn,
	PlatformTwitter,
}

var platformLabels = map[Platform]string{
	PlatformThreads:   "Threads",
	PlatformInstagram: "Instagram",
	PlatformTikTok:    "TikTok",
	PlatformFacebook:  "Facebook",
	PlatformGoogle:    "Google",
	PlatformYouTube:   "YouTube",
	PlatformLinkedIn:  "LinkedIn",
	PlatformTwitter:   "Twitter",
}

// Platforms returns every platform in dispatch order.
func Platforms() []Platform {
	return append([]Platform(nil), platformOrder...)
}

func ParsePlatform(value string) (Platform, error) {
	platform := Platform(strings.ToLower(strings.TrimSpace(value)))
	if !platform.Valid() {
		return "", fmt.Errorf("core: unknown platform %q", value)
	}
	return platform, nil
}

func (p Platform) Valid() bool {
	_, ok := platformLabels[p]
	return ok
}

func (p Platform) String() string {
	return string(p)
}

// Label is the human readable platform name used in messages.
func (p Platform) Label() string {
	if label, ok := platformLabels[p]; ok {
		return label
	}
	return string(p)
}
