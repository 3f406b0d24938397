package sotsial

import (
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/goliatone/go-sotsial/providers/google"
	"github.com/goliatone/go-sotsial/providers/google/youtube"
	"github.com/goliatone/go-sotsial/providers/linkedin"
	"github.com/goliatone/go-sotsial/providers/meta/facebook"
	"github.com/goliatone/go-sotsial/providers/meta/instagram"
	"github.com/goliatone/go-sotsial/providers/meta/threads"
	"github.com/goliatone/go-sotsial/providers/tiktok"
	"github.com/goliatone/go-sotsial/providers/twitter"
)

// ProviderFactory builds a platform provider from its OAuth setup, accounts
// and runtime collaborators.
type ProviderFactory func(cfg providers.Config) (core.Provider, error)

func ThreadsProvider(cfg providers.Config) (core.Provider, error) {
	return built(threads.New(cfg))
}

func InstagramProvider(cfg providers.Config) (core.Provider, error) {
	return built(instagram.New(cfg))
}

func FacebookProvider(cfg providers.Config) (core.Provider, error) {
	return built(facebook.New(cfg))
}

func TikTokProvider(cfg providers.Config) (core.Provider, error) {
	return built(tiktok.New(cfg))
}

func LinkedInProvider(cfg providers.Config) (core.Provider, error) {
	return built(linkedin.New(cfg))
}

func TwitterProvider(cfg providers.Config) (core.Provider, error) {
	return built(twitter.New(cfg))
}

func GoogleProvider(cfg providers.Config) (core.Provider, error) {
	return built(google.New(cfg))
}

func YouTubeProvider(cfg providers.Config) (core.Provider, error) {
	return built(youtube.New(cfg))
}

// built drops the concrete type so a failed constructor never yields a
// non-nil interface holding a nil pointer.
func built[P core.Provider](provider P, err error) (core.Provider, error) {
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// BuiltInFactories returns the factory for every supported platform.
func BuiltInFactories() map[core.Platform]ProviderFactory {
	return map[core.Platform]ProviderFactory{
		core.PlatformThreads:   ThreadsProvider,
		core.PlatformInstagram: InstagramProvider,
		core.PlatformFacebook:  FacebookProvider,
		core.PlatformTikTok:    TikTokProvider,
		core.PlatformLinkedIn:  LinkedInProvider,
		core.PlatformTwitter:   TwitterProvider,
		core.PlatformGoogle:    GoogleProvider,
		core.PlatformYouTube:   YouTubeProvider,
	}
}
