package sotsial

import (
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/security"
)

type Config = core.Config

type Platform = core.Platform

type ProviderConfig = core.ProviderConfig
type Account = core.Account
type PlatformSetup = core.PlatformSetup

type Post = core.Post
type Content = core.Content
type MediaItem = core.MediaItem

type GrantResult = core.GrantResult
type ExchangeRequest = core.ExchangeRequest
type ExchangeResult = core.ExchangeResult
type ValidateResult = core.ValidateResult
type ScopeCheck = core.ScopeCheck
type PublishOutcome = core.PublishOutcome
type ErrorResponse = core.ErrorResponse

type TokenCipher = security.TokenCipher

const (
	Threads   = core.PlatformThreads
	Instagram = core.PlatformInstagram
	TikTok    = core.PlatformTikTok
	Facebook  = core.PlatformFacebook
	Google    = core.PlatformGoogle
	YouTube   = core.PlatformYouTube
	LinkedIn  = core.PlatformLinkedIn
	Twitter   = core.PlatformTwitter
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// Encrypt seals a token for storage with a key derived from secret.
func Encrypt(text, secret string) (string, error) {
	return security.Encrypt(text, security.Options{Secret: secret})
}

// Decrypt returns the empty string and false for malformed or foreign input.
func Decrypt(ciphertext, secret string) (string, bool) {
	return security.Decrypt(ciphertext, security.Options{Secret: secret})
}
