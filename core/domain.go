package core

import (
	"strings"
	"time"
)

// ProviderConfig identifies an OAuth application registration.
type ProviderConfig struct {
	ClientID     string   `json:"client_id" koanf:"client_id" mapstructure:"client_id" toml:"client_id"`
	ClientSecret string   `json:"client_secret" koanf:"client_secret" mapstructure:"client_secret" toml:"client_secret"`
	RedirectURI  string   `json:"redirect_uri,omitempty" koanf:"redirect_uri" mapstructure:"redirect_uri" toml:"redirect_uri"`
	Scopes       []string `json:"scopes,omitempty" koanf:"scopes" mapstructure:"scopes" toml:"scopes"`
}

// WithDefaultScopes returns a copy of the config whose scopes fall back to
// defaults when none were configured.
func (c ProviderConfig) WithDefaultScopes(defaults []string) ProviderConfig {
	out := c
	out.ClientID = strings.TrimSpace(c.ClientID)
	out.ClientSecret = strings.TrimSpace(c.ClientSecret)
	out.RedirectURI = strings.TrimSpace(c.RedirectURI)
	if len(c.Scopes) == 0 {
		out.Scopes = append([]string(nil), defaults...)
	} else {
		out.Scopes = append([]string(nil), c.Scopes...)
	}
	return out
}

// Account is one authorized publishing identity: a user, page or channel.
type Account struct {
	ID          string `json:"id" toml:"id"`
	AccessToken string `json:"access_token" toml:"access_token"`
}

// PlatformSetup pairs an OAuth application with the accounts it publishes through.
type PlatformSetup struct {
	Config   ProviderConfig `json:"config" toml:"config"`
	Accounts []Account      `json:"accounts,omitempty" toml:"accounts"`
}

type GrantResult struct {
	URL       string `json:"url"`
	CSRFToken string `json:"csrf_token"`
}

type ExchangeRequest struct {
	Code      string `json:"code"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

type AccountDetails struct {
	Name      string `json:"name,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ExchangeResult is the normalized credential produced by a code exchange.
// RefreshToken stays empty when the platform's long lived token already sits
// in AccessToken.
type ExchangeResult struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	AccountID    string          `json:"account_id"`
	Expiry       time.Time       `json:"expiry"`
	Details      *AccountDetails `json:"details,omitempty"`
}

// RefreshResult is a renewed credential. RefreshToken is set only when the
// platform rotates it; callers keep the one they hold otherwise.
type RefreshResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// ValidateResult reports the scopes a token carries. Verified is false when
// the platform has no introspection wired and the requested scopes were
// echoed back unchecked.
type ValidateResult struct {
	Scopes   []string   `json:"scopes"`
	Expires  *time.Time `json:"expires,omitempty"`
	Verified bool       `json:"verified"`
}

type ScopeCheck struct {
	Valid      bool     `json:"valid"`
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
}

type PublishOutcome struct {
	Success   bool   `json:"success"`
	PostID    string `json:"post_id"`
	AccountID string `json:"account_id"`
}

// ExpiresIn converts a relative lifetime in seconds into an absolute expiry.
func ExpiresIn(now time.Time, seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(seconds) * time.Second).UTC()
}
