package common

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/goliatone/go-sotsial/transport"
	"github.com/samber/lo"
)

const (
	GraphURL          = "https://graph.facebook.com"
	ThreadsGraphURL   = "https://graph.threads.net"
	InstagramGraphURL = "https://graph.instagram.com"
	InstagramAPIURL   = "https://api.instagram.com"
)

// Versioned joins a Graph origin, an API version and a path.
func Versioned(origin, version, path string) string {
	out := strings.TrimRight(origin, "/")
	if version = strings.Trim(strings.TrimSpace(version), "/"); version != "" {
		out += "/" + version
	}
	return out + "/" + strings.TrimLeft(path, "/")
}

// AppToken is the app access token form debug_token expects.
func AppToken(cfg core.ProviderConfig) string {
	return cfg.ClientID + "|" + cfg.ClientSecret
}

type debugTokenResponse struct {
	Data struct {
		IsValid   bool     `json:"is_valid"`
		Scopes    []string `json:"scopes"`
		ExpiresAt int64    `json:"expires_at"`
	} `json:"data"`
}

// DebugToken introspects accessToken and requires every scope in required to
// have been granted once debug_token reports a scope list. Extra granted
// scopes are accepted. When introspection fails or returns no scopes the
// required scopes are echoed back with Verified false.
func DebugToken(
	ctx context.Context,
	base *providers.Base,
	version string,
	accessToken string,
	required []string,
) core.Result[core.ValidateResult] {
	if strings.TrimSpace(accessToken) == "" {
		return core.Fail[core.ValidateResult](core.BadInputError("Access token is required"))
	}
	if len(required) == 0 {
		required = base.Scopes()
	}
	unverified := core.ValidateResult{Scopes: append([]string(nil), required...)}

	req := transport.GetRequest(Versioned(GraphURL, version, "debug_token"), map[string]string{
		"input_token":  accessToken,
		"access_token": AppToken(base.OAuth()),
	})
	var decoded debugTokenResponse
	if err := base.CallJSON(ctx, req, "Failed to validate access token", &decoded); err != nil {
		if ctx.Err() != nil {
			return core.Fail[core.ValidateResult](err)
		}
		core.LogWarn(ctx, base.Logger(), "debug_token unavailable, scopes not verified", map[string]any{
			"platform": base.Platform(),
			"error":    err.Error(),
		})
		return core.Ok(unverified)
	}
	if len(decoded.Data.Scopes) == 0 {
		return core.Ok(unverified)
	}

	if missing := lo.Without(required, decoded.Data.Scopes...); len(missing) > 0 {
		return core.Fail[core.ValidateResult](core.ScopeMismatchError(missing))
	}

	result := core.ValidateResult{Scopes: decoded.Data.Scopes, Verified: true}
	if decoded.Data.ExpiresAt > 0 {
		expires := time.Unix(decoded.Data.ExpiresAt, 0).UTC()
		result.Expires = &expires
	}
	return core.Ok(result)
}

// Profile is the subset of /me fields the Meta family returns.
type Profile struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Username                 string `json:"username"`
	ProfilePictureURL        string `json:"profile_picture_url"`
	ThreadsProfilePictureURL string `json:"threads_profile_picture_url"`
}

// FetchProfile reads /me with fields using accessToken.
func FetchProfile(ctx context.Context, base *providers.Base, meURL, fields, accessToken, failure string) (Profile, error) {
	req := transport.GetRequest(meURL, map[string]string{
		"fields":       fields,
		"access_token": accessToken,
	})
	var profile Profile
	if err := base.CallJSON(ctx, req, failure, &profile); err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(profile.ID) == "" {
		return Profile{}, core.PlatformError(failure+": response missing id", http.StatusOK, nil)
	}
	return profile, nil
}

// Details maps a profile onto account details.
func (p Profile) Details() *core.AccountDetails {
	avatar := p.ProfilePictureURL
	if avatar == "" {
		avatar = p.ThreadsProfilePictureURL
	}
	return &core.AccountDetails{
		Name:      p.Name,
		Username:  p.Username,
		AvatarURL: avatar,
	}
}

// RefreshLongLived extends a long lived token that is at least a day old
// through the refresh_access_token endpoint Threads and Instagram share.
func RefreshLongLived(ctx context.Context, base *providers.Base, endpoint, grantType, token string) core.Result[core.RefreshResult] {
	return base.RenewToken(ctx, token, func(token string) providers.TokenRequest {
		return providers.TokenRequest{
			Method: http.MethodGet,
			URL:    endpoint,
			Form: map[string][]string{
				"grant_type":   {grantType},
				"access_token": {token},
			},
		}
	})
}

// LongLivedToken swaps a short lived token for a long lived one through the
// exchange endpoint Threads and Instagram share.
func LongLivedToken(ctx context.Context, base *providers.Base, endpoint, grantType, shortToken string) (providers.TokenPayload, error) {
	return base.FetchToken(ctx, providers.TokenRequest{
		Method: http.MethodGet,
		URL:    endpoint,
		Form: map[string][]string{
			"grant_type":    {grantType},
			"client_secret": {base.OAuth().ClientSecret},
			"access_token":  {shortToken},
		},
		Failure: "Failed to exchange access token for refresh token",
	})
}
