package linkedin_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers/devkit"
	"github.com/goliatone/go-sotsial/providers/linkedin"
	"github.com/golang-jwt/jwt/v4"
)

var testOAuth = core.ProviderConfig{
	ClientID:     "li-client",
	ClientSecret: "li-secret",
	RedirectURI:  "https://app.example/callback/linkedin",
}

func newProvider(t *testing.T, server *devkit.Server) *linkedin.Provider {
	t.Helper()
	provider, err := linkedin.New(server.Config(testOAuth))
	if err != nil {
		t.Fatalf("new linkedin provider: %v", err)
	}
	return provider
}

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return token
}

func TestProvider_GrantUsesSpaceDelimitedScopes(t *testing.T) {
	provider := newProvider(t, devkit.NewServer(t))

	result := provider.Grant(context.Background())
	if !result.OK() {
		t.Fatalf("grant: %v", result.Err())
	}
	parsed, err := url.Parse(result.Data.URL)
	if err != nil {
		t.Fatalf("parse grant url: %v", err)
	}
	if parsed.Path != "/oauth/v2/authorization" {
		t.Fatalf("unexpected authorize path %q", parsed.Path)
	}
	if got := parsed.Query().Get("scope"); got != "openid profile email w_member_social" {
		t.Fatalf("unexpected scope %q", got)
	}
}

func TestProvider_ExchangeDecodesIDToken(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/oauth/v2/accessToken", http.StatusOK, map[string]any{
		"access_token":  "li-access",
		"refresh_token": "li-refresh",
		"expires_in":    5183999,
		"scope":         "email,openid,profile,w_member_social",
		"id_token": signedIDToken(t, jwt.MapClaims{
			"sub":     "member-7",
			"name":    "Grace Hopper",
			"picture": "https://media.example/grace.jpg",
			"email":   "grace@example.com",
		}),
	})
	provider := newProvider(t, server)

	result := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "auth-code"})
	if !result.OK() {
		t.Fatalf("exchange: %v", result.Err())
	}
	got := result.Data[0]
	if got.AccountID != "member-7" || got.AccessToken != "li-access" || got.RefreshToken != "li-refresh" {
		t.Fatalf("unexpected exchange result %+v", got)
	}
	if got.Details.Name != "Grace Hopper" || got.Details.AvatarURL != "https://media.example/grace.jpg" || got.Details.Username != "" {
		t.Fatalf("unexpected details %+v", got.Details)
	}
	if server.Count() != 1 {
		t.Fatalf("expected only the token call, got %d", server.Count())
	}
	form := server.CallsTo(http.MethodPost, "/oauth/v2/accessToken")[0].Form()
	if form.Get("client_secret") != "li-secret" || form.Get("redirect_uri") != testOAuth.RedirectURI {
		t.Fatalf("unexpected token form %v", form)
	}
}

func TestProvider_ExchangeRejectsMissingScopes(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/oauth/v2/accessToken", http.StatusOK, map[string]any{
		"access_token": "li-access",
		"scope":        "openid,profile",
		"id_token":     signedIDToken(t, jwt.MapClaims{"sub": "member-7"}),
	})
	provider := newProvider(t, server)

	result := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "auth-code"})
	if result.OK() {
		t.Fatalf("expected scope failure")
	}
	if result.Error.Message != "Invalid scopes - the user has not granted the required scopes." {
		t.Fatalf("unexpected message %q", result.Error.Message)
	}
	if result.Error.Code != core.ErrorScopeMismatch {
		t.Fatalf("expected %s, got %s", core.ErrorScopeMismatch, result.Error.Code)
	}
}

func TestProvider_ExchangeRejectsMalformedIDToken(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/oauth/v2/accessToken", http.StatusOK, map[string]any{
		"access_token": "li-access",
		"scope":        "openid,profile,email,w_member_social",
		"id_token":     "not-a-jwt",
	})
	provider := newProvider(t, server)

	result := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "auth-code"})
	if result.OK() || result.Error.Message != "Failed to decode LinkedIn id_token" {
		t.Fatalf("unexpected result %+v", result.Error)
	}
}

func TestProvider_PublishIsUnsupported(t *testing.T) {
	provider := newProvider(t, devkit.NewServer(t))

	result := provider.Publish(context.Background(), core.LinkedInPost{Content: core.Content{Text: "hello"}})
	if result.OK() {
		t.Fatalf("expected unsupported")
	}
	if result.Error.Message != "LinkedIn publishing is not supported" || result.Error.Code != core.ErrorCapabilityUnsupported {
		t.Fatalf("unexpected error %+v", result.Error)
	}
}

func TestProvider_RefreshRedeemsRefreshToken(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/oauth/v2/accessToken", http.StatusOK, map[string]any{
		"access_token":             "li-access-2",
		"expires_in":               5184000,
		"refresh_token":            "li-refresh-2",
		"refresh_token_expires_in": 31536000,
	})
	provider := newProvider(t, server)

	result := provider.Refresh(context.Background(), "li-refresh-1")
	if !result.OK() {
		t.Fatalf("refresh: %v", result.Err())
	}
	if result.Data.AccessToken != "li-access-2" || result.Data.RefreshToken != "li-refresh-2" || result.Data.Expiry.IsZero() {
		t.Fatalf("unexpected refresh result %+v", result.Data)
	}
	form := server.CallsTo(http.MethodPost, "/oauth/v2/accessToken")[0].Form()
	if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "li-refresh-1" || form.Get("client_id") != "li-client" || form.Get("client_secret") != "li-secret" {
		t.Fatalf("unexpected refresh form %v", form)
	}
}
