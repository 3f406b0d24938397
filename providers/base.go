package providers

import (
	"context"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/security"
	"github.com/samber/lo"
)

const (
	ScopeDelimiterComma = ","
	ScopeDelimiterSpace = " "
)

type BaseConfig struct {
	Platform       core.Platform
	OAuth          core.ProviderConfig
	DefaultScopes  []string
	Accounts       []core.Account
	AuthURL        string
	ScopeDelimiter string
	AuthParams     map[string]string
	Endpoints      Endpoints
	Runtime        Runtime
}

// Endpoints rewrites canonical platform origins, keyed like
// "https://graph.facebook.com", onto another origin.
type Endpoints map[string]string

func (e Endpoints) Resolve(rawURL string) string {
	for origin, replacement := range e {
		origin = strings.TrimRight(origin, "/")
		if rawURL == origin || strings.HasPrefix(rawURL, origin+"/") || strings.HasPrefix(rawURL, origin+"?") {
			return strings.TrimRight(replacement, "/") + rawURL[len(origin):]
		}
	}
	return rawURL
}

// Base implements the behaviour every platform shares. Platform providers
// embed it and override what their protocol needs.
type Base struct {
	platform   core.Platform
	oauth      core.ProviderConfig
	accounts   []core.Account
	authURL    string
	delimiter  string
	authParams map[string]string
	endpoints  Endpoints
	runtime    Runtime
}

func NewBase(cfg BaseConfig) *Base {
	delimiter := cfg.ScopeDelimiter
	if delimiter == "" {
		delimiter = ScopeDelimiterComma
	}
	runtime := cfg.Runtime.Normalize()
	if cfg.Runtime.Logger == nil {
		runtime.Logger = core.ResolveLogger("sotsial."+string(cfg.Platform), nil, nil)
	}
	params := make(map[string]string, len(cfg.AuthParams))
	for key, value := range cfg.AuthParams {
		params[key] = value
	}
	endpoints := make(Endpoints, len(cfg.Endpoints))
	for origin, replacement := range cfg.Endpoints {
		endpoints[origin] = replacement
	}
	return &Base{
		platform:   cfg.Platform,
		oauth:      cfg.OAuth.WithDefaultScopes(cfg.DefaultScopes),
		accounts:   cloneAccounts(cfg.Accounts),
		authURL:    strings.TrimSpace(cfg.AuthURL),
		delimiter:  delimiter,
		authParams: params,
		endpoints:  endpoints,
		runtime:    runtime,
	}
}

func (b *Base) Platform() core.Platform {
	return b.platform
}

func (b *Base) OAuth() core.ProviderConfig {
	out := b.oauth
	out.Scopes = append([]string(nil), b.oauth.Scopes...)
	return out
}

func (b *Base) Scopes() []string {
	return append([]string(nil), b.oauth.Scopes...)
}

func (b *Base) Accounts() []core.Account {
	return cloneAccounts(b.accounts)
}

// URL applies the endpoint overrides to a canonical platform URL.
func (b *Base) URL(rawURL string) string {
	return b.endpoints.Resolve(rawURL)
}

func (b *Base) Runtime() Runtime {
	return b.runtime
}

func (b *Base) Logger() core.Logger {
	return b.runtime.Logger
}

func (b *Base) Now() time.Time {
	return b.runtime.Now()
}

// Grant builds the authorize URL with a fresh PKCE verifier as state.
func (b *Base) Grant(_ context.Context, scopes ...string) core.Result[core.GrantResult] {
	grant, err := b.BuildGrant(scopes)
	if err != nil {
		return core.Fail[core.GrantResult](err)
	}
	return core.Ok(grant)
}

func (b *Base) BuildGrant(scopes []string) (core.GrantResult, error) {
	if err := b.RequireRedirectURI(); err != nil {
		return core.GrantResult{}, err
	}
	requested := normalizeScopes(scopes)
	if len(requested) == 0 {
		requested = b.Scopes()
	}
	verifier, err := security.GenerateVerifier()
	if err != nil {
		return core.GrantResult{}, err
	}

	values := url.Values{}
	values.Set("client_id", b.oauth.ClientID)
	values.Set("response_type", "code")
	values.Set("redirect_uri", b.oauth.RedirectURI)
	values.Set("scope", strings.Join(requested, b.delimiter))
	values.Set("state", verifier)
	values.Set("code_challenge", security.CodeChallenge(verifier))
	values.Set("code_challenge_method", "S256")
	for key, value := range b.authParams {
		values.Set(key, value)
	}

	authURL := b.URL(b.authURL)
	if strings.Contains(authURL, "?") {
		authURL += "&" + values.Encode()
	} else {
		authURL += "?" + values.Encode()
	}
	return core.GrantResult{URL: authURL, CSRFToken: verifier}, nil
}

// Validate is the fallback for platforms without token introspection: the
// requested scopes come back unverified.
func (b *Base) Validate(_ context.Context, _ string, scopes []string) core.Result[core.ValidateResult] {
	requested := normalizeScopes(scopes)
	if len(requested) == 0 {
		requested = b.Scopes()
	}
	return core.Ok(core.ValidateResult{Scopes: requested, Verified: false})
}

// LocalValidate reports whether received is exactly the configured scope set.
func (b *Base) LocalValidate(received []string) core.ScopeCheck {
	return MatchScopes(b.oauth.Scopes, received)
}

// RequireScopes converts a failed scope check into an error.
func (b *Base) RequireScopes(received []string) error {
	check := b.LocalValidate(received)
	if check.Valid {
		return nil
	}
	missing := check.Missing
	if len(missing) == 0 {
		missing = check.Unexpected
	}
	return core.ScopeMismatchError(missing)
}

// RequireGrantedScopes is RequireScopes for platforms whose consent screen
// lets the user drop scopes.
func (b *Base) RequireGrantedScopes(received []string) error {
	check := b.LocalValidate(received)
	if check.Valid {
		return nil
	}
	err := core.NewError("Invalid scopes - the user has not granted the required scopes.", goerrors.CategoryAuthz, core.ErrorScopeMismatch)
	if len(check.Missing) > 0 {
		return core.WithHint(err, "Missing: "+strings.Join(check.Missing, ", "))
	}
	return core.WithHint(err, "Unexpected: "+strings.Join(check.Unexpected, ", "))
}

func (b *Base) RequireRedirectURI() error {
	if strings.TrimSpace(b.oauth.RedirectURI) == "" {
		return core.ConfigError("Redirect URI is required")
	}
	return nil
}

// CheckExchange validates the inputs every exchange needs.
func (b *Base) CheckExchange(req core.ExchangeRequest) error {
	if err := b.RequireRedirectURI(); err != nil {
		return err
	}
	if strings.TrimSpace(req.Code) == "" {
		return core.BadInputError("Authorization code is required")
	}
	return nil
}

// MatchScopes compares two scope lists as sets.
func MatchScopes(configured, received []string) core.ScopeCheck {
	required := normalizeScopes(configured)
	got := normalizeScopes(received)
	missing := lo.Without(required, got...)
	unexpected := lo.Without(got, required...)
	return core.ScopeCheck{
		Valid:      len(missing) == 0 && len(unexpected) == 0,
		Missing:    missing,
		Unexpected: unexpected,
	}
}

// SplitScopes parses a delimited scope string.
func SplitScopes(value, delimiter string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	if delimiter == ScopeDelimiterSpace {
		return normalizeScopes(strings.Fields(value))
	}
	return normalizeScopes(strings.Split(value, delimiter))
}

func normalizeScopes(scopes []string) []string {
	trimmed := lo.FilterMap(scopes, func(scope string, _ int) (string, bool) {
		scope = strings.TrimSpace(scope)
		return scope, scope != ""
	})
	return lo.Uniq(trimmed)
}

func cloneAccounts(accounts []core.Account) []core.Account {
	out := make([]core.Account, 0, len(accounts))
	for _, account := range accounts {
		account.ID = strings.TrimSpace(account.ID)
		account.AccessToken = strings.TrimSpace(account.AccessToken)
		out = append(out, account)
	}
	return out
}
