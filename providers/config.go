package providers

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
)

// Config is what every platform constructor receives.
type Config struct {
	OAuth     core.ProviderConfig
	Accounts  []core.Account
	Endpoints Endpoints
	Runtime   Runtime
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		return core.ConfigError("Client ID is required")
	}
	if strings.TrimSpace(c.OAuth.ClientSecret) == "" {
		return core.ConfigError("Client secret is required")
	}
	return nil
}

// Base builds the shared provider state for a platform from c.
func (c Config) Base(platform core.Platform, authURL, delimiter string, defaults []string, authParams map[string]string) *Base {
	return NewBase(BaseConfig{
		Platform:       platform,
		OAuth:          c.OAuth,
		DefaultScopes:  defaults,
		Accounts:       c.Accounts,
		AuthURL:        authURL,
		ScopeDelimiter: delimiter,
		AuthParams:     authParams,
		Endpoints:      c.Endpoints,
		Runtime:        c.Runtime,
	})
}

// Finish wraps the outcome of operation in a Result and records it.
func Finish[T any](ctx context.Context, b *Base, operation string, startedAt time.Time, data T, err error) core.Result[T] {
	result := core.Ok(data)
	if err != nil {
		result = core.Fail[T](err)
	}
	core.ObserveOperation(ctx, b.runtime.Logger, startedAt, operation, result.Error, map[string]any{
		"platform": string(b.platform),
	})
	return result
}
