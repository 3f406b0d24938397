package sotsial

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/samber/lo"
)

// Client holds one provider per configured platform and routes grant,
// exchange, refresh, validate and publish calls to them.
type Client struct {
	config        core.Config
	logger        core.Logger
	providers     map[core.Platform]core.Provider
	correlationID func() string
}

// New builds a provider for every platform in setup. Platforms missing from
// setup stay unconfigured; calls addressed to them fail.
func New(setup map[core.Platform]core.PlatformSetup, opts ...Option) (*Client, error) {
	options := clientOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	cfg := core.DefaultConfig()
	if options.config != nil {
		resolved, err := core.GoOptionsResolver{}.Resolve(core.DefaultConfig(), core.Config{}, *options.config)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "sotsial: invalid engine config").
				WithTextCode(core.ErrorConfigInvalid)
		}
		cfg = resolved
	}

	client := &Client{
		config:        cfg,
		logger:        core.ResolveLogger("sotsial", options.loggerProvider, options.logger),
		providers:     map[core.Platform]core.Provider{},
		correlationID: options.correlationID,
	}
	if client.correlationID == nil {
		client.correlationID = uuid.NewString
	}

	factories := options.hooks.Factories(BuiltInFactories())
	for platform, platformSetup := range setup {
		if !platform.Valid() {
			return nil, core.ConfigError(fmt.Sprintf("Unknown platform %q", platform))
		}
		if _, injected := options.injected[platform]; injected {
			continue
		}
		factory, ok := factories[platform]
		if !ok {
			return nil, core.ProviderNotInitialisedError(platform)
		}
		provider, err := factory(providers.Config{
			OAuth:     platformSetup.Config,
			Accounts:  platformSetup.Accounts,
			Endpoints: options.endpoints,
			Runtime: providers.Runtime{
				Transport:  options.transport,
				HTTPClient: options.httpClient,
				Logger:     core.ResolveLogger("sotsial."+string(platform), options.loggerProvider, options.logger),
				Settings:   cfg,
				Now:        options.now,
				Sleep:      options.sleeper,
			},
		})
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, platform.Label()+" provider configuration is invalid").
				WithTextCode(core.ErrorConfigInvalid).
				WithMetadata(map[string]any{core.MetadataPlatform: string(platform)})
		}
		client.providers[platform] = provider
	}
	for platform, provider := range options.injected {
		client.providers[platform] = provider
	}
	return client, nil
}

func (c *Client) Config() core.Config {
	return c.config
}

// Platforms lists the configured platforms in dispatch order.
func (c *Client) Platforms() []core.Platform {
	return lo.Filter(core.Platforms(), func(platform core.Platform, _ int) bool {
		_, ok := c.providers[platform]
		return ok
	})
}

func (c *Client) Provider(platform core.Platform) (core.Provider, error) {
	provider, ok := c.providers[platform]
	if !ok || provider == nil {
		return nil, core.ProviderNotInitialisedError(platform)
	}
	return provider, nil
}

func (c *Client) Grant(ctx context.Context, platform core.Platform, scopes ...string) core.Result[core.GrantResult] {
	provider, err := c.Provider(platform)
	if err != nil {
		return core.Fail[core.GrantResult](err)
	}
	ctx, fields := c.begin(ctx, platform)
	startedAt := time.Now()
	result := provider.Grant(ctx, scopes...)
	core.ObserveOperation(ctx, c.logger, startedAt, "grant", result.Error, fields)
	return result
}

func (c *Client) Exchange(ctx context.Context, platform core.Platform, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	provider, err := c.Provider(platform)
	if err != nil {
		return core.Fail[[]core.ExchangeResult](err)
	}
	ctx, fields := c.begin(ctx, platform)
	startedAt := time.Now()
	result := provider.Exchange(ctx, req)
	fields["accounts"] = len(result.Data)
	core.ObserveOperation(ctx, c.logger, startedAt, "exchange", result.Error, fields)
	return result
}

// Refresh renews a stored credential on platform.
func (c *Client) Refresh(ctx context.Context, platform core.Platform, token string) core.Result[core.RefreshResult] {
	provider, err := c.Provider(platform)
	if err != nil {
		return core.Fail[core.RefreshResult](err)
	}
	ctx, fields := c.begin(ctx, platform)
	startedAt := time.Now()
	result := provider.Refresh(ctx, token)
	core.ObserveOperation(ctx, c.logger, startedAt, "refresh", result.Error, fields)
	return result
}

func (c *Client) Validate(ctx context.Context, platform core.Platform, accessToken string, scopes []string) core.Result[core.ValidateResult] {
	provider, err := c.Provider(platform)
	if err != nil {
		return core.Fail[core.ValidateResult](err)
	}
	ctx, fields := c.begin(ctx, platform)
	startedAt := time.Now()
	result := provider.Validate(ctx, accessToken, scopes)
	core.ObserveOperation(ctx, c.logger, startedAt, "validate", result.Error, fields)
	return result
}

func (c *Client) LocalValidate(platform core.Platform, received []string) (core.ScopeCheck, error) {
	provider, err := c.Provider(platform)
	if err != nil {
		return core.ScopeCheck{}, err
	}
	return provider.LocalValidate(received), nil
}

// Publish sends post to every configured platform, one platform at a time.
func (c *Client) Publish(ctx context.Context, post core.Post) map[core.Platform]core.Result[[]core.PublishOutcome] {
	return c.PublishTo(ctx, post, c.Platforms()...)
}

// PublishTo publishes to the named platforms only. A named platform without
// a provider gets a failed result instead of being skipped.
func (c *Client) PublishTo(ctx context.Context, post core.Post, platforms ...core.Platform) map[core.Platform]core.Result[[]core.PublishOutcome] {
	targets := lo.Filter(core.Platforms(), func(platform core.Platform, _ int) bool {
		return lo.Contains(platforms, platform)
	})
	results := make(map[core.Platform]core.Result[[]core.PublishOutcome], len(targets))
	for _, platform := range platforms {
		if !platform.Valid() {
			results[platform] = core.Fail[[]core.PublishOutcome](core.ProviderNotInitialisedError(platform))
		}
	}

	for _, platform := range targets {
		provider, err := c.Provider(platform)
		if err != nil {
			results[platform] = core.Fail[[]core.PublishOutcome](err)
			continue
		}
		platformCtx, fields := c.begin(ctx, platform)
		startedAt := time.Now()
		result := provider.Publish(platformCtx, post.ContentFor(platform))
		fields["published"] = len(result.Data)
		core.ObserveOperation(platformCtx, c.logger, startedAt, "publish", result.Error, fields)
		results[platform] = result
	}
	return results
}

func (c *Client) begin(ctx context.Context, platform core.Platform) (context.Context, map[string]any) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, map[string]any{
		"platform":       string(platform),
		"correlation_id": c.correlationID(),
	}
}
