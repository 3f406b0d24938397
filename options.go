package sotsial

import (
	"net/http"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
)

type Option func(*clientOptions)

type clientOptions struct {
	config         *core.Config
	logger         core.Logger
	loggerProvider core.LoggerProvider
	httpClient     *http.Client
	transport      core.TransportAdapter
	sleeper        core.Sleeper
	now            func() time.Time
	endpoints      providers.Endpoints
	injected       map[core.Platform]core.Provider
	hooks          *ExtensionHooks
	correlationID  func() string
}

// WithConfig overrides engine settings. Unset fields keep their defaults.
func WithConfig(cfg core.Config) Option {
	return func(o *clientOptions) {
		o.config = &cfg
	}
}

func WithLogger(logger core.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithLoggerProvider names a logger per platform, as sotsial.<platform>.
func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *clientOptions) {
		o.loggerProvider = provider
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTransport replaces the REST adapter providers send requests through.
func WithTransport(adapter core.TransportAdapter) Option {
	return func(o *clientOptions) {
		o.transport = adapter
	}
}

// WithSleeper replaces the clock TikTok status polling waits on.
func WithSleeper(sleeper core.Sleeper) Option {
	return func(o *clientOptions) {
		o.sleeper = sleeper
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *clientOptions) {
		o.now = now
	}
}

// WithEndpoints rewrites platform origins, for sandboxes and tests.
func WithEndpoints(endpoints providers.Endpoints) Option {
	return func(o *clientOptions) {
		if o.endpoints == nil {
			o.endpoints = providers.Endpoints{}
		}
		for origin, replacement := range endpoints {
			o.endpoints[origin] = replacement
		}
	}
}

// WithProvider installs a prebuilt provider, bypassing its factory.
func WithProvider(provider core.Provider) Option {
	return func(o *clientOptions) {
		if provider == nil {
			return
		}
		if o.injected == nil {
			o.injected = map[core.Platform]core.Provider{}
		}
		o.injected[provider.Platform()] = provider
	}
}

func WithExtensionHooks(hooks *ExtensionHooks) Option {
	return func(o *clientOptions) {
		o.hooks = hooks
	}
}

// WithCorrelationIDs replaces the id generator attached to every call's logs.
func WithCorrelationIDs(next func() string) Option {
	return func(o *clientOptions) {
		o.correlationID = next
	}
}
