package sotsial

import (
	"fmt"

	sotsialcommand "github.com/goliatone/go-sotsial/command"
	sotsialquery "github.com/goliatone/go-sotsial/query"
)

// Engine is the surface command and query handlers drive. *Client implements it.
type Engine interface {
	sotsialcommand.MutatingService
	sotsialquery.TokenValidator
}

type Commands struct {
	Grant    *sotsialcommand.GrantCommand
	Exchange *sotsialcommand.ExchangeCommand
	Refresh  *sotsialcommand.RefreshCommand
	Publish  *sotsialcommand.PublishCommand
}

type Queries struct {
	Validate      *sotsialquery.ValidateQuery
	LocalValidate *sotsialquery.LocalValidateQuery
}

type Facade struct {
	engine   Engine
	commands Commands
	queries  Queries
	bundles  map[string]any
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	hooks *ExtensionHooks
}

// WithFacadeHooks builds the command/query bundles registered on hooks.
func WithFacadeHooks(hooks *ExtensionHooks) FacadeOption {
	return func(options *facadeOptions) {
		options.hooks = hooks
	}
}

func NewFacade(engine Engine, opts ...FacadeOption) (*Facade, error) {
	if engine == nil {
		return nil, fmt.Errorf("sotsial: command/query engine is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	bundles, err := cfg.hooks.BuildCommandQueryBundles(engine)
	if err != nil {
		return nil, err
	}

	return &Facade{
		engine: engine,
		commands: Commands{
			Grant:    sotsialcommand.NewGrantCommand(engine),
			Exchange: sotsialcommand.NewExchangeCommand(engine),
			Refresh:  sotsialcommand.NewRefreshCommand(engine),
			Publish:  sotsialcommand.NewPublishCommand(engine),
		},
		queries: Queries{
			Validate:      sotsialquery.NewValidateQuery(engine),
			LocalValidate: sotsialquery.NewLocalValidateQuery(engine),
		},
		bundles: bundles,
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Engine() Engine {
	if f == nil {
		return nil
	}
	return f.engine
}

// Bundle returns the handler set an extension registered under name.
func (f *Facade) Bundle(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	bundle, ok := f.bundles[name]
	return bundle, ok
}
