package google

import (
	"context"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"github.com/goliatone/go-sotsial/providers/google/common"
)

type Config = providers.Config

// Provider connects a Google account and identifies it by its YouTube
// channel. It cannot publish.
type Provider struct {
	*providers.Base
	auth common.Auth
}

func DefaultScopes() []string {
	return common.IdentityScopes()
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.Base(core.PlatformGoogle, common.AuthURL, providers.ScopeDelimiterSpace, DefaultScopes(), common.AuthParams())
	return &Provider{Base: base, auth: common.Auth{Base: base}}, nil
}

func (p *Provider) Exchange(ctx context.Context, req core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	startedAt := time.Now()
	results, err := p.auth.Exchange(ctx, req)
	return providers.Finish(ctx, p.Base, "exchange", startedAt, results, err)
}

func (p *Provider) Refresh(ctx context.Context, token string) core.Result[core.RefreshResult] {
	startedAt := time.Now()
	result, err := p.auth.Refresh(ctx, token)
	return providers.Finish(ctx, p.Base, "refresh", startedAt, result, err)
}

func (p *Provider) Publish(_ context.Context, _ core.PostContent) core.Result[[]core.PublishOutcome] {
	return providers.Unsupported("You cannot publish to Google.")
}

var _ core.Provider = (*Provider)(nil)
