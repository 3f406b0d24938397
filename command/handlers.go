package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-sotsial/core"
)

type MutatingService interface {
	Grant(ctx context.Context, platform core.Platform, scopes ...string) core.Result[core.GrantResult]
	Exchange(ctx context.Context, platform core.Platform, req core.ExchangeRequest) core.Result[[]core.ExchangeResult]
	Refresh(ctx context.Context, platform core.Platform, token string) core.Result[core.RefreshResult]
	Publish(ctx context.Context, post core.Post) map[core.Platform]core.Result[[]core.PublishOutcome]
	PublishTo(ctx context.Context, post core.Post, platforms ...core.Platform) map[core.Platform]core.Result[[]core.PublishOutcome]
}

type GrantCommand struct {
	service MutatingService
}

func NewGrantCommand(service MutatingService) *GrantCommand {
	return &GrantCommand{service: service}
}

func (c *GrantCommand) Execute(ctx context.Context, msg GrantMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: grant service is required")
	}
	result := c.service.Grant(ctx, msg.Platform, msg.Scopes...)
	if !result.OK() {
		return result.Err()
	}
	storeResult(ctx, result.Data)
	return nil
}

type ExchangeCommand struct {
	service MutatingService
}

func NewExchangeCommand(service MutatingService) *ExchangeCommand {
	return &ExchangeCommand{service: service}
}

func (c *ExchangeCommand) Execute(ctx context.Context, msg ExchangeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: exchange service is required")
	}
	result := c.service.Exchange(ctx, msg.Platform, msg.Request)
	if !result.OK() {
		return result.Err()
	}
	storeResult(ctx, result.Data)
	return nil
}

type RefreshCommand struct {
	service MutatingService
}

func NewRefreshCommand(service MutatingService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	result := c.service.Refresh(ctx, msg.Platform, msg.Token)
	if !result.OK() {
		return result.Err()
	}
	storeResult(ctx, result.Data)
	return nil
}

// PublishCommand stores the per platform results. Platform failures live in
// the stored map, so Execute only fails on missing dependencies.
type PublishCommand struct {
	service MutatingService
}

func NewPublishCommand(service MutatingService) *PublishCommand {
	return &PublishCommand{service: service}
}

func (c *PublishCommand) Execute(ctx context.Context, msg PublishMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: publish service is required")
	}
	var results map[core.Platform]core.Result[[]core.PublishOutcome]
	if len(msg.Platforms) == 0 {
		results = c.service.Publish(ctx, msg.Post)
	} else {
		results = c.service.PublishTo(ctx, msg.Post, msg.Platforms...)
	}
	storeResult(ctx, results)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
