package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-sotsial/core"
)

// AccountPublisher publishes content through a single account.
type AccountPublisher func(ctx context.Context, account core.Account) (core.PublishOutcome, error)

// PublishEach runs publish once per account, in order, folding every result
// into either the outcome list or the error list. A failing account never
// stops the remaining ones.
func (b *Base) PublishEach(ctx context.Context, publish AccountPublisher) core.Result[[]core.PublishOutcome] {
	if len(b.accounts) == 0 {
		return core.Fail[[]core.PublishOutcome](
			core.BadInputError(fmt.Sprintf("No %s accounts are configured for publishing", b.platform.Label())),
		)
	}

	startedAt := time.Now()
	outcomes := make([]core.PublishOutcome, 0, len(b.accounts))
	failures := make([]core.ErrorResponse, 0)
	for _, account := range b.accounts {
		outcome, err := publish(ctx, account)
		if err != nil {
			failure := core.ToErrorResponse(core.WithAccount(err, account.ID))
			failures = append(failures, *failure)
			core.LogWarn(ctx, b.runtime.Logger, "publish failed for account", map[string]any{
				"platform":   string(b.platform),
				"account_id": account.ID,
				"error":      failure.Message,
			})
			continue
		}
		outcome.Success = true
		if outcome.AccountID == "" {
			outcome.AccountID = account.ID
		}
		outcomes = append(outcomes, outcome)
	}

	result := core.Ok(outcomes)
	if len(failures) > 0 {
		result = core.Partial(outcomes, core.AggregateError(failures))
	}
	core.ObserveOperation(ctx, b.runtime.Logger, startedAt, "publish", result.Error, map[string]any{
		"platform":  string(b.platform),
		"accounts":  len(b.accounts),
		"published": len(outcomes),
	})
	return result
}

// Unsupported answers publish calls for platforms that only provide identity.
func Unsupported(message string) core.Result[[]core.PublishOutcome] {
	return core.Fail[[]core.PublishOutcome](core.UnsupportedError(message))
}

// ExpectContent asserts the variant a provider receives.
func ExpectContent[T core.PostContent](platform core.Platform, content core.PostContent) (T, error) {
	typed, ok := content.(T)
	if !ok {
		var zero T
		return zero, core.BadInputError(fmt.Sprintf("%s cannot publish %T content", platform.Label(), content))
	}
	return typed, nil
}
