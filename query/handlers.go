package query

import (
	"context"

	"github.com/goliatone/go-sotsial/core"
)

type TokenValidator interface {
	Validate(ctx context.Context, platform core.Platform, accessToken string, scopes []string) core.Result[core.ValidateResult]
	LocalValidate(platform core.Platform, received []string) (core.ScopeCheck, error)
}

type ValidateQuery struct {
	validator TokenValidator
}

func NewValidateQuery(validator TokenValidator) *ValidateQuery {
	return &ValidateQuery{validator: validator}
}

func (q *ValidateQuery) Query(ctx context.Context, msg ValidateMessage) (core.ValidateResult, error) {
	if q == nil || q.validator == nil {
		return core.ValidateResult{}, queryDependencyError("query: token validator is required")
	}
	return q.validator.Validate(ctx, msg.Platform, msg.AccessToken, msg.Scopes).Unwrap()
}

type LocalValidateQuery struct {
	validator TokenValidator
}

func NewLocalValidateQuery(validator TokenValidator) *LocalValidateQuery {
	return &LocalValidateQuery{validator: validator}
}

func (q *LocalValidateQuery) Query(_ context.Context, msg LocalValidateMessage) (core.ScopeCheck, error) {
	if q == nil || q.validator == nil {
		return core.ScopeCheck{}, queryDependencyError("query: token validator is required")
	}
	return q.validator.LocalValidate(msg.Platform, msg.Received)
}
