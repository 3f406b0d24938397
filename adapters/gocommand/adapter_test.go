package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	sotsial "github.com/goliatone/go-sotsial"
	sotsialcommand "github.com/goliatone/go-sotsial/command"
	"github.com/goliatone/go-sotsial/core"
	sotsialquery "github.com/goliatone/go-sotsial/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "sotsial.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "sotsial.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "sotsial.command.test" }

type stubProvider struct {
	platform core.Platform
}

func (p stubProvider) Platform() core.Platform { return p.platform }

func (p stubProvider) Grant(context.Context, ...string) core.Result[core.GrantResult] {
	return core.Ok(core.GrantResult{URL: "https://auth.example/grant", CSRFToken: "verifier"})
}

func (p stubProvider) Validate(_ context.Context, _ string, scopes []string) core.Result[core.ValidateResult] {
	return core.Ok(core.ValidateResult{Scopes: scopes})
}

func (p stubProvider) Exchange(context.Context, core.ExchangeRequest) core.Result[[]core.ExchangeResult] {
	return core.Ok([]core.ExchangeResult{{AccountID: "acct"}})
}

func (p stubProvider) Refresh(_ context.Context, token string) core.Result[core.RefreshResult] {
	return core.Ok(core.RefreshResult{AccessToken: "renewed-" + token})
}

func (p stubProvider) Publish(context.Context, core.PostContent) core.Result[[]core.PublishOutcome] {
	return core.Ok([]core.PublishOutcome{{Success: true, PostID: "post", AccountID: "acct"}})
}

func (p stubProvider) LocalValidate(received []string) core.ScopeCheck {
	return core.ScopeCheck{Valid: len(received) == 1 && received[0] == "threads_basic"}
}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
	if err := ValidateMessageContract(sotsialcommand.GrantMessage{}); err == nil {
		t.Fatalf("expected grant message without platform to fail")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	subscription, err := RegisterAndSubscribe(adapter, cmd)
	if err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	defer subscription.Unsubscribe()
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestMountFacade_DispatchesEngineMessages(t *testing.T) {
	client, err := sotsial.New(nil, sotsial.WithProvider(stubProvider{platform: core.PlatformThreads}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	facade, err := sotsial.NewFacade(client)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	adapter := NewRegistryAdapter(command.NewRegistry())
	mounted, err := MountFacade(adapter, facade)
	if err != nil {
		t.Fatalf("mount facade: %v", err)
	}
	defer mounted.Unsubscribe()
	if len(mounted) != 6 {
		t.Fatalf("expected six subscriptions, got %d", len(mounted))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	collector := command.NewResult[core.GrantResult]()
	ctx := command.ContextWithResult(context.Background(), collector)
	if err := Dispatch(ctx, sotsialcommand.GrantMessage{Platform: core.PlatformThreads}); err != nil {
		t.Fatalf("dispatch grant: %v", err)
	}
	grant, ok := collector.Load()
	if !ok || grant.CSRFToken != "verifier" {
		t.Fatalf("unexpected grant result %#v", grant)
	}

	renewed := command.NewResult[core.RefreshResult]()
	ctx = command.ContextWithResult(context.Background(), renewed)
	if err := Dispatch(ctx, sotsialcommand.RefreshMessage{Platform: core.PlatformThreads, Token: "long"}); err != nil {
		t.Fatalf("dispatch refresh: %v", err)
	}
	if refreshed, ok := renewed.Load(); !ok || refreshed.AccessToken != "renewed-long" {
		t.Fatalf("unexpected refresh result %#v", refreshed)
	}

	check, err := Query[sotsialquery.LocalValidateMessage, core.ScopeCheck](context.Background(), sotsialquery.LocalValidateMessage{
		Platform: core.PlatformThreads,
		Received: []string{"threads_basic"},
	})
	if err != nil {
		t.Fatalf("query local validate: %v", err)
	}
	if !check.Valid {
		t.Fatalf("expected valid scope check")
	}
}

func TestMountFacade_RequiresFacade(t *testing.T) {
	if _, err := MountFacade(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected missing facade error")
	}
}
