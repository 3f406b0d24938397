package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Provider is the capability contract every platform implements. Methods
// never panic on runtime conditions; failures are reported in the Result.
type Provider interface {
	Platform() Platform
	Grant(ctx context.Context, scopes ...string) Result[GrantResult]
	Validate(ctx context.Context, accessToken string, scopes []string) Result[ValidateResult]
	Exchange(ctx context.Context, req ExchangeRequest) Result[[]ExchangeResult]
	// Refresh renews a credential. token is the refresh token on platforms
	// that issue one and the long lived access token on the Meta family.
	Refresh(ctx context.Context, token string) Result[RefreshResult]
	Publish(ctx context.Context, content PostContent) Result[[]PublishOutcome]
	LocalValidate(received []string) ScopeCheck
}

// AccountHolder is implemented by providers that publish through accounts.
type AccountHolder interface {
	Accounts() []Account
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// OK reports a 2xx status.
func (r TransportResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func ContextSleep(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
