package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gocmd "github.com/goliatone/go-command"
	sotsial "github.com/goliatone/go-sotsial"
	"github.com/goliatone/go-sotsial/adapters/charmlog"
	"github.com/goliatone/go-sotsial/adapters/gocommand"
	sotsialcommand "github.com/goliatone/go-sotsial/command"
	"github.com/goliatone/go-sotsial/core"
	sotsialquery "github.com/goliatone/go-sotsial/query"
	"github.com/goliatone/go-sotsial/security"
)

type globalOptions struct {
	ConfigPath string `short:"c" long:"config" env:"SOTSIAL_CONFIG" default:"sotsial.toml" description:"TOML file with engine settings and platform credentials"`
	LogLevel   string `long:"log-level" env:"SOTSIAL_LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
	JSONLogs   bool   `long:"json-logs" description:"Emit logs as JSON"`
	Secret     string `long:"secret" env:"SOTSIAL_SECRET" description:"Secret for token encryption"`
}

// application carries the state shared by every subcommand.
type application struct {
	opts   globalOptions
	stdout io.Writer
	stderr io.Writer
	// clientOptions are appended after the file derived options.
	clientOptions []sotsial.Option
}

func (a *application) logger() (*charmlog.Logger, error) {
	return charmlog.New(a.stderr, charmlog.Options{
		Level:      a.opts.LogLevel,
		Prefix:     "sotsial",
		JSON:       a.opts.JSONLogs,
		Timestamps: true,
	})
}

func (a *application) facade(ctx context.Context) (*sotsial.Facade, error) {
	fc, err := loadFileConfig(a.opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	engine, err := fc.engineConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	setup, err := fc.setup(a.opts.Secret)
	if err != nil {
		return nil, err
	}
	logger, err := a.logger()
	if err != nil {
		return nil, err
	}

	opts := []sotsial.Option{
		sotsial.WithConfig(engine),
		sotsial.WithLogger(logger),
		sotsial.WithLoggerProvider(charmlog.NewProvider(logger)),
	}
	opts = append(opts, a.clientOptions...)
	client, err := sotsial.New(setup, opts...)
	if err != nil {
		return nil, err
	}
	return sotsial.NewFacade(client)
}

// session is a facade mounted on a command registry for one invocation.
// Subcommands dispatch messages by type instead of calling handlers.
type session struct {
	mounted gocommand.Mounted
}

func (a *application) open(ctx context.Context) (*session, error) {
	facade, err := a.facade(ctx)
	if err != nil {
		return nil, err
	}
	adapter := gocommand.NewRegistryAdapter(nil)
	mounted, err := gocommand.MountFacade(adapter, facade)
	if err != nil {
		return nil, err
	}
	if err := adapter.Initialize(); err != nil {
		mounted.Unsubscribe()
		return nil, err
	}
	return &session{mounted: mounted}, nil
}

func (s *session) Close() {
	if s != nil {
		s.mounted.Unsubscribe()
	}
}

// execute dispatches msg and returns what its handler stored.
func execute[R any, T any](ctx context.Context, msg T) (R, error) {
	collector := gocmd.NewResult[R]()
	if err := gocommand.Dispatch(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		var zero R
		return zero, err
	}
	result, _ := collector.Load()
	return result, nil
}

func (a *application) cipher() (*security.TokenCipher, error) {
	return security.NewTokenCipher(a.opts.Secret)
}

func (a *application) writeJSON(value any) error {
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parsePlatforms(names []string) ([]core.Platform, error) {
	out := make([]core.Platform, 0, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			platform, err := core.ParsePlatform(part)
			if err != nil {
				return nil, err
			}
			out = append(out, platform)
		}
	}
	return out, nil
}

type grantCommand struct {
	app      *application
	Platform string   `short:"p" long:"platform" required:"true" description:"Platform to authorise"`
	Scopes   []string `short:"s" long:"scope" description:"Scope to request, repeatable"`
}

func (c *grantCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	result, err := c.run(ctx)
	if err != nil {
		return err
	}
	return c.app.writeJSON(result)
}

func (c *grantCommand) run(ctx context.Context) (core.GrantResult, error) {
	platform, err := core.ParsePlatform(c.Platform)
	if err != nil {
		return core.GrantResult{}, err
	}
	sess, err := c.app.open(ctx)
	if err != nil {
		return core.GrantResult{}, err
	}
	defer sess.Close()
	return execute[core.GrantResult](ctx, sotsialcommand.GrantMessage{
		Platform: platform,
		Scopes:   c.Scopes,
	})
}

type exchangeCommand struct {
	app      *application
	Platform string        `short:"p" long:"platform" required:"true" description:"Platform to exchange the code with"`
	Code     string        `long:"code" description:"Authorization code; omit to run the browser flow with a local callback"`
	CSRF     string        `long:"csrf" description:"CSRF token returned by grant"`
	Scopes   []string      `short:"s" long:"scope" description:"Scope to request in the browser flow, repeatable"`
	Timeout  time.Duration `long:"timeout" default:"5m" description:"How long to wait for the callback"`
	Encrypt  bool          `long:"encrypt" description:"Encrypt returned tokens with the configured secret"`
}

func (c *exchangeCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	accounts, err := c.run(ctx)
	if err != nil {
		return err
	}
	return c.app.writeJSON(accounts)
}

func (c *exchangeCommand) run(ctx context.Context) ([]core.ExchangeResult, error) {
	platform, err := core.ParsePlatform(c.Platform)
	if err != nil {
		return nil, err
	}
	sess, err := c.app.open(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	request := core.ExchangeRequest{Code: c.Code, CSRFToken: c.CSRF}
	if strings.TrimSpace(request.Code) == "" {
		request, err = c.browserFlow(ctx, platform)
		if err != nil {
			return nil, err
		}
	}

	accounts, err := execute[[]core.ExchangeResult](ctx, sotsialcommand.ExchangeMessage{
		Platform: platform,
		Request:  request,
	})
	if err != nil {
		return nil, err
	}
	if !c.Encrypt {
		return accounts, nil
	}
	return c.encryptTokens(accounts)
}

func (c *exchangeCommand) browserFlow(ctx context.Context, platform core.Platform) (core.ExchangeRequest, error) {
	grant, err := execute[core.GrantResult](ctx, sotsialcommand.GrantMessage{
		Platform: platform,
		Scopes:   c.Scopes,
	})
	if err != nil {
		return core.ExchangeRequest{}, err
	}

	fc, err := loadFileConfig(c.app.opts.ConfigPath)
	if err != nil {
		return core.ExchangeRequest{}, err
	}
	addr := fc.callbackAddr()
	_, _ = fmt.Fprintf(c.app.stderr, "Open this URL to authorise %s:\n\n  %s\n\nWaiting for the redirect on http://%s/callback/%s\n",
		platform.Label(), grant.URL, addr, platform)

	waitCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	cb, err := awaitCallback(waitCtx, addr, platform)
	if err != nil {
		return core.ExchangeRequest{}, err
	}
	if cb.State != grant.CSRFToken {
		return core.ExchangeRequest{}, core.ValidationError("state", "Callback state does not match the issued CSRF token")
	}
	return core.ExchangeRequest{Code: cb.Code, CSRFToken: grant.CSRFToken}, nil
}

func (c *exchangeCommand) encryptTokens(accounts []core.ExchangeResult) ([]core.ExchangeResult, error) {
	cipher, err := c.app.cipher()
	if err != nil {
		return nil, err
	}
	out := make([]core.ExchangeResult, 0, len(accounts))
	for _, account := range accounts {
		if account.AccessToken, err = cipher.Encrypt(account.AccessToken); err != nil {
			return nil, err
		}
		if account.RefreshToken, err = cipher.Encrypt(account.RefreshToken); err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

type refreshCommand struct {
	app      *application
	Platform string `short:"p" long:"platform" required:"true" description:"Platform that issued the token"`
	Token    string `long:"token" required:"true" description:"Refresh token, or the long lived access token on Threads and Instagram"`
	Encrypt  bool   `long:"encrypt" description:"Encrypt returned tokens with the configured secret"`
}

func (c *refreshCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	result, err := c.run(ctx)
	if err != nil {
		return err
	}
	return c.app.writeJSON(result)
}

func (c *refreshCommand) run(ctx context.Context) (core.RefreshResult, error) {
	platform, err := core.ParsePlatform(c.Platform)
	if err != nil {
		return core.RefreshResult{}, err
	}
	sess, err := c.app.open(ctx)
	if err != nil {
		return core.RefreshResult{}, err
	}
	defer sess.Close()

	result, err := execute[core.RefreshResult](ctx, sotsialcommand.RefreshMessage{Platform: platform, Token: c.Token})
	if err != nil || !c.Encrypt {
		return result, err
	}
	cipher, err := c.app.cipher()
	if err != nil {
		return core.RefreshResult{}, err
	}
	if result.AccessToken, err = cipher.Encrypt(result.AccessToken); err != nil {
		return core.RefreshResult{}, err
	}
	if result.RefreshToken, err = cipher.Encrypt(result.RefreshToken); err != nil {
		return core.RefreshResult{}, err
	}
	return result, nil
}

type validateCommand struct {
	app         *application
	Platform    string   `short:"p" long:"platform" required:"true" description:"Platform that issued the token"`
	AccessToken string   `long:"token" required:"true" description:"Access token to inspect"`
	Scopes      []string `short:"s" long:"scope" description:"Scope expected on the token, repeatable"`
}

func (c *validateCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	platform, err := core.ParsePlatform(c.Platform)
	if err != nil {
		return err
	}
	sess, err := c.app.open(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	result, err := gocommand.Query[sotsialquery.ValidateMessage, core.ValidateResult](ctx, sotsialquery.ValidateMessage{
		Platform:    platform,
		AccessToken: c.AccessToken,
		Scopes:      c.Scopes,
	})
	if err != nil {
		return err
	}
	check, err := gocommand.Query[sotsialquery.LocalValidateMessage, core.ScopeCheck](ctx, sotsialquery.LocalValidateMessage{
		Platform: platform,
		Received: result.Scopes,
	})
	if err != nil {
		return err
	}
	return c.app.writeJSON(map[string]any{"token": result, "scopes": check})
}

type publishCommand struct {
	app       *application
	PostFile  string   `short:"f" long:"file" description:"TOML post description with optional per platform sections"`
	Text      string   `short:"t" long:"text" description:"Shared post text"`
	Images    []string `long:"image" description:"Image URL, repeatable"`
	Videos    []string `long:"video" description:"Video URL, repeatable"`
	Platforms []string `short:"p" long:"platform" description:"Target platform, repeatable; defaults to every configured platform"`
}

func (c *publishCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	results, err := c.run(ctx)
	if err != nil {
		return err
	}
	if err := c.app.writeJSON(results); err != nil {
		return err
	}
	for platform, result := range results {
		if !result.OK() {
			return fmt.Errorf("publishing to %s failed: %s", platform.Label(), result.Error.Message)
		}
	}
	return nil
}

func (c *publishCommand) run(ctx context.Context) (map[core.Platform]core.Result[[]core.PublishOutcome], error) {
	post, err := c.post()
	if err != nil {
		return nil, err
	}
	platforms, err := parsePlatforms(c.Platforms)
	if err != nil {
		return nil, err
	}
	sess, err := c.app.open(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return execute[map[core.Platform]core.Result[[]core.PublishOutcome]](ctx, sotsialcommand.PublishMessage{
		Post:      post,
		Platforms: platforms,
	})
}

func (c *publishCommand) post() (core.Post, error) {
	var post core.Post
	if strings.TrimSpace(c.PostFile) != "" {
		loaded, err := loadPost(c.PostFile)
		if err != nil {
			return post, err
		}
		post = loaded
	}
	if c.Text != "" {
		post.Text = c.Text
	}
	for _, url := range c.Images {
		post.Media = append(post.Media, core.MediaItem{URL: url, Type: core.MediaImage})
	}
	for _, url := range c.Videos {
		post.Media = append(post.Media, core.MediaItem{URL: url, Type: core.MediaVideo})
	}
	return post, nil
}

type encryptCommand struct {
	app  *application
	Args struct {
		Text string `positional-arg-name:"text" required:"true"`
	} `positional-args:"yes"`
}

func (c *encryptCommand) Execute([]string) error {
	out, err := sotsial.Encrypt(c.Args.Text, c.app.opts.Secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.app.stdout, out)
	return err
}

type decryptCommand struct {
	app  *application
	Args struct {
		Ciphertext string `positional-arg-name:"ciphertext" required:"true"`
	} `positional-args:"yes"`
}

func (c *decryptCommand) Execute([]string) error {
	out, ok := sotsial.Decrypt(c.Args.Ciphertext, c.app.opts.Secret)
	if !ok {
		return fmt.Errorf("ciphertext does not decrypt with the configured secret")
	}
	_, err := fmt.Fprintln(c.app.stdout, out)
	return err
}
