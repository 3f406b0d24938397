package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	sotsial "github.com/goliatone/go-sotsial"
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers/devkit"
	"github.com/jessevdk/go-flags"
)

const testConfig = `
[platforms.tiktok.config]
client_id = "tt-key"
client_secret = "tt-secret"
redirect_uri = "https://app.example/callback/tiktok"
scopes = ["video.publish", "video.upload", "user.info.basic"]

[platforms.threads.config]
client_id = "threads-app"
client_secret = "threads-secret"
redirect_uri = "https://app.example/callback/threads"

[[platforms.threads.accounts]]
id = "42"
access_token = "tok"
`

func newTestApp(server *devkit.Server) (*application, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	app := &application{stdout: stdout, stderr: &bytes.Buffer{}}
	if server != nil {
		app.clientOptions = []sotsial.Option{
			sotsial.WithHTTPClient(server.Client()),
			sotsial.WithEndpoints(server.Endpoints()),
		}
	}
	return app, stdout
}

func TestRun_EncryptDecryptRoundTrip(t *testing.T) {
	app, stdout := newTestApp(nil)
	if err := run(app, []string{"--secret", "cli-secret", "encrypt", "hello"}, flags.HelpFlag); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	sealed := strings.TrimSpace(stdout.String())
	if parts := strings.Split(sealed, ":"); len(parts) != 2 || len(parts[0]) != 32 {
		t.Fatalf("expected hex(iv):hex(ct), got %q", sealed)
	}

	app, stdout = newTestApp(nil)
	if err := run(app, []string{"--secret", "cli-secret", "decrypt", sealed}, flags.HelpFlag); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}

	app, _ = newTestApp(nil)
	if err := run(app, []string{"--secret", "other", "decrypt", sealed}, flags.HelpFlag); err == nil {
		t.Fatalf("expected decrypt failure with the wrong secret")
	}
}

func TestRun_GrantPrintsAuthorisationURL(t *testing.T) {
	path := writeFile(t, "sotsial.toml", testConfig)
	app, stdout := newTestApp(nil)

	if err := run(app, []string{"-c", path, "grant", "-p", "tiktok"}, flags.HelpFlag); err != nil {
		t.Fatalf("grant: %v", err)
	}
	var grant core.GrantResult
	if err := json.Unmarshal(stdout.Bytes(), &grant); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	parsed, err := url.Parse(grant.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Query().Get("client_key") != "tt-key" || parsed.Query().Get("state") != grant.CSRFToken {
		t.Fatalf("unexpected grant %+v", grant)
	}
}

func TestRun_GrantUnconfiguredPlatformFails(t *testing.T) {
	path := writeFile(t, "sotsial.toml", testConfig)
	app, _ := newTestApp(nil)

	err := run(app, []string{"-c", path, "grant", "-p", "linkedin"}, flags.HelpFlag)
	if err == nil {
		t.Fatalf("expected unconfigured platform error")
	}
	if !strings.Contains(err.Error(), "LinkedIn provider not initialised") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRun_ExchangeEncryptsTokens(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v2/oauth/token/", http.StatusOK, map[string]any{
		"access_token":       "act",
		"refresh_token":      "rft",
		"open_id":            "open-1",
		"scope":              "video.publish,video.upload,user.info.basic",
		"expires_in":         86400,
		"refresh_expires_in": 31536000,
	})
	path := writeFile(t, "sotsial.toml", testConfig)
	app, stdout := newTestApp(server)

	args := []string{"-c", path, "--secret", "cli-secret", "exchange", "-p", "tiktok", "--code", "code", "--csrf", "verifier", "--encrypt"}
	if err := run(app, args, flags.HelpFlag); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	var accounts []core.ExchangeResult
	if err := json.Unmarshal(stdout.Bytes(), &accounts); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(accounts) != 1 || accounts[0].AccountID != "open-1" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
	if accounts[0].AccessToken == "act" {
		t.Fatalf("expected an encrypted access token")
	}
	if plain, ok := sotsial.Decrypt(accounts[0].AccessToken, "cli-secret"); !ok || plain != "act" {
		t.Fatalf("expected access token to decrypt to act, got %q", plain)
	}
	form := server.CallsTo(http.MethodPost, "/v2/oauth/token/")[0].Form()
	if form.Get("code_verifier") != "verifier" || form.Get("code") != "code" {
		t.Fatalf("unexpected token form %v", form)
	}
}

func TestRun_PublishReportsPerPlatformResults(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v1.0/42/threads", http.StatusOK, map[string]any{"id": "container-1"})
	server.JSON(http.MethodPost, "/v1.0/42/threads_publish", http.StatusOK, map[string]any{"id": "post-1"})
	path := writeFile(t, "sotsial.toml", testConfig)

	t.Run("configured platform", func(t *testing.T) {
		app, stdout := newTestApp(server)
		if err := run(app, []string{"-c", path, "publish", "-t", "hello", "-p", "threads"}, flags.HelpFlag); err != nil {
			t.Fatalf("publish: %v", err)
		}
		var results map[core.Platform]core.Result[[]core.PublishOutcome]
		if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		threads := results[core.PlatformThreads]
		if threads.Error != nil || len(threads.Data) != 1 || threads.Data[0].PostID != "post-1" {
			t.Fatalf("unexpected threads result %+v", threads)
		}
	})

	t.Run("unconfigured platform", func(t *testing.T) {
		app, stdout := newTestApp(server)
		err := run(app, []string{"-c", path, "publish", "-t", "hello", "-p", "threads,linkedin"}, flags.HelpFlag)
		if err == nil {
			t.Fatalf("expected publish failure")
		}
		var results map[core.Platform]core.Result[[]core.PublishOutcome]
		if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		linkedin := results[core.PlatformLinkedIn]
		if linkedin.Error == nil || linkedin.Error.Message != "LinkedIn provider not initialised" {
			t.Fatalf("unexpected linkedin result %+v", linkedin)
		}
		if results[core.PlatformThreads].Error != nil {
			t.Fatalf("expected threads to publish, got %+v", results[core.PlatformThreads].Error)
		}
	})
}

func TestRun_RefreshDispatchesThroughRegistry(t *testing.T) {
	server := devkit.NewServer(t)
	server.JSON(http.MethodPost, "/v2/oauth/token/", http.StatusOK, map[string]any{
		"access_token":  "act-2",
		"refresh_token": "rft-2",
		"expires_in":    86400,
	})
	server.JSON(http.MethodGet, "/refresh_access_token", http.StatusOK, map[string]any{"access_token": "long-2", "expires_in": 5184000})
	path := writeFile(t, "sotsial.toml", testConfig)

	t.Run("tiktok refresh token", func(t *testing.T) {
		app, stdout := newTestApp(server)
		if err := run(app, []string{"-c", path, "refresh", "-p", "tiktok", "--token", "rft"}, flags.HelpFlag); err != nil {
			t.Fatalf("refresh: %v", err)
		}
		var renewed core.RefreshResult
		if err := json.Unmarshal(stdout.Bytes(), &renewed); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if renewed.AccessToken != "act-2" || renewed.RefreshToken != "rft-2" {
			t.Fatalf("unexpected refresh result %+v", renewed)
		}
		form := server.CallsTo(http.MethodPost, "/v2/oauth/token/")[0].Form()
		if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "rft" || form.Get("client_key") != "tt-key" {
			t.Fatalf("unexpected refresh form %v", form)
		}
	})

	t.Run("threads long lived token encrypted", func(t *testing.T) {
		app, stdout := newTestApp(server)
		args := []string{"-c", path, "--secret", "cli-secret", "refresh", "-p", "threads", "--token", "long", "--encrypt"}
		if err := run(app, args, flags.HelpFlag); err != nil {
			t.Fatalf("refresh: %v", err)
		}
		var renewed core.RefreshResult
		if err := json.Unmarshal(stdout.Bytes(), &renewed); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if plain, ok := sotsial.Decrypt(renewed.AccessToken, "cli-secret"); !ok || plain != "long-2" {
			t.Fatalf("expected access token to decrypt to long-2, got %q", plain)
		}
	})

	t.Run("unconfigured platform", func(t *testing.T) {
		app, _ := newTestApp(server)
		err := run(app, []string{"-c", path, "refresh", "-p", "twitter", "--token", "rft"}, flags.HelpFlag)
		if err == nil || !strings.Contains(err.Error(), "Twitter provider not initialised") {
			t.Fatalf("expected unconfigured platform error, got %v", err)
		}
	})
}

func TestRun_SubcommandsReleaseRegistrySubscriptions(t *testing.T) {
	path := writeFile(t, "sotsial.toml", testConfig)
	for i := 0; i < 3; i++ {
		app, stdout := newTestApp(nil)
		if err := run(app, []string{"-c", path, "grant", "-p", "tiktok"}, flags.HelpFlag); err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
		var grant core.GrantResult
		if err := json.Unmarshal(stdout.Bytes(), &grant); err != nil {
			t.Fatalf("decode output %d: %v", i, err)
		}
		if grant.URL == "" || grant.CSRFToken == "" {
			t.Fatalf("unexpected grant %d %+v", i, grant)
		}
	}
}
