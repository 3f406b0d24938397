package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/security"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFileConfig_MissingFileIsEmpty(t *testing.T) {
	fc, err := loadFileConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(fc.Platforms) != 0 || fc.callbackAddr() != defaultCallbackAddr {
		t.Fatalf("unexpected config %#v", fc)
	}
}

func TestLoadFileConfig_MapsPlatformsWithEnvExpansion(t *testing.T) {
	t.Setenv("SOTSIAL_TEST_THREADS_SECRET", "from-env")
	path := writeFile(t, "sotsial.toml", `
[engine]
service_name = "cli"

[engine.http]
timeout_seconds = 5

[callback]
addr = "127.0.0.1:9999"

[platforms.threads.config]
client_id = "threads-app"
client_secret = "${SOTSIAL_TEST_THREADS_SECRET}"
redirect_uri = "https://app.example/callback/threads"
scopes = ["threads_basic", "threads_content_publish"]

[[platforms.threads.accounts]]
id = "user-1"
access_token = "plain-token"
`)

	fc, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.callbackAddr() != "127.0.0.1:9999" {
		t.Fatalf("expected callback addr override, got %q", fc.callbackAddr())
	}

	setup, err := fc.setup("")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	threads, ok := setup[core.PlatformThreads]
	if !ok {
		t.Fatalf("expected threads setup, got %#v", setup)
	}
	if threads.Config.ClientSecret != "from-env" {
		t.Fatalf("expected expanded secret, got %q", threads.Config.ClientSecret)
	}
	if len(threads.Config.Scopes) != 2 || len(threads.Accounts) != 1 || threads.Accounts[0].AccessToken != "plain-token" {
		t.Fatalf("unexpected threads setup %#v", threads)
	}

	engine, err := fc.engineConfig(context.Background())
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	if engine.ServiceName != "cli" || engine.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("unexpected engine config %#v", engine)
	}
	if engine.Meta.GraphVersion != core.DefaultConfig().Meta.GraphVersion {
		t.Fatalf("expected default graph version, got %q", engine.Meta.GraphVersion)
	}
}

func TestFileConfigSetup_DecryptsAccountTokens(t *testing.T) {
	cipher, err := security.NewTokenCipher("cli-secret")
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	sealed, err := cipher.Encrypt("page-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	fc := fileConfig{
		EncryptedTokens: true,
		Platforms: map[string]core.PlatformSetup{
			"facebook": {Accounts: []core.Account{{ID: "page-1", AccessToken: sealed}}},
		},
	}

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "matching secret", secret: "cli-secret"},
		{name: "wrong secret", secret: "other", wantErr: true},
		{name: "missing secret", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup, err := fc.setup(tt.secret)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if got := setup[core.PlatformFacebook].Accounts[0].AccessToken; got != "page-token" {
				t.Fatalf("expected decrypted token, got %q", got)
			}
		})
	}
}

func TestFileConfigSetup_RejectsUnknownPlatform(t *testing.T) {
	fc := fileConfig{Platforms: map[string]core.PlatformSetup{"myspace": {}}}
	if _, err := fc.setup(""); err == nil {
		t.Fatalf("expected unknown platform error")
	}
}

func TestLoadPost_MergesOverrides(t *testing.T) {
	path := writeFile(t, "post.toml", `
text = "Launch day"

[[media]]
url = "https://cdn.example/launch.jpg"
type = "image"

[threads]
text = "Launch day on Threads"

[tiktok]
tk_type = "image"
`)

	post, err := loadPost(path)
	if err != nil {
		t.Fatalf("load post: %v", err)
	}
	if post.Text != "Launch day" || len(post.Media) != 1 {
		t.Fatalf("unexpected shared content %#v", post.Content)
	}
	threads := post.ContentFor(core.PlatformThreads).Common()
	if threads.Text != "Launch day on Threads" || len(threads.Media) != 1 {
		t.Fatalf("unexpected threads content %#v", threads)
	}
	tiktok, ok := post.ContentFor(core.PlatformTikTok).(core.TikTokPost)
	if !ok || tiktok.Kind() != core.TikTokImage {
		t.Fatalf("unexpected tiktok content %#v", post.ContentFor(core.PlatformTikTok))
	}
}
