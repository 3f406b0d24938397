package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/security"
)

const defaultCallbackAddr = "127.0.0.1:8787"

// fileConfig is the on disk layout of sotsial.toml. String values may
// reference environment variables as $NAME or ${NAME}.
type fileConfig struct {
	// EncryptedTokens marks account tokens as hex(iv):hex(ct) ciphertexts
	// produced by the encrypt subcommand.
	EncryptedTokens bool                          `toml:"encrypted_tokens"`
	Engine          map[string]any                `toml:"engine"`
	Callback        callbackConfig                `toml:"callback"`
	Platforms       map[string]core.PlatformSetup `toml:"platforms"`
}

type callbackConfig struct {
	Addr string `toml:"addr"`
}

// loadFileConfig decodes path. A missing file yields an empty config so
// encrypt and decrypt work without one.
func loadFileConfig(path string) (fileConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return fileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) callbackAddr() string {
	if addr := strings.TrimSpace(os.ExpandEnv(fc.Callback.Addr)); addr != "" {
		return addr
	}
	return defaultCallbackAddr
}

// engineConfig resolves the [engine] table over the library defaults.
func (fc fileConfig) engineConfig(ctx context.Context) (core.Config, error) {
	return core.ResolveConfig(ctx, core.MapConfigLoader{Values: fc.Engine}, core.Config{})
}

// setup maps the [platforms] tables to provider setups, expanding env
// references and decrypting account tokens when they are stored encrypted.
func (fc fileConfig) setup(secret string) (map[core.Platform]core.PlatformSetup, error) {
	var cipher *security.TokenCipher
	if fc.EncryptedTokens {
		var err error
		cipher, err = security.NewTokenCipher(secret)
		if err != nil {
			return nil, fmt.Errorf("encrypted_tokens requires --secret or SOTSIAL_SECRET: %w", err)
		}
	}

	names := make([]string, 0, len(fc.Platforms))
	for name := range fc.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[core.Platform]core.PlatformSetup, len(names))
	for _, name := range names {
		platform, err := core.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		entry := fc.Platforms[name]
		setup := core.PlatformSetup{
			Config: core.ProviderConfig{
				ClientID:     os.ExpandEnv(entry.Config.ClientID),
				ClientSecret: os.ExpandEnv(entry.Config.ClientSecret),
				RedirectURI:  os.ExpandEnv(entry.Config.RedirectURI),
				Scopes:       append([]string(nil), entry.Config.Scopes...),
			},
		}
		for i, account := range entry.Accounts {
			token := os.ExpandEnv(account.AccessToken)
			if cipher != nil {
				plain, ok := cipher.Decrypt(token)
				if !ok {
					return nil, fmt.Errorf("platforms.%s.accounts[%d]: access token does not decrypt with the configured secret", name, i)
				}
				token = plain
			}
			setup.Accounts = append(setup.Accounts, core.Account{
				ID:          os.ExpandEnv(account.ID),
				AccessToken: token,
			})
		}
		out[platform] = setup
	}
	return out, nil
}

// loadPost decodes a post description. Shared fields sit at the top level and
// per platform overrides under [threads], [tiktok] and so on.
func loadPost(path string) (core.Post, error) {
	var post core.Post
	data, err := os.ReadFile(path)
	if err != nil {
		return post, fmt.Errorf("read post %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &post); err != nil {
		return post, fmt.Errorf("parse post %s: %w", path, err)
	}
	return post, nil
}
