// Command sotsial authorises accounts and publishes posts from a shell.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

func main() {
	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	app := &application{stdout: os.Stdout, stderr: os.Stderr}
	if err := run(app, os.Args[1:], flags.Default); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func newParser(app *application, options flags.Options) (*flags.Parser, error) {
	parser := flags.NewParser(&app.opts, options)
	parser.Name = "sotsial"

	subcommands := []struct {
		name, short, long string
		data              any
	}{
		{"grant", "Build an authorisation URL", "Build the authorisation URL and CSRF token for a platform.", &grantCommand{app: app}},
		{"exchange", "Exchange an authorisation code", "Exchange a code for account tokens. Without --code a local callback server captures the redirect.", &exchangeCommand{app: app}},
		{"refresh", "Renew a stored token", "Redeem a refresh token, or extend a long lived Threads or Instagram token.", &refreshCommand{app: app}},
		{"validate", "Inspect a token's scopes", "Report the scopes a token carries and compare them with the configured scopes.", &validateCommand{app: app}},
		{"publish", "Publish a post", "Publish one post to every configured platform, or to the ones named with --platform.", &publishCommand{app: app}},
		{"encrypt", "Encrypt a token", "Encrypt text with the configured secret.", &encryptCommand{app: app}},
		{"decrypt", "Decrypt a token", "Decrypt text produced by encrypt.", &decryptCommand{app: app}},
	}
	for _, sub := range subcommands {
		if _, err := parser.AddCommand(sub.name, sub.short, sub.long, sub.data); err != nil {
			return nil, err
		}
	}
	return parser, nil
}

func run(app *application, args []string, options flags.Options) error {
	parser, err := newParser(app, options)
	if err != nil {
		return err
	}
	_, err = parser.ParseArgs(args)
	return err
}
