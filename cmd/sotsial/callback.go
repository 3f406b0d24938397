package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-sotsial/core"
)

// callback is the authorization response a platform redirects back with.
type callback struct {
	Platform core.Platform
	Code     string
	State    string
}

// callbackRouter serves /callback/{platform} and hands the first valid
// redirect for the expected platform to deliver.
func callbackRouter(expected core.Platform, deliver func(callback)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/callback/{platform}", func(w http.ResponseWriter, req *http.Request) {
		platform, err := core.ParsePlatform(chi.URLParam(req, "platform"))
		if err != nil || platform != expected {
			http.Error(w, "unexpected platform", http.StatusNotFound)
			return
		}
		query := req.URL.Query()
		if reason := query.Get("error"); reason != "" {
			description := query.Get("error_description")
			http.Error(w, fmt.Sprintf("authorization denied: %s %s", reason, description), http.StatusBadRequest)
			return
		}
		code := strings.TrimSpace(query.Get("code"))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		deliver(callback{Platform: platform, Code: code, State: query.Get("state")})
		_, _ = fmt.Fprintf(w, "%s authorization received, you can close this window.\n", platform.Label())
	})
	return r
}

// awaitCallback listens on addr until a redirect arrives or ctx ends.
func awaitCallback(ctx context.Context, addr string, platform core.Platform) (callback, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return callback{}, fmt.Errorf("listen %s: %w", addr, err)
	}

	received := make(chan callback, 1)
	server := &http.Server{
		Handler: callbackRouter(platform, func(cb callback) {
			select {
			case received <- cb:
			default:
			}
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	select {
	case cb := <-received:
		return cb, nil
	case err := <-serveErr:
		return callback{}, err
	case <-ctx.Done():
		return callback{}, ctx.Err()
	}
}
