package providers

import (
	"net/http"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/transport"
)

// Runtime carries the collaborators a provider needs besides its OAuth
// configuration.
type Runtime struct {
	Transport  core.TransportAdapter
	HTTPClient *http.Client
	// MediaTransport serves media downloads. It is not bound by the API
	// timeout, only by http.media_timeout_seconds.
	MediaTransport  core.TransportAdapter
	MediaHTTPClient *http.Client
	Logger          core.Logger
	Settings        core.Config
	Now             func() time.Time
	Sleep           core.Sleeper
}

// Normalize fills unset collaborators with defaults.
func (r Runtime) Normalize() Runtime {
	if r.Settings.ServiceName == "" {
		r.Settings = core.DefaultConfig()
	}
	if r.Logger == nil {
		r.Logger = core.ResolveLogger("sotsial", nil, nil)
	}
	if r.MediaHTTPClient == nil {
		media := &http.Client{}
		if r.HTTPClient != nil {
			*media = *r.HTTPClient
		}
		media.Timeout = r.Settings.HTTP.MediaTimeout()
		r.MediaHTTPClient = media
	}
	if r.HTTPClient == nil {
		r.HTTPClient = &http.Client{Timeout: r.Settings.HTTP.Timeout()}
	}
	if r.MediaTransport == nil {
		if r.Transport != nil {
			r.MediaTransport = r.Transport
		} else {
			r.MediaTransport = r.restAdapter(r.MediaHTTPClient, r.Settings.HTTP.MaxMediaBytes)
		}
	}
	if r.Transport == nil {
		r.Transport = r.restAdapter(r.HTTPClient, r.Settings.HTTP.MaxResponseBodyBytes)
	}
	if r.Now == nil {
		r.Now = func() time.Time {
			return time.Now().UTC()
		}
	}
	if r.Sleep == nil {
		r.Sleep = core.ContextSleep
	}
	return r
}

func (r Runtime) restAdapter(client *http.Client, bodyLimit int64) *transport.RESTAdapter {
	adapter := transport.NewRESTAdapter(client)
	adapter.Logger = r.Logger
	if bodyLimit > 0 {
		adapter.MaxResponseBodyBytes = bodyLimit
	}
	return adapter
}
