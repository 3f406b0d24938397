package core

import (
	"fmt"
	"strings"
	"time"
)

type HTTPConfig struct {
	TimeoutSeconds       int   `koanf:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxResponseBodyBytes int64 `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	MaxMediaBytes        int64 `koanf:"max_media_bytes" mapstructure:"max_media_bytes"`
	// MediaTimeoutSeconds bounds media downloads. Zero means no limit.
	MediaTimeoutSeconds  int   `koanf:"media_timeout_seconds" mapstructure:"media_timeout_seconds"`
}

func (c HTTPConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c HTTPConfig) MediaTimeout() time.Duration {
	if c.MediaTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.MediaTimeoutSeconds) * time.Second
}

type MetaConfig struct {
	GraphVersion   string `koanf:"graph_version" mapstructure:"graph_version"`
	ThreadsVersion string `koanf:"threads_version" mapstructure:"threads_version"`
}

// Config holds engine settings. OAuth credentials and accounts are not part
// of it; callers pass those per orchestrator instance.
type Config struct {
	ServiceName string     `koanf:"service_name" mapstructure:"service_name"`
	HTTP        HTTPConfig `koanf:"http" mapstructure:"http"`
	Meta        MetaConfig `koanf:"meta" mapstructure:"meta"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "sotsial",
		HTTP: HTTPConfig{
			TimeoutSeconds:       30,
			MaxResponseBodyBytes: 10 << 20,
			MaxMediaBytes:        512 << 20,
		},
		Meta: MetaConfig{
			GraphVersion:   "v22.0",
			ThreadsVersion: "v1.0",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("core: http.timeout_seconds must not be negative")
	}
	if c.HTTP.MediaTimeoutSeconds < 0 {
		return fmt.Errorf("core: http.media_timeout_seconds must not be negative")
	}
	if c.HTTP.MaxResponseBodyBytes < 0 || c.HTTP.MaxMediaBytes < 0 {
		return fmt.Errorf("core: http body limits must not be negative")
	}
	if !strings.HasPrefix(strings.TrimSpace(c.Meta.GraphVersion), "v") {
		return fmt.Errorf("core: meta.graph_version must look like v22.0")
	}
	if !strings.HasPrefix(strings.TrimSpace(c.Meta.ThreadsVersion), "v") {
		return fmt.Errorf("core: meta.threads_version must look like v1.0")
	}
	return nil
}
