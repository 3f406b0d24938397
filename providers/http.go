package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/transport"
)

// Call executes req and turns transport failures and non 2xx answers into
// platform errors prefixed with failure.
func (b *Base) Call(ctx context.Context, req core.TransportRequest, failure string) (core.TransportResponse, error) {
	if req.Timeout == 0 {
		req.Timeout = b.runtime.Settings.HTTP.Timeout()
	}
	return b.do(ctx, b.runtime.Transport, req, failure)
}

// FetchMedia downloads rawURL through the media transport. Only
// http.media_timeout_seconds bounds the transfer.
func (b *Base) FetchMedia(ctx context.Context, rawURL, failure string) (core.TransportResponse, error) {
	req := core.TransportRequest{
		Method:               http.MethodGet,
		URL:                  rawURL,
		Timeout:              b.runtime.Settings.HTTP.MediaTimeout(),
		MaxResponseBodyBytes: b.runtime.Settings.HTTP.MaxMediaBytes,
	}
	return b.do(ctx, b.runtime.MediaTransport, req, failure)
}

func (b *Base) do(ctx context.Context, adapter core.TransportAdapter, req core.TransportRequest, failure string) (core.TransportResponse, error) {
	req.URL = b.URL(req.URL)
	res, err := adapter.Do(ctx, req)
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryExternal, failure).
			WithTextCode(core.ErrorPlatformRejected)
		return res, core.MapError(wrapped)
	}
	if !res.OK() {
		message := failure
		if detail := DescribePlatformError(res.Body); detail != "" {
			message = failure + ": " + detail
		}
		return res, core.PlatformError(message, res.StatusCode, res.Body)
	}
	return res, nil
}

// CallJSON is Call followed by decoding the JSON body into target.
func (b *Base) CallJSON(ctx context.Context, req core.TransportRequest, failure string, target any) error {
	res, err := b.Call(ctx, req, failure)
	if err != nil {
		return err
	}
	if err := transport.DecodeJSON(res, target); err != nil {
		return core.PlatformError(failure+": unreadable response", res.StatusCode, res.Body)
	}
	return nil
}

// DescribePlatformError extracts a human message from the error shapes the
// supported platforms return.
func DescribePlatformError(body []byte) string {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	switch typed := decoded["error"].(type) {
	case map[string]any:
		for _, key := range []string{"error_user_msg", "message", "code"} {
			if text := readAnyString(typed[key]); text != "" && text != "ok" {
				return text
			}
		}
	case string:
		if description := readAnyString(decoded["error_description"]); description != "" {
			return description
		}
		if typed != "" {
			return typed
		}
	}
	for _, key := range []string{"error_description", "detail", "message", "title"} {
		if text := readAnyString(decoded[key]); text != "" {
			return text
		}
	}
	return ""
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprint(typed)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
