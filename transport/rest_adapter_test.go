package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-sotsial/core"
)

func TestRESTAdapter_SendsQueryHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Query().Get("fields"); got != "id,name" {
			t.Fatalf("expected merged query fields, got %q", got)
		}
		if got := r.URL.Query().Get("keep"); got != "1" {
			t.Fatalf("expected url query to be preserved, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("expected bearer header, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != defaultUserAgent {
			t.Fatalf("expected default user agent, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Fatalf("unexpected body %q", string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	req, err := JSONRequest(http.MethodPost, server.URL+"/v1/me?keep=1", map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("json request: %v", err)
	}
	req.Query = map[string]string{"fields": "id,name"}
	res, err := adapter.Do(context.Background(), WithBearer(req, "tok"))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected 2xx, got %d", res.StatusCode)
	}
	var decoded struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(res, &decoded); err != nil || !decoded.OK {
		t.Fatalf("expected decoded body, got %+v (%v)", decoded, err)
	}
}

func TestRESTAdapter_EnforcesBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	_, err := adapter.Do(context.Background(), core.TransportRequest{
		URL:                  server.URL,
		MaxResponseBodyBytes: 16,
	})
	if err == nil {
		t.Fatalf("expected body limit error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorPlatformRejected {
		t.Fatalf("expected external transport error, got %v", err)
	}
}

func TestRESTAdapter_RejectsInvalidURL(t *testing.T) {
	adapter := NewRESTAdapter(nil)
	if _, err := adapter.Do(context.Background(), core.TransportRequest{URL: "not a url"}); err == nil {
		t.Fatalf("expected invalid url error")
	}
}

func TestFormRequest(t *testing.T) {
	req := FormRequest(http.MethodPost, "https://example.com/token", url.Values{"code": {"abc"}})
	if req.Headers["Content-Type"] != "application/x-www-form-urlencoded" {
		t.Fatalf("expected form content type")
	}
	if string(req.Body) != "code=abc" {
		t.Fatalf("unexpected body %q", string(req.Body))
	}
}

func TestRedactURL(t *testing.T) {
	redacted := RedactURL("https://graph.facebook.com/debug_token?input_token=secret&access_token=app|secret&fields=id")
	if strings.Contains(redacted, "secret") {
		t.Fatalf("expected credentials to be redacted, got %q", redacted)
	}
	if !strings.Contains(redacted, "fields=id") {
		t.Fatalf("expected non sensitive params to be kept, got %q", redacted)
	}
}
