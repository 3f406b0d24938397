package devkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
)

// Origins lists the platform API origins a Server stands in for.
var Origins = []string{
	"https://graph.facebook.com",
	"https://rupload.facebook.com",
	"https://graph.threads.net",
	"https://graph.instagram.com",
	"https://api.instagram.com",
	"https://open.tiktokapis.com",
	"https://www.linkedin.com",
	"https://api.linkedin.com",
	"https://api.twitter.com",
	"https://oauth2.googleapis.com",
	"https://youtube.googleapis.com",
}

// Call is one request observed by the Server.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Form decodes a form encoded body.
func (c Call) Form() url.Values {
	values, _ := url.ParseQuery(string(c.Body))
	return values
}

// JSON decodes a JSON body into a generic map.
func (c Call) JSON() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(c.Body, &out)
	return out
}

// Param returns a value from the query string, falling back to the form body.
func (c Call) Param(key string) string {
	if value := c.Query.Get(key); value != "" {
		return value
	}
	return c.Form().Get(key)
}

// Handler answers a scripted route.
type Handler func(w http.ResponseWriter, call Call)

// Server is an httptest server that routes by method and path, plays
// scripted handlers in order and records every call. The last handler of
// a route repeats once the script runs out.
type Server struct {
	*httptest.Server

	t      testing.TB
	mu     sync.Mutex
	routes map[string][]Handler
	served map[string]int
	calls  []Call

	// Sleeper replaces the poll clock of providers built from Config.
	Sleeper *NoSleep
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:       t,
		routes:  map[string][]Handler{},
		served:  map[string]int{},
		Sleeper: &NoSleep{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Handle scripts the answers of one route.
func (s *Server) Handle(method, path string, handlers ...Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, path)
	s.routes[key] = append(s.routes[key], handlers...)
}

// JSON scripts a fixed JSON answer.
func (s *Server) JSON(method, path string, status int, payload any) {
	s.Handle(method, path, Respond(status, payload))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	call := Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	key := routeKey(r.Method, r.URL.Path)
	script := s.routes[key]
	index := s.served[key]
	s.served[key] = index + 1
	s.mu.Unlock()

	if len(script) == 0 {
		s.t.Errorf("devkit: unexpected request %s", key)
		Respond(http.StatusNotFound, map[string]any{
			"error": map[string]any{"message": "no route for " + key},
		})(w, call)
		return
	}
	if index >= len(script) {
		index = len(script) - 1
	}
	script[index](w, call)
}

// Endpoints maps every platform origin onto the server.
func (s *Server) Endpoints() providers.Endpoints {
	out := providers.Endpoints{}
	for _, origin := range Origins {
		out[origin] = s.Server.URL
	}
	return out
}

// Config returns a provider config wired to the server.
func (s *Server) Config(oauth core.ProviderConfig, accounts ...core.Account) providers.Config {
	return providers.Config{
		OAuth:     oauth,
		Accounts:  accounts,
		Endpoints: s.Endpoints(),
		Runtime: providers.Runtime{
			HTTPClient: s.Client(),
			Sleep:      s.Sleeper.Sleep,
		},
	}
}

// URL joins path onto the server base URL.
func (s *Server) URL(path string) string {
	return s.Server.URL + path
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the calls that hit one route.
func (s *Server) CallsTo(method, path string) []Call {
	out := []Call{}
	for _, call := range s.Calls() {
		if strings.EqualFold(call.Method, method) && call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Respond writes payload as JSON with status.
func Respond(status int, payload any) Handler {
	return func(w http.ResponseWriter, _ Call) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if payload == nil {
			return
		}
		if raw, ok := payload.(string); ok {
			_, _ = io.WriteString(w, raw)
			return
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			panic(fmt.Sprintf("devkit: encode payload: %v", err))
		}
	}
}

// Repeat returns n copies of handler, for scripting polling sequences.
func Repeat(n int, handler Handler) []Handler {
	out := make([]Handler, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, handler)
	}
	return out
}

// NoSleep is a sleeper that returns immediately and counts invocations.
type NoSleep struct {
	mu    sync.Mutex
	count int
}

func (n *NoSleep) Sleep(ctx context.Context, _ time.Duration) error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	return ctx.Err()
}

func (n *NoSleep) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
