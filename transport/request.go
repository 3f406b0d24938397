package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-sotsial/core"
)

func GetRequest(rawURL string, query map[string]string) core.TransportRequest {
	return core.TransportRequest{
		Method:  http.MethodGet,
		URL:     rawURL,
		Query:   query,
		Headers: map[string]string{"Accept": "application/json"},
	}
}

// FormRequest encodes form as an application/x-www-form-urlencoded body.
func FormRequest(method, rawURL string, form url.Values) core.TransportRequest {
	return core.TransportRequest{
		Method: method,
		URL:    rawURL,
		Body:   []byte(form.Encode()),
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
	}
}

func JSONRequest(method, rawURL string, payload any) (core.TransportRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.TransportRequest{}, fmt.Errorf("transport: encode json body: %w", err)
	}
	return core.TransportRequest{
		Method: method,
		URL:    rawURL,
		Body:   body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=UTF-8",
			"Accept":       "application/json",
		},
	}, nil
}

func WithBearer(req core.TransportRequest, token string) core.TransportRequest {
	return WithHeader(req, "Authorization", "Bearer "+strings.TrimSpace(token))
}

func WithHeader(req core.TransportRequest, key, value string) core.TransportRequest {
	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	headers[key] = value
	req.Headers = headers
	return req
}

func DecodeJSON(res core.TransportResponse, target any) error {
	if len(strings.TrimSpace(string(res.Body))) == 0 {
		return fmt.Errorf("transport: empty response body (status %d)", res.StatusCode)
	}
	if err := json.Unmarshal(res.Body, target); err != nil {
		return fmt.Errorf("transport: decode json response: %w", err)
	}
	return nil
}
