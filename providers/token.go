package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/transport"
)

const maxTokenResponseBodyBytes = 1 << 20 // 1 MiB

type TokenRequest struct {
	Method string
	URL    string
	Form   url.Values
	// BasicAuth sends client_id:client_secret in the Authorization header in
	// addition to whatever the form carries.
	BasicAuth bool
	Failure   string
}

// TokenPayload is the union of the token response fields the supported
// platforms return.
type TokenPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	IDToken          string
	OpenID           string
	UserID           string
	ExpiresIn        int64
	RefreshExpiresIn int64
	ErrorCode        string
	ErrorDescription string
	Raw              map[string]any
}

// FetchToken calls a token endpoint and parses the answer. GET requests carry
// the form in the query string.
func (b *Base) FetchToken(ctx context.Context, req TokenRequest) (TokenPayload, error) {
	failure := req.Failure
	if failure == "" {
		failure = fmt.Sprintf("Failed to exchange %s code for access token", b.platform.Label())
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}

	var transportReq core.TransportRequest
	if method == http.MethodGet {
		query := make(map[string]string, len(req.Form))
		for key := range req.Form {
			query[key] = req.Form.Get(key)
		}
		transportReq = transport.GetRequest(req.URL, query)
	} else {
		transportReq = transport.FormRequest(method, req.URL, req.Form)
	}
	if req.BasicAuth {
		credentials := base64.StdEncoding.EncodeToString([]byte(b.oauth.ClientID + ":" + b.oauth.ClientSecret))
		transportReq = transport.WithHeader(transportReq, "Authorization", "Basic "+credentials)
	}
	transportReq.MaxResponseBodyBytes = maxTokenResponseBodyBytes

	res, err := b.Call(ctx, transportReq, failure)
	if err != nil {
		return TokenPayload{}, err
	}
	payload, err := ParseTokenPayload(res.Body, res.Headers["Content-Type"])
	if err != nil {
		return TokenPayload{}, core.PlatformError(failure+": unreadable token response", res.StatusCode, res.Body)
	}
	if payload.ErrorCode != "" {
		return TokenPayload{}, core.PlatformError(failure+": "+describeTokenError(payload), res.StatusCode, res.Body)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return TokenPayload{}, core.PlatformError(failure+": response missing access token", res.StatusCode, res.Body)
	}
	return payload, nil
}

// RenewToken runs a refresh grant built by request around token and maps the
// answer onto a RefreshResult.
func (b *Base) RenewToken(ctx context.Context, token string, request func(token string) TokenRequest) core.Result[core.RefreshResult] {
	startedAt := time.Now()
	token = strings.TrimSpace(token)
	if token == "" {
		return Finish(ctx, b, "refresh", startedAt, core.RefreshResult{}, core.BadInputError("Refresh token is required"))
	}
	req := request(token)
	if req.Failure == "" {
		req.Failure = fmt.Sprintf("Failed to refresh %s access token", b.platform.Label())
	}
	payload, err := b.FetchToken(ctx, req)
	if err != nil {
		return Finish(ctx, b, "refresh", startedAt, core.RefreshResult{}, err)
	}
	return Finish(ctx, b, "refresh", startedAt, core.RefreshResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Expiry:       core.ExpiresIn(b.Now(), payload.ExpiresIn),
	}, nil)
}

func describeTokenError(payload TokenPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}

func ParseTokenPayload(body []byte, contentType string) (TokenPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "x-www-form-urlencoded") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	} else if strings.Contains(contentType, "json") {
		return TokenPayload{}, err
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (TokenPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return TokenPayload{}, fmt.Errorf("empty payload")
	}
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.UseNumber()
	var decoded map[string]any
	if err := decoder.Decode(&decoded); err != nil {
		return TokenPayload{}, err
	}
	// Instagram wraps the short lived token in a data array.
	if items, ok := decoded["data"].([]any); ok && len(items) > 0 {
		if first, ok := items[0].(map[string]any); ok && first["access_token"] != nil {
			decoded = first
		}
	}
	// TikTok v1 style responses nest the token under data.
	if nested, ok := decoded["data"].(map[string]any); ok && nested["access_token"] != nil {
		decoded = nested
	}

	payload := TokenPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		Scope:            readScopeValue(decoded["scope"]),
		IDToken:          readAnyString(decoded["id_token"]),
		OpenID:           readAnyString(decoded["open_id"]),
		UserID:           readAnyString(decoded["user_id"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		RefreshExpiresIn: readAnyInt64(decoded["refresh_expires_in"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
		Raw:              decoded,
	}
	switch typed := decoded["error"].(type) {
	case string:
		payload.ErrorCode = strings.TrimSpace(typed)
	case map[string]any:
		code := readAnyString(typed["code"])
		if code != "" && code != "ok" {
			payload.ErrorCode = code
			if payload.ErrorDescription == "" {
				payload.ErrorDescription = readAnyString(typed["message"])
			}
		}
	}
	if payload.Scope == "" {
		payload.Scope = readScopeValue(decoded["permissions"])
	}
	return payload, nil
}

func parseTokenPayloadForm(body []byte) (TokenPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return TokenPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return TokenPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	raw := make(map[string]any, len(values))
	for key := range values {
		raw[key] = values.Get(key)
	}
	return TokenPayload{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		Scope:            strings.TrimSpace(values.Get("scope")),
		IDToken:          strings.TrimSpace(values.Get("id_token")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
		Raw:              raw,
	}, nil
}

func readScopeValue(value any) string {
	switch typed := value.(type) {
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			if text := readAnyString(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ",")
	default:
		return readAnyString(value)
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
		floatParsed, floatErr := typed.Float64()
		if floatErr == nil {
			return int64(floatParsed)
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}
