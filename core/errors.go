package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput               = "SOTSIAL_BAD_INPUT"
	ErrorConfigInvalid          = "SOTSIAL_CONFIG_INVALID"
	ErrorProviderNotInitialised = "SOTSIAL_PROVIDER_NOT_INITIALISED"
	ErrorCapabilityUnsupported  = "SOTSIAL_CAPABILITY_UNSUPPORTED"
	ErrorScopeMismatch          = "SOTSIAL_SCOPE_MISMATCH"
	ErrorCSRFRequired           = "SOTSIAL_CSRF_REQUIRED"
	ErrorPlatformRejected       = "SOTSIAL_PLATFORM_REJECTED"
	ErrorPublishFailed          = "SOTSIAL_PUBLISH_FAILED"
	ErrorTimeout                = "SOTSIAL_TIMEOUT"
	ErrorInternal               = "SOTSIAL_INTERNAL_ERROR"
)

const (
	MetadataHint      = "hint"
	MetadataAccountID = "account_id"
	MetadataPlatform  = "platform"
)

const MessagePublishFailed = "Failed to publish post"

// ErrorResponse is the failure shape every operation reports.
type ErrorResponse struct {
	Message   string          `json:"message"`
	Hint      string          `json:"hint,omitempty"`
	Code      string          `json:"code,omitempty"`
	Status    int             `json:"status,omitempty"`
	AccountID string          `json:"account_id,omitempty"`
	Details   []ErrorResponse `json:"details,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if e == nil {
		return ""
	}
	if e.Hint != "" {
		return e.Message + " (" + e.Hint + ")"
	}
	return e.Message
}

func NewError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(goerrors.New(message, category).WithTextCode(textCode))
}

func BadInputError(message string) *goerrors.Error {
	return NewError(message, goerrors.CategoryBadInput, ErrorBadInput)
}

func ValidationError(field, message string) *goerrors.Error {
	err := goerrors.NewValidation(message, goerrors.FieldError{Field: field, Message: message}).
		WithSeverity(goerrors.SeverityError)
	return ensureErrorEnvelope(err.WithTextCode(ErrorBadInput))
}

func ConfigError(message string) *goerrors.Error {
	return NewError(message, goerrors.CategoryBadInput, ErrorConfigInvalid)
}

func ProviderNotInitialisedError(platform Platform) *goerrors.Error {
	return addMetadata(
		NewError(platform.Label()+" provider not initialised", goerrors.CategoryNotFound, ErrorProviderNotInitialised),
		map[string]any{MetadataPlatform: string(platform)},
	)
}

// CSRFRequiredError rejects an exchange that arrives without the grant's
// PKCE verifier on platforms that enforce it.
func CSRFRequiredError(platform Platform) *goerrors.Error {
	return NewError("CSRF token is required for "+platform.Label()+" authorisation.", goerrors.CategoryBadInput, ErrorCSRFRequired)
}

func UnsupportedError(message string) *goerrors.Error {
	return NewError(message, goerrors.CategoryOperation, ErrorCapabilityUnsupported).
		WithCode(http.StatusNotImplemented)
}

// ScopeMismatchError reports the scopes a connection is missing.
func ScopeMismatchError(missing []string) *goerrors.Error {
	return WithHint(
		NewError("Invalid scope(s). Missing: "+strings.Join(missing, ", "), goerrors.CategoryAuthz, ErrorScopeMismatch),
		"The necessary permissions are not set for this connection.",
	)
}

// PlatformError reports a non-success answer from a platform API. The body
// excerpt is kept in metadata for diagnostics.
func PlatformError(message string, status int, body []byte) *goerrors.Error {
	err := NewError(message, goerrors.CategoryExternal, ErrorPlatformRejected).WithCode(http.StatusBadGateway)
	metadata := map[string]any{}
	if status > 0 {
		metadata["upstream_status"] = status
	}
	if excerpt := bodyExcerpt(body); excerpt != "" {
		metadata["upstream_body"] = excerpt
	}
	return addMetadata(err, metadata)
}

func WithHint(err *goerrors.Error, hint string) *goerrors.Error {
	if err == nil || strings.TrimSpace(hint) == "" {
		return err
	}
	return addMetadata(err, map[string]any{MetadataHint: hint})
}

// WithAccount tags err with the account it happened on.
func WithAccount(err error, accountID string) *goerrors.Error {
	rich := MapError(err)
	if rich == nil {
		return nil
	}
	return addMetadata(rich, map[string]any{MetadataAccountID: accountID})
}

// MapError converts any error into the rich envelope with text code and
// HTTP status populated.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	var response *ErrorResponse
	if goerrors.As(err, &response) {
		return fromErrorResponse(response)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(err.Error(), goerrors.CategoryExternal, ErrorTimeout).WithCode(http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		return NewError(err.Error(), goerrors.CategoryOperation, ErrorTimeout).WithCode(499)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// ToErrorResponse is the single boundary conversion from Go errors to the
// caller facing failure shape.
func ToErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	var response *ErrorResponse
	if goerrors.As(err, &response) && response != nil {
		return response
	}

	rich := MapError(err)
	out := &ErrorResponse{
		Message: rich.Message,
		Code:    rich.TextCode,
		Status:  rich.Code,
	}
	for key, value := range rich.Metadata {
		switch key {
		case MetadataHint:
			out.Hint = fmt.Sprint(value)
		case MetadataAccountID:
			out.AccountID = fmt.Sprint(value)
		default:
			if out.Metadata == nil {
				out.Metadata = map[string]any{}
			}
			out.Metadata[key] = value
		}
	}
	if len(rich.ValidationErrors) > 0 {
		fields := make(map[string]string, len(rich.ValidationErrors))
		for _, field := range rich.ValidationErrors {
			fields[field.Field] = field.Message
		}
		if out.Metadata == nil {
			out.Metadata = map[string]any{}
		}
		out.Metadata["fields"] = fields
	}
	return out
}

// AggregateError folds per unit failures into one response.
func AggregateError(details []ErrorResponse) *ErrorResponse {
	if len(details) == 0 {
		return nil
	}
	return &ErrorResponse{
		Message: MessagePublishFailed,
		Code:    ErrorPublishFailed,
		Status:  http.StatusBadGateway,
		Details: append([]ErrorResponse(nil), details...),
	}
}

func fromErrorResponse(response *ErrorResponse) *goerrors.Error {
	if response == nil {
		return nil
	}
	err := goerrors.New(response.Message, categoryForStatus(response.Status)).
		WithTextCode(response.Code).
		WithCode(response.Status)
	metadata := map[string]any{}
	for key, value := range response.Metadata {
		metadata[key] = value
	}
	if response.Hint != "" {
		metadata[MetadataHint] = response.Hint
	}
	if response.AccountID != "" {
		metadata[MetadataAccountID] = response.AccountID
	}
	return ensureErrorEnvelope(addMetadata(err, metadata))
}

func addMetadata(err *goerrors.Error, values map[string]any) *goerrors.Error {
	if err == nil || len(values) == 0 {
		return err
	}
	merged := make(map[string]any, len(err.Metadata)+len(values))
	for key, value := range err.Metadata {
		merged[key] = value
	}
	for key, value := range values {
		merged[key] = value
	}
	return err.WithMetadata(merged)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorProviderNotInitialised
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorScopeMismatch
	case goerrors.CategoryOperation:
		return ErrorCapabilityUnsupported
	case goerrors.CategoryExternal:
		return ErrorPlatformRejected
	default:
		return ErrorInternal
	}
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func categoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	case status >= 500:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

func bodyExcerpt(body []byte) string {
	limit := 512
	text := strings.TrimSpace(string(body))
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
