package query

import (
	"strings"

	"github.com/goliatone/go-sotsial/core"
)

const (
	TypeValidate      = "sotsial.query.token.validate"
	TypeLocalValidate = "sotsial.query.scopes.local_validate"
)

type ValidateMessage struct {
	Platform    core.Platform
	AccessToken string
	Scopes      []string
}

func (ValidateMessage) Type() string { return TypeValidate }

func (m ValidateMessage) Validate() error {
	if err := validatePlatform(m.Platform); err != nil {
		return err
	}
	if strings.TrimSpace(m.AccessToken) == "" {
		return queryValidationError("access_token", "access token is required")
	}
	return nil
}

// LocalValidateMessage compares the scopes a platform reported against the
// configured set without any network call.
type LocalValidateMessage struct {
	Platform core.Platform
	Received []string
}

func (LocalValidateMessage) Type() string { return TypeLocalValidate }

func (m LocalValidateMessage) Validate() error {
	return validatePlatform(m.Platform)
}

func validatePlatform(platform core.Platform) error {
	if strings.TrimSpace(string(platform)) == "" {
		return queryValidationError("platform", "platform is required")
	}
	if !platform.Valid() {
		return queryInvalidInputError("query: unknown platform " + string(platform))
	}
	return nil
}
