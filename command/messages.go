package command

import (
	"strings"

	"github.com/goliatone/go-sotsial/core"
)

const (
	TypeGrant    = "sotsial.command.grant"
	TypeExchange = "sotsial.command.exchange"
	TypeRefresh  = "sotsial.command.refresh"
	TypePublish  = "sotsial.command.publish"
)

type GrantMessage struct {
	Platform core.Platform
	Scopes   []string
}

func (GrantMessage) Type() string { return TypeGrant }

func (m GrantMessage) Validate() error {
	return validatePlatform(m.Platform)
}

type ExchangeMessage struct {
	Platform core.Platform
	Request  core.ExchangeRequest
}

func (ExchangeMessage) Type() string { return TypeExchange }

func (m ExchangeMessage) Validate() error {
	if err := validatePlatform(m.Platform); err != nil {
		return err
	}
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	return nil
}

// RefreshMessage renews Token, the stored refresh token or long lived access
// token, on Platform.
type RefreshMessage struct {
	Platform core.Platform
	Token    string
}

func (RefreshMessage) Type() string { return TypeRefresh }

func (m RefreshMessage) Validate() error {
	if err := validatePlatform(m.Platform); err != nil {
		return err
	}
	if strings.TrimSpace(m.Token) == "" {
		return commandValidationError("token", "refresh token is required")
	}
	return nil
}

// PublishMessage targets Platforms, or every configured platform when empty.
type PublishMessage struct {
	Post      core.Post
	Platforms []core.Platform
}

func (PublishMessage) Type() string { return TypePublish }

func (m PublishMessage) Validate() error {
	for _, platform := range m.Platforms {
		if err := validatePlatform(platform); err != nil {
			return err
		}
	}
	return nil
}

func validatePlatform(platform core.Platform) error {
	if strings.TrimSpace(string(platform)) == "" {
		return commandValidationError("platform", "platform is required")
	}
	if !platform.Valid() {
		return commandInvalidInputError("command: unknown platform " + string(platform))
	}
	return nil
}
