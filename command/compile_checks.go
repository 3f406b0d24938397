package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[GrantMessage]    = (*GrantCommand)(nil)
	_ gocmd.Commander[ExchangeMessage] = (*ExchangeCommand)(nil)
	_ gocmd.Commander[RefreshMessage]  = (*RefreshCommand)(nil)
	_ gocmd.Commander[PublishMessage]  = (*PublishCommand)(nil)
)
