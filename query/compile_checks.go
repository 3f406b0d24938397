package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-sotsial/core"
)

var (
	_ gocmd.Querier[ValidateMessage, core.ValidateResult]   = (*ValidateQuery)(nil)
	_ gocmd.Querier[LocalValidateMessage, core.ScopeCheck] = (*LocalValidateQuery)(nil)
)
