// Package providers contains the shared provider machinery: grant URL and
// PKCE construction, scope checks, token endpoint calls and the per account
// publish fold. Platform implementations live in the sub packages.
package providers
