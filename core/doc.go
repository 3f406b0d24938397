// Package core contains the canonical sotsial domain contracts: platforms,
// provider configuration, accounts, post content, results and errors.
// Provider implementations and the orchestrator depend on this package; core
// must not depend on provider-specific or transport-specific adapters.
package core
