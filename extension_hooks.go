package sotsial

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-sotsial/core"
)

// CommandQueryBundleFactory builds an extra set of handlers over the engine.
type CommandQueryBundleFactory func(engine Engine) (any, error)

// ExtensionHooks lets downstream code replace platform factories and attach
// handler bundles without forking the client.
type ExtensionHooks struct {
	mu sync.RWMutex

	factories map[core.Platform]ProviderFactory
	bundles   map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		factories: map[core.Platform]ProviderFactory{},
		bundles:   map[string]CommandQueryBundleFactory{},
	}
}

// RegisterFactory overrides the built in factory for platform.
func (h *ExtensionHooks) RegisterFactory(platform core.Platform, factory ProviderFactory) error {
	if h == nil {
		return fmt.Errorf("sotsial: extension hooks are nil")
	}
	if !platform.Valid() {
		return fmt.Errorf("sotsial: unknown platform %q", platform)
	}
	if factory == nil {
		return fmt.Errorf("sotsial: %s factory is required", platform.Label())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.factories[platform]; exists {
		return fmt.Errorf("sotsial: %s factory already registered", platform.Label())
	}
	h.factories[platform] = factory
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(name string, factory CommandQueryBundleFactory) error {
	if h == nil {
		return fmt.Errorf("sotsial: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sotsial: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("sotsial: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("sotsial: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// Factories merges the registered overrides over base.
func (h *ExtensionHooks) Factories(base map[core.Platform]ProviderFactory) map[core.Platform]ProviderFactory {
	out := make(map[core.Platform]ProviderFactory, len(base))
	for platform, factory := range base {
		out[platform] = factory
	}
	if h == nil {
		return out
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for platform, factory := range h.factories {
		out[platform] = factory
	}
	return out
}

func (h *ExtensionHooks) BuildCommandQueryBundles(engine Engine) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if engine == nil {
		return nil, fmt.Errorf("sotsial: engine is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		names = append(names, name)
		factories[name] = factory
	}
	h.mu.RUnlock()
	sort.Strings(names)

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](engine)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
