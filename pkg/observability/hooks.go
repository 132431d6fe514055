// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about generation runs and layout storage.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGeneratorHooks(&myGeneratorHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generator().OnRunStart(theme, seed, target)
//	// ... generation ...
//	observability.Generator().OnRunComplete(placed, backtracks, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generator Hooks
// =============================================================================

// GeneratorHooks receives events from the placement engine.
type GeneratorHooks interface {
	// OnRunStart fires once per generation run, after the target module
	// count has been drawn.
	OnRunStart(theme string, seed uint64, target int)

	// OnPlacement fires for every committed module placement.
	OnPlacement(category, asset string, placed int)

	// OnBacktrack fires for every unwound placement.
	OnBacktrack(placed, backtracks int)

	// OnRunComplete fires exactly once at the end of a run, success or not.
	OnRunComplete(placed, backtracks int, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from layout storage backends.
type StoreHooks interface {
	// OnSave records a layout write.
	OnSave(ctx context.Context, backend, id string)

	// OnLoad records a layout read and whether it was found.
	OnLoad(ctx context.Context, backend, id string, found bool)

	// OnDelete records a layout removal.
	OnDelete(ctx context.Context, backend, id string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGeneratorHooks is a no-op implementation of GeneratorHooks.
type NoopGeneratorHooks struct{}

func (NoopGeneratorHooks) OnRunStart(string, uint64, int)               {}
func (NoopGeneratorHooks) OnPlacement(string, string, int)              {}
func (NoopGeneratorHooks) OnBacktrack(int, int)                         {}
func (NoopGeneratorHooks) OnRunComplete(int, int, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSave(context.Context, string, string)       {}
func (NoopStoreHooks) OnLoad(context.Context, string, string, bool) {}
func (NoopStoreHooks) OnDelete(context.Context, string, string)     {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generatorHooks GeneratorHooks = NoopGeneratorHooks{}
	storeHooks     StoreHooks     = NoopStoreHooks{}
	hooksMu        sync.RWMutex
)

// SetGeneratorHooks registers custom generator hooks.
// This should be called once at application startup before any runs.
func SetGeneratorHooks(h GeneratorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generatorHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store use.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Generator returns the registered generator hooks.
func Generator() GeneratorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generatorHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generatorHooks = NoopGeneratorHooks{}
	storeHooks = NoopStoreHooks{}
}
