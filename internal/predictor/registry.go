// Package predictor keeps the catalogue of known predictor adapters.
// Adapter implementations register themselves at init time; the runner
// instantiates them by name.
package predictor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"stabbench/internal/engine"
	"stabbench/internal/session"
)

// Factory builds a fresh adapter instance for one run.
type Factory func() engine.Adapter

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds an adapter factory under its name. Names are
// case-insensitive. Registering an empty name or the same name twice is a
// programming error.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		panic("predictor: Register with empty name or nil factory")
	}
	key := strings.ToLower(name)
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[key]; dup {
		panic(fmt.Sprintf("predictor: %q registered twice", key))
	}
	factories[key] = f
}

// New instantiates the named adapter.
func New(name string) (engine.Adapter, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown predictor %q", name)
	}
	return f(), nil
}

// List returns all registered names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ByKind returns the registered names accepting the given input kind.
func ByKind(kind engine.InputKind) []string {
	var out []string
	for _, name := range List() {
		a, err := New(name)
		if err != nil {
			continue
		}
		if a.Header().InputKind == kind {
			out = append(out, name)
		}
	}
	return out
}

// Base supplies defaults for adapters of services that need no login and no
// payload preparation. Embed it and override what the service requires.
type Base struct{}

func (Base) Flags() engine.Flags { return engine.Flags{} }

func (Base) PreparePayload(*engine.Job) error { return nil }

func (Base) Login(context.Context, *session.Session, *engine.Job) error { return nil }
