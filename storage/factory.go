package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/vidscribe/logger"
)

// Factory creates a Storage backend from the storage configuration.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a storage backend factory for the given provider
// name. Backend packages call it from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Registered returns the sorted names of all registered backends.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the Storage backend selected by cfg.Provider.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (registered: %v)", cfg.Provider, Registered())
	}

	var l *logger.Logger
	if log == nil {
		l = logger.Get("storage")
	} else {
		l = log.WithComponent("storage")
	}
	l.Info("initializing storage", logger.Fields("provider", cfg.Provider, "folder", cfg.Folder))
	return f(cfg, l)
}
