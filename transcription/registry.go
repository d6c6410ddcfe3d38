package transcription

import (
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/provider"
)

// NewRegistry creates a new provider registry for transcription providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}

// ManagerOption configures the transcription provider manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	selector provider.Selector[Provider]
	log      *logger.Logger
}

// WithSelector sets the provider selection strategy for the manager.
func WithSelector(s provider.Selector[Provider]) ManagerOption {
	return func(c *managerConfig) {
		c.selector = s
	}
}

// WithLogger sets the manager's logger.
func WithLogger(l *logger.Logger) ManagerOption {
	return func(c *managerConfig) {
		c.log = l
	}
}

// NewManager creates a new provider manager for transcription providers.
// Without a selector the first available backend (by name) wins.
func NewManager(opts ...ManagerOption) *provider.Manager[Provider] {
	cfg := &managerConfig{
		selector: &provider.HealthCheckSelector[Provider]{},
	}
	for _, o := range opts {
		o(cfg)
	}
	return provider.NewManager(NewRegistry(), cfg.selector, cfg.log)
}
