package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

// Component wraps a Storage backend and its Uploader for lifecycle management.
type Component struct {
	cfg      Config
	log      *logger.Logger
	storage  Storage
	uploader *Uploader
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a storage component. The backend is built in Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("storage")
	}
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage { return c.storage }

// Uploader returns the artifact uploader, or nil before Start.
func (c *Component) Uploader() *Uploader { return c.uploader }

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start creates the backend.
func (c *Component) Start(_ context.Context) error {
	s, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	c.uploader = NewUploader(s, c.cfg.Folder, c.log)
	return nil
}

// Stop releases the backend.
func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	c.uploader = nil
	return nil
}

// Health probes the backend with an existence check on the folder marker.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := c.storage.Exists(ctx, c.cfg.Folder+"/.health"); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("health probe failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s folder=%s", c.cfg.Provider, c.cfg.Folder)
	switch c.cfg.Provider {
	case ProviderS3:
		details += fmt.Sprintf(" bucket=%s region=%s", c.cfg.Bucket, c.cfg.Region)
		if c.cfg.ACL != "" {
			details += " acl=" + c.cfg.ACL
		}
	case ProviderLocal:
		details += " path=" + c.cfg.BasePath
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
