package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

// Component exposes a Runner's stage availability to the component registry.
type Component struct {
	runner *Runner
	log    *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps runner.
func NewComponent(runner *Runner, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Get("pipeline")
	}
	return &Component{runner: runner, log: log}
}

// Name returns "pipeline".
func (c *Component) Name() string { return "pipeline" }

// Runner returns the wrapped runner.
func (c *Component) Runner() *Runner { return c.runner }

// Start warns about stages whose tools are missing. Jobs still start; they
// fail in the unavailable stage.
func (c *Component) Start(ctx context.Context) error {
	if missing := c.missing(ctx); len(missing) > 0 {
		c.log.Warn("pipeline stages unavailable", logger.Fields("stages", strings.Join(missing, ",")))
	}
	return nil
}

// Stop is a no-op; in-flight jobs finish with their own contexts.
func (c *Component) Stop(context.Context) error { return nil }

// Health is degraded while any stage provider is unavailable.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if missing := c.missing(ctx); len(missing) > 0 {
		h.Status = component.StatusDegraded
		h.Message = "unavailable: " + strings.Join(missing, ",")
	}
	return h
}

// Describe returns the concurrency and dedup settings.
func (c *Component) Describe() component.Description {
	cfg := c.runner.Config()
	return component.Description{
		Type:    "pipeline",
		Details: fmt.Sprintf("max_concurrent=%d dedup=%t work_dir=%s", cfg.MaxConcurrent, !cfg.DisableDedup, cfg.WorkDir),
	}
}

func (c *Component) missing(ctx context.Context) []string {
	var out []string
	for stage, ok := range c.runner.Available(ctx) {
		if !ok {
			out = append(out, stage)
		}
	}
	sort.Strings(out)
	return out
}
