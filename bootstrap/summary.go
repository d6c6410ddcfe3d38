package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

// logSummary logs one line per component with its description and live
// health, followed by an overall line.
func logSummary(ctx context.Context, registry *component.Registry, log *logger.Logger, took time.Duration) {
	health := make(map[string]component.Health)
	all := registry.HealthAll(ctx)
	for _, h := range all {
		health[h.Name] = h
	}

	for _, c := range registry.All() {
		fields := logger.Fields(logger.FieldComponent, c.Name())
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				fields["display_name"] = desc.Name
			}
			fields["type"] = desc.Type
			fields["details"] = desc.Details
			if desc.Port > 0 {
				fields["port"] = desc.Port
			}
		}
		h := health[c.Name()]
		fields["status"] = string(h.Status)
		if h.Message != "" {
			fields["message"] = h.Message
		}
		log.Info("component", fields)
	}

	log.Info("startup complete", logger.Fields(
		"components", len(all),
		"status", string(component.Overall(all)),
		"startup_ms", took.Milliseconds(),
	))
}
