package provider

import "context"

// Closeable is optionally implemented by providers that hold resources
// such as HTTP connection pools.
type Closeable interface {
	Close(ctx context.Context) error
}
