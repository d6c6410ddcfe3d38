// Package redis wraps go-redis with vidscribe logging, configuration and
// component lifecycle. The pipeline persists job records through TypedStore
// when a Redis address is configured.
//
//	client, err := redis.New(cfg, log)
//	jobs := redis.NewTypedStore[pipeline.Job](client, "vidscribe:job")
package redis
