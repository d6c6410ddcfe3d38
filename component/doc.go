// Package component manages the lifecycle of long-lived vidscribe services
// (storage, redis, the job pipeline, the inbox watcher, the HTTP server).
//
// Components start in registration order, stop in reverse order and report
// health for the /health endpoint.
package component
