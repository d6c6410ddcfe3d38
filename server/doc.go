// Package server provides the vidscribe HTTP server: Gin behind an h2c
// handler with a net/http middleware stack (recovery, request ID, CORS,
// body size limit, request logging).
//
// Default endpoints:
//
//   - /health: aggregate component health (503 when unhealthy)
//   - /alive: liveness probe
//   - /ready: readiness probe
//   - /info: build version and uptime
//
// API routes are registered on Engine by the api package.
package server
