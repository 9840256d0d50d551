// Package api hosts the HTTP server, middleware, and REST handlers.
// Notable routes:
//   - GET|POST /api/inspect runs a full inspection of ?url= or {"url": ...}.
//   - GET|POST /api/debug dumps the raw evidence for the same input.
//   - GET /healthz / readyz for platform probes.
//   - GET /metrics for Prometheus scraping.
//
// Every response carries permissive CORS headers and OPTIONS is answered
// directly. Routes under /api pass through the auth guard, which checks the
// API key and rate limits front-end callers.
package api
