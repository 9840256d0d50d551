// Package main hosts the inspection service entrypoint for container deployments.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, /api/inspect and /api/debug. Every /api request passes
//     the auth guard first: callers presenting X-API-Key are checked against the configured key, browser callers
//     from a front-end origin are metered by the per-IP fixed-window limiter.
//   - Inspection pipeline: internal/inspector fetches the page through the Colly-based fetcher, computes the weak
//     WordPress signals, then resolves the theme and the plugin list concurrently. Plugin records are enriched from
//     the WordPress.org plugin API with bounded concurrency and a shared outbound rate limit.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler.
//
// Operational notes:
//   - The rate limiter is the only state shared across requests. It lives in process memory, so counts reset on
//     restart and are not shared between replicas. A background loop evicts expired windows.
//   - Cloud Run: the HTTP server listens on the configured port (overridable via PORT). Health endpoints (/healthz,
//     /readyz) remain lightweight; the process reacts to SIGTERM by draining in-flight requests.
//
// Quick checklist:
//   - Configure env vars: WP_INSPECTOR_SERVER_PORT or PORT, WP_INSPECTOR_AUTH_API_KEY,
//     WP_INSPECTOR_RATE_LIMIT_MAX_REQUESTS, WP_INSPECTOR_REGISTRY_ENABLED.
//   - Run locally: go run ./cmd/wp-inspector-server -config config.yaml (or rely solely on env overrides).
package main
