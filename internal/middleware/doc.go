// Package middleware provides observability middleware for the liveserve
// HTTP listeners.
//
// This package includes:
//   - Prometheus metrics middleware plus recording hooks for the reload
//     channel (client gauge, broadcast and delivery-error counters)
//   - OpenTelemetry tracing middleware
//
// Both are standard net/http middleware:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus())
//	r.Use(middleware.OpenTelemetry())
//
// Metrics are exposed with promhttp.Handler(); liveserve mounts it at
// /metrics on the trigger listener, away from the served site.
package middleware
