// Package middleware provides HTTP middleware for the media catalog API.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with a per-request id
//     (X-Request-ID) and the catalog error kind a handler answered with
//   - Prometheus request counters and latency histograms labeled by route
package middleware
