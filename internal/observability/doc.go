// Package observability provides structured logging and metrics for the
// back-office client and the mock API.
//
// This package implements:
//   - zap logger construction from configured level and format
//   - Prometheus counters for outbound requests, token refreshes, and
//     forced logouts
package observability
