// Package api provides the HTTP API server for the companion: chat turns,
// conversation management, memory administration and system statistics.
package api

import (
	"github.com/papercomputeco/companion/pkg/eventstream/fanout"
	"github.com/papercomputeco/companion/pkg/metrics"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// RateLimit is the per-IP request budget per minute. Zero disables it.
	RateLimit int

	// CORSOrigins is a comma-separated allow list passed to the CORS
	// middleware. Empty allows every origin.
	CORSOrigins string

	// Metrics backs /metrics. A nil value gets a fresh registry.
	Metrics *metrics.Metrics

	// Events feeds GET /v1/events. The route is not mounted when nil.
	Events *fanout.Hub

	// DisableMCP turns off the /mcp endpoint.
	DisableMCP bool
}
