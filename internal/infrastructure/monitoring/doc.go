// Package monitoring provides Prometheus metrics for the client.
//
// Tracked dimensions:
//   - Poller lifecycle: live handles per kind, ticks, tick errors
//   - Gesture flow: samples by symbol, dispatched/suppressed updates
//   - Navigation: screen transitions, active-screen info gauge
//   - Backend calls: requests by endpoint and status, token refreshes
//   - Bridge: HTTP requests, WebSocket connections
//
// Metrics are exposed on the bridge's /metrics endpoint.
package monitoring
