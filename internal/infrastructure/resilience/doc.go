// Package resilience provides a circuit breaker guarding calls to the
// vision backend.
//
// Polling makes a misbehaving backend expensive: a dead endpoint would
// otherwise be hammered every 80-200ms by each live poller. The breaker
// sheds that load while the backend is down and probes it with a bounded
// number of half-open requests before resuming.
package resilience
