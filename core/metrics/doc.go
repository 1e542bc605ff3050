// Package metrics defines the run summary produced by every derivation and
// the sink interface that records it. Concrete sinks and the registry that
// builds them from configuration live in infra/metrics.
package metrics
