// Package metrics exposes Prometheus counters and gauges for watch mode.
package metrics
