// Package telemetry exposes Prometheus metrics for the task engine.
package telemetry
