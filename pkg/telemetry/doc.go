// Package telemetry bundles the bridge's observability concerns: structured
// logging (zerolog), request metrics (Prometheus), and distributed tracing
// (OpenTelemetry). One Telemetry value is built from a single Config, wired
// into the provider server, and shut down with the process.
package telemetry
