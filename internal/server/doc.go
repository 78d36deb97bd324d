// Package server holds the runtime context and HTTP surfaces of the
// scheduleai MCP server: the shared service wiring, Kubernetes health
// probes, and the dedicated Prometheus metrics listener.
package server
