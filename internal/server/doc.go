// ABOUTME: Package documentation for server.
// ABOUTME: Describes endpoint layout and component wiring.

// Package server wires the gateway components into a single HTTP server.
//
// Endpoints:
//
//	/mcp    - MCP Streamable HTTP endpoint (credential required)
//	/setup  - account connection portal
//	/health - liveness check
//
// The tool catalog is assembled once at startup; each MCP session gets a
// fresh protocol server sharing that catalog and dispatcher.
package server
