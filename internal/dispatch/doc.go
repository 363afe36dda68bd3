// ABOUTME: Package documentation for dispatch.
// ABOUTME: Describes how tool invocations reach their upstreams.

// Package dispatch executes tool invocations against their upstreams.
//
// Registry-backed and static tools are performed through the action
// registry under the tool's own name. OpenAPI-backed tools and the generic
// proxy tool are sent through the HTTP proxy: the real target URL travels in
// a forwarding header while the request itself hits the per-integration
// proxy endpoint, which injects the user's stored credentials.
package dispatch
