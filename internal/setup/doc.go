// Package setup implements the browser-based integration connect flow.
//
// When a tool call fails because the user has not authorized the target
// integration, the gateway hands the agent a setup link. The link embeds
// an opaque id rather than the signed credential itself; the in-memory
// TokenStore maps ids back to credentials when the link is opened.
//
// The flow is deliberately decoupled from dispatch: nothing on the tool
// invocation path reads the TokenStore. Restarting the process discards
// in-flight links, which is an acceptable degradation — the user simply
// requests a fresh link.
package setup
