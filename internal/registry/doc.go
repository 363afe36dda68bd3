// Package registry is the HTTP client for the remote action registry: the
// actions listing used to build the tool catalog, the perform-action
// endpoint used at dispatch time, and the integrations listing that
// enumerates what a user can connect. All calls are bearer-authenticated
// with a signed end-user credential and carry no retry logic; non-success
// responses surface as classified errors.
package registry
