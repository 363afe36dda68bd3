// Package classify turns non-success downstream HTTP responses into typed
// errors: ErrUserNotConnected for the upstream's "not authorized" message,
// DownstreamError for everything else. The matching rule is textual and
// deliberately confined to this package.
package classify
