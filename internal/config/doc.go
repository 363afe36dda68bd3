// Package config loads and validates the connect-gateway YAML configuration.
//
// Configuration files support ${VAR_NAME} environment variable expansion in
// any value, so secrets like the signing key can stay out of the file:
//
//	signing:
//	  key: ${SIGNING_KEY}
//
// A minimal configuration needs only a project ID, signing key material,
// and the upstream actions/proxy base URLs; everything else has defaults.
// Validation runs at load time and is fatal at startup, never deferred to
// the request path.
package config
