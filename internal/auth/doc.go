// Package auth provides end-user credential handling for connect-gateway.
//
// # Credential Format
//
// Credentials are RS256-signed JWTs. The private key signs, the public key
// verifies, and a single key pair serves the whole deployment:
//
//	{
//	  "payload": { "personaId"?, "integrationId"?, "integrationName"?,
//	               "projectId"?, "loginToken"? },
//	  "sub": "<acting user id>",
//	  "iat": <issued at>,
//	  "exp": <iat + 7 days>
//	}
//
// Optional payload fields appear only when their source value is non-empty.
// The same credential authenticates the end user on MCP requests and is
// forwarded as the bearer credential on downstream calls.
//
// # Request Authentication
//
// Authenticator.Authenticate accepts a bearer token via the Authorization
// header. When the deployment runs with auth.dev_mode enabled, a plain
// "user" query parameter is accepted instead and a credential is
// synthesized for it. Dev mode defaults to off and exists purely as an
// operator convenience for local testing; it must never be enabled on a
// reachable deployment.
//
// # Signing Material
//
// ResolveSigningKey reads PEM key material from an inline config value or
// a file path, normalizing "\n" escape sequences to real newlines first so
// keys can travel through single-line environment variables.
package auth
